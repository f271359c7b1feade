package handlers

import (
	"net/http"

	"cargo-logistics-service/internal/api/dto"
	"cargo-logistics-service/internal/domain"
	"cargo-logistics-service/internal/services"
)

type InvoiceHandler struct {
	Invoices *services.InvoiceService
}

func invoiceFilter(r *http.Request) (domain.InvoiceFilter, error) {
	lp, err := listParams(r)
	if err != nil {
		return domain.InvoiceFilter{}, err
	}
	from, until, err := queryRange(r)
	if err != nil {
		return domain.InvoiceFilter{}, err
	}
	return domain.InvoiceFilter{
		ListParams: lp,
		ClientID:   r.URL.Query().Get("clientId"),
		From:       from,
		To:         until,
	}, nil
}

// List accepts the derived "overdue" status as a filter.
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := invoiceFilter(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	page, err := h.Invoices.List(r.Context(), f)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewList(page, dto.NewInvoice))
}

func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK, r.PathValue("id"))
}

func (h *InvoiceHandler) respond(w http.ResponseWriter, r *http.Request, status int, id string) {
	inv, err := h.Invoices.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, status, dto.NewInvoice(*inv))
}

func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.InvoiceRequest
	if !decode(w, r, &req) {
		return
	}
	inv := req.Domain()
	if err := h.Invoices.Create(r.Context(), inv); err != nil {
		fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, inv.ID)
}

func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.InvoiceRequest
	if !decode(w, r, &req) {
		return
	}
	id := r.PathValue("id")
	if err := h.Invoices.Update(r.Context(), id, req.Domain()); err != nil {
		fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, id)
}

func (h *InvoiceHandler) Send(w http.ResponseWriter, r *http.Request) {
	inv, err := h.Invoices.Send(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewInvoice(*inv))
}

func (h *InvoiceHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req dto.PaymentRequest
	if !decode(w, r, &req) {
		return
	}
	inv, err := h.Invoices.RecordPayment(r.Context(), r.PathValue("id"), services.Payment{
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		Reference:     req.Reference,
		ReceivedBy:    PrincipalFrom(r.Context()).UserID,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewInvoice(*inv))
}

func (h *InvoiceHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	inv, err := h.Invoices.Cancel(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewInvoice(*inv))
}

func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Invoices.Delete(r.Context(), r.PathValue("id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *InvoiceHandler) Outstanding(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Invoices.Outstanding(r.Context(), r.URL.Query().Get("clientId"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.OutstandingResponse(sum))
}

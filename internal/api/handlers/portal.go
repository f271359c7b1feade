package handlers

import (
	"net/http"

	"cargo-logistics-service/internal/api/dto"
	"cargo-logistics-service/internal/services"
)

// PortalHandler is the client-facing read side. Every query is pinned to the
// caller's client; records of other clients answer 404.
type PortalHandler struct {
	Dashboard *services.DashboardService
	Shipments *services.ShipmentService
	Invoices  *services.InvoiceService
}

func (h *PortalHandler) Home(w http.ResponseWriter, r *http.Request) {
	d, err := h.Dashboard.ClientDashboard(r.Context(), PrincipalFrom(r.Context()).ClientID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewClientDashboard(d))
}

func (h *PortalHandler) ListShipments(w http.ResponseWriter, r *http.Request) {
	f, err := shipmentFilter(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	f.ClientID = PrincipalFrom(r.Context()).ClientID
	page, err := h.Shipments.List(r.Context(), f)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewList(page, dto.NewShipment))
}

func (h *PortalHandler) GetShipment(w http.ResponseWriter, r *http.Request) {
	sh, err := h.Shipments.GetForClient(r.Context(), PrincipalFrom(r.Context()).ClientID, r.PathValue("id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewShipment(*sh))
}

func (h *PortalHandler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	f, err := invoiceFilter(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	page, err := h.Invoices.ListForClient(r.Context(), PrincipalFrom(r.Context()).ClientID, f)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewList(page, dto.NewInvoice))
}

func (h *PortalHandler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.Invoices.GetForClient(r.Context(), PrincipalFrom(r.Context()).ClientID, r.PathValue("id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewInvoice(*inv))
}

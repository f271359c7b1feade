package handlers

import (
	"net/http"

	"cargo-logistics-service/internal/api/dto"
	"cargo-logistics-service/internal/domain"
	"cargo-logistics-service/internal/services"
)

// SupportHandler serves both sides of a ticket conversation. Scoping to the
// caller's client happens in the service.
type SupportHandler struct {
	Support *services.SupportService
}

func (h *SupportHandler) List(w http.ResponseWriter, r *http.Request) {
	lp, err := listParams(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	q := r.URL.Query()
	page, err := h.Support.List(r.Context(), PrincipalFrom(r.Context()), domain.TicketFilter{
		ListParams: lp,
		ClientID:   q.Get("clientId"),
		Priority:   q.Get("priority"),
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewList(page, dto.NewTicket))
}

func (h *SupportHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.Support.Get(r.Context(), PrincipalFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewTicket(*t))
}

func (h *SupportHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.TicketRequest
	if !decode(w, r, &req) {
		return
	}
	p := PrincipalFrom(r.Context())
	t := req.Domain()
	if err := h.Support.Create(r.Context(), p, t, req.Message); err != nil {
		fail(w, r, err)
		return
	}
	created, err := h.Support.Get(r.Context(), p, t.ID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.NewTicket(*created))
}

func (h *SupportHandler) Reply(w http.ResponseWriter, r *http.Request) {
	var req dto.MessageRequest
	if !decode(w, r, &req) {
		return
	}
	m, err := h.Support.Reply(r.Context(), PrincipalFrom(r.Context()), r.PathValue("id"), req.Message)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.NewTicketMessage(*m))
}

func (h *SupportHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.StatusRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := h.Support.SetStatus(r.Context(), r.PathValue("id"), domain.TicketStatus(req.Status))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewTicket(*t))
}

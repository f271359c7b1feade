package handlers

import (
	"net/http"

	"cargo-logistics-service/internal/api/dto"
	"cargo-logistics-service/internal/domain"
	"cargo-logistics-service/internal/services"
)

type ClientHandler struct {
	Clients *services.ClientService
}

func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	lp, err := listParams(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	page, err := h.Clients.List(r.Context(), domain.ClientFilter{ListParams: lp})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewList(page, dto.NewClient))
}

// Get includes the shipment count and the outstanding invoice balance.
func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.Clients.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewClientDetail(*c))
}

func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.ClientRequest
	if !decode(w, r, &req) {
		return
	}
	c := req.Domain()
	if err := h.Clients.Create(r.Context(), c); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.NewClient(*c))
}

func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.ClientRequest
	if !decode(w, r, &req) {
		return
	}
	c := req.Domain()
	if err := h.Clients.Update(r.Context(), r.PathValue("id"), c); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewClient(*c))
}

func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Clients.Delete(r.Context(), r.PathValue("id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

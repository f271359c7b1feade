package handlers

import (
	"net/http"

	"cargo-logistics-service/internal/api/dto"
	"cargo-logistics-service/internal/domain"
	"cargo-logistics-service/internal/services"
)

type SupplierHandler struct {
	Suppliers *services.SupplierService
}

func (h *SupplierHandler) List(w http.ResponseWriter, r *http.Request) {
	lp, err := listParams(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	f := domain.SupplierFilter{ListParams: lp, ServiceType: r.URL.Query().Get("serviceType")}
	page, err := h.Suppliers.List(r.Context(), f)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewList(page, dto.NewSupplier))
}

func (h *SupplierHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.Suppliers.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewSupplier(*s))
}

func (h *SupplierHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.SupplierRequest
	if !decode(w, r, &req) {
		return
	}
	s := req.Domain()
	if err := h.Suppliers.Create(r.Context(), s); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.NewSupplier(*s))
}

func (h *SupplierHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.SupplierRequest
	if !decode(w, r, &req) {
		return
	}
	s := req.Domain()
	if err := h.Suppliers.Update(r.Context(), r.PathValue("id"), s); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewSupplier(*s))
}

func (h *SupplierHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Suppliers.Delete(r.Context(), r.PathValue("id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

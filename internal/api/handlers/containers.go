package handlers

import (
	"net/http"

	"cargo-logistics-service/internal/api/dto"
	"cargo-logistics-service/internal/domain"
	"cargo-logistics-service/internal/services"
)

type ContainerHandler struct {
	Containers *services.ContainerService
}

func (h *ContainerHandler) List(w http.ResponseWriter, r *http.Request) {
	lp, err := listParams(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	f := domain.ContainerFilter{ListParams: lp, Type: r.URL.Query().Get("type")}
	page, err := h.Containers.List(r.Context(), f)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewList(page, dto.NewContainer))
}

func (h *ContainerHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.Containers.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewContainer(*c))
}

func (h *ContainerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.ContainerRequest
	if !decode(w, r, &req) {
		return
	}
	c := req.Domain()
	if err := h.Containers.Create(r.Context(), c); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.NewContainer(*c))
}

func (h *ContainerHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.ContainerRequest
	if !decode(w, r, &req) {
		return
	}
	c := req.Domain()
	if err := h.Containers.Update(r.Context(), r.PathValue("id"), c); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewContainer(*c))
}

func (h *ContainerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Containers.Delete(r.Context(), r.PathValue("id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

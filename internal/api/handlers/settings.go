package handlers

import (
	"net/http"

	"cargo-logistics-service/internal/api/dto"
	"cargo-logistics-service/internal/services"
)

type SettingsHandler struct {
	Settings *services.SettingsService
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	st, err := h.Settings.Get(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, st)
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.SettingsRequest
	if !decode(w, r, &req) {
		return
	}
	st := req.Domain()
	if err := h.Settings.Update(r.Context(), st); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, st)
}

type DashboardHandler struct {
	Dashboard *services.DashboardService
}

func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	s, err := h.Dashboard.Stats(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewDashboardStats(s))
}

func (h *DashboardHandler) RecentShipments(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		fail(w, r, err)
		return
	}
	items, err := h.Dashboard.RecentShipments(r.Context(), limit)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.Map(items, dto.NewShipment))
}

package handlers

import (
	"net/http"

	"cargo-logistics-service/internal/api/dto"
	"cargo-logistics-service/internal/services"
)

// Subscriber upgrades a request into a live feed of tracking updates.
type Subscriber interface {
	ServeWS(w http.ResponseWriter, r *http.Request, trackingNumber string)
}

type TrackingHandler struct {
	Shipments *services.ShipmentService
	Hub       Subscriber
}

// Track is the public lookup; it exposes no client or pricing data.
func (h *TrackingHandler) Track(w http.ResponseWriter, r *http.Request) {
	t, err := h.Shipments.Track(r.Context(), r.PathValue("trackingNumber"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewPublicTracking(*t))
}

func (h *TrackingHandler) AddUpdate(w http.ResponseWriter, r *http.Request) {
	var req dto.TrackingUpdateRequest
	if !decode(w, r, &req) {
		return
	}
	u := req.Domain(PrincipalFrom(r.Context()).UserID)
	if err := h.Shipments.AddTrackingUpdate(r.Context(), r.PathValue("id"), u); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.NewTrackingUpdate(*u))
}

func (h *TrackingHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		fail(w, r, err)
		return
	}
	updates, err := h.Shipments.RecentUpdates(r.Context(), limit)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.Map(updates, dto.NewTrackingUpdate))
}

// Stream checks the tracking number exists before upgrading the connection.
func (h *TrackingHandler) Stream(w http.ResponseWriter, r *http.Request) {
	tn := r.PathValue("trackingNumber")
	if _, err := h.Shipments.Track(r.Context(), tn); err != nil {
		fail(w, r, err)
		return
	}
	h.Hub.ServeWS(w, r, tn)
}

package handlers

import (
	"net/http"

	"cargo-logistics-service/internal/api/dto"
	"cargo-logistics-service/internal/domain"
	"cargo-logistics-service/internal/services"
)

type ShipmentHandler struct {
	Shipments *services.ShipmentService
}

func shipmentFilter(r *http.Request) (domain.ShipmentFilter, error) {
	lp, err := listParams(r)
	if err != nil {
		return domain.ShipmentFilter{}, err
	}
	from, until, err := queryRange(r)
	if err != nil {
		return domain.ShipmentFilter{}, err
	}
	q := r.URL.Query()
	return domain.ShipmentFilter{
		ListParams:  lp,
		ClientID:    q.Get("clientId"),
		ContainerID: q.Get("containerId"),
		From:        from,
		To:          until,
	}, nil
}

func (h *ShipmentHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := shipmentFilter(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	page, err := h.Shipments.List(r.Context(), f)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewList(page, dto.NewShipment))
}

func (h *ShipmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK, r.PathValue("id"))
}

// respond reloads the shipment so joined names and tracking history are
// current.
func (h *ShipmentHandler) respond(w http.ResponseWriter, r *http.Request, status int, id string) {
	sh, err := h.Shipments.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, status, dto.NewShipment(*sh))
}

func (h *ShipmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.ShipmentRequest
	if !decode(w, r, &req) {
		return
	}
	sh := req.Domain()
	if err := h.Shipments.Create(r.Context(), sh); err != nil {
		fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, sh.ID)
}

func (h *ShipmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.ShipmentRequest
	if !decode(w, r, &req) {
		return
	}
	id := r.PathValue("id")
	if err := h.Shipments.Update(r.Context(), id, req.Domain()); err != nil {
		fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, id)
}

// UpdateStatus records a tracking update for a quick status change.
func (h *ShipmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.StatusChangeRequest
	if !decode(w, r, &req) {
		return
	}
	p := PrincipalFrom(r.Context())
	u, err := h.Shipments.UpdateStatus(r.Context(), r.PathValue("id"),
		domain.ShipmentStatus(req.Status), req.Location, req.Description, p.UserID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewTrackingUpdate(*u))
}

func (h *ShipmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Shipments.Delete(r.Context(), r.PathValue("id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

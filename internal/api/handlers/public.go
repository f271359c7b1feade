package handlers

import (
	"net/http"

	"cargo-logistics-service/internal/api/dto"
	"cargo-logistics-service/internal/services"
)

// PublicHandler serves the unauthenticated showcase site endpoints.
type PublicHandler struct {
	Settings *services.SettingsService
	Contact  *services.ContactService
}

func (h *PublicHandler) Company(w http.ResponseWriter, r *http.Request) {
	c, err := h.Settings.Company(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.CompanyResponse(c))
}

func (h *PublicHandler) SendContact(w http.ResponseWriter, r *http.Request) {
	var req dto.ContactRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.Contact.Send(r.Context(), req.Domain()); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusAccepted, dto.MessageResponse{Message: "thank you, we will be in touch"})
}

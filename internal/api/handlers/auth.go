package handlers

import (
	"net/http"

	"cargo-logistics-service/internal/api/dto"
	"cargo-logistics-service/internal/services"
)

// AuthHandler covers sign-in, the current session and password recovery.
type AuthHandler struct {
	Auth *services.AuthService
}

func session(s *services.Session) dto.SessionResponse {
	return dto.SessionResponse{Token: s.Token, ExpiresAt: s.ExpiresAt, User: dto.NewUser(*s.User)}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	s, err := h.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, session(s))
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	s, err := h.Auth.Register(r.Context(), services.Registration(req))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, session(s))
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, role, err := h.Auth.Me(r.Context(), PrincipalFrom(r.Context()))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.MeResponse{User: dto.NewUser(*u), Permissions: dto.NewRole(*role).Permissions})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Auth.Logout(r.Context(), PrincipalFrom(r.Context())); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.MessageResponse{Message: "logged out"})
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ChangePasswordRequest
	if !decode(w, r, &req) {
		return
	}
	err := h.Auth.ChangePassword(r.Context(), PrincipalFrom(r.Context()), req.CurrentPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.MessageResponse{Message: "password changed"})
}

// ForgotPassword answers the same way whether or not the email is known.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgotPasswordRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.Auth.ForgotPassword(r.Context(), req.Email); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.MessageResponse{Message: "if the email is registered, a code has been sent"})
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyOTPRequest
	if !decode(w, r, &req) {
		return
	}
	token, err := h.Auth.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.VerifyOTPResponse{ResetToken: token})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.Auth.ResetPassword(r.Context(), req.ResetToken, req.NewPassword, req.ConfirmPassword); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.MessageResponse{Message: "password reset"})
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req dto.ProfileRequest
	if !decode(w, r, &req) {
		return
	}
	u, err := h.Auth.UpdateProfile(r.Context(), PrincipalFrom(r.Context()), services.Profile(req))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewUser(*u))
}

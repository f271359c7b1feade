package handlers

import (
	"net/http"

	"cargo-logistics-service/internal/api/dto"
	"cargo-logistics-service/internal/domain"
	"cargo-logistics-service/internal/services"
)

type TeamHandler struct {
	Team *services.TeamService
}

func (h *TeamHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	lp, err := listParams(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	q := r.URL.Query()
	page, err := h.Team.ListUsers(r.Context(), domain.UserFilter{
		ListParams: lp,
		UserType:   q.Get("userType"),
		RoleID:     q.Get("roleId"),
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewList(page, dto.NewUser))
}

func (h *TeamHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	h.respondUser(w, r, http.StatusOK, r.PathValue("id"))
}

// respondUser reloads the user so the role name is filled in.
func (h *TeamHandler) respondUser(w http.ResponseWriter, r *http.Request, status int, id string) {
	u, err := h.Team.GetUser(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, status, dto.NewUser(*u))
}

func (h *TeamHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req dto.UserRequest
	if !decode(w, r, &req) {
		return
	}
	u := req.Domain()
	if err := h.Team.CreateUser(r.Context(), u, req.Password); err != nil {
		fail(w, r, err)
		return
	}
	h.respondUser(w, r, http.StatusCreated, u.ID)
}

// UpdateUser never changes the password; that goes through the auth flows.
func (h *TeamHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req dto.UserRequest
	if !decode(w, r, &req) {
		return
	}
	id := r.PathValue("id")
	if err := h.Team.UpdateUser(r.Context(), id, req.Domain()); err != nil {
		fail(w, r, err)
		return
	}
	h.respondUser(w, r, http.StatusOK, id)
}

func (h *TeamHandler) SetUserStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.StatusRequest
	if !decode(w, r, &req) {
		return
	}
	u, err := h.Team.SetUserStatus(r.Context(), PrincipalFrom(r.Context()), r.PathValue("id"), domain.UserStatus(req.Status))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewUser(*u))
}

func (h *TeamHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.Team.DeleteUser(r.Context(), PrincipalFrom(r.Context()), r.PathValue("id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TeamHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.Team.ListRoles(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.Map(roles, dto.NewRole))
}

func (h *TeamHandler) GetRole(w http.ResponseWriter, r *http.Request) {
	role, err := h.Team.GetRole(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewRole(*role))
}

func (h *TeamHandler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var req dto.RoleRequest
	if !decode(w, r, &req) {
		return
	}
	role := req.Domain()
	if err := h.Team.CreateRole(r.Context(), role); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.NewRole(*role))
}

func (h *TeamHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var req dto.RoleRequest
	if !decode(w, r, &req) {
		return
	}
	id := r.PathValue("id")
	if err := h.Team.UpdateRole(r.Context(), id, req.Domain()); err != nil {
		fail(w, r, err)
		return
	}
	h.GetRole(w, r)
}

func (h *TeamHandler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	if err := h.Team.DeleteRole(r.Context(), r.PathValue("id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TeamHandler) Permissions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, h.Team.Permissions())
}

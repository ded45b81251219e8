package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"usergate.org/internal/audit"
	"usergate.org/internal/user"
)

type createUserRequest struct {
	Name     string `json:"name"`
	LastName string `json:"last_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

type updateUserRequest struct {
	Name     string `json:"name"`
	LastName string `json:"last_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

const (
	roleAdmin = "ADMIN"
	roleUser  = "USER"
)

func (a *API) handleUsersCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createUser(w, r)
	case http.MethodGet:
		a.listUsers(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	externalID := strings.TrimPrefix(r.URL.Path, "/v1/users/")
	if externalID == "" || strings.Contains(externalID, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getUser(w, r, externalID)
	case http.MethodPut:
		a.updateUser(w, r, externalID)
	case http.MethodDelete:
		a.deleteUser(w, r, externalID)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) createUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAnyRole(w, r, roleAdmin); !ok {
		return
	}

	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.LastName) == "" {
		writeError(w, r, http.StatusBadRequest, "name and last_name are required")
		return
	}
	if strings.TrimSpace(req.Email) == "" || !strings.Contains(req.Email, "@") {
		writeError(w, r, http.StatusBadRequest, "a valid email is required")
		return
	}

	created, err := a.users.Create(r.Context(), user.CreateInput{
		Name:     req.Name,
		LastName: req.LastName,
		Email:    req.Email,
		Phone:    req.Phone,
	})
	if err != nil {
		handleKindError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "user.created", map[string]any{
		"external_id": created.ExternalID,
		"email":       created.Email,
	})

	w.Header().Set("Location", "/v1/users/"+created.ExternalID)
	writeJSON(w, http.StatusCreated, created)
}

func (a *API) getUser(w http.ResponseWriter, r *http.Request, externalID string) {
	if _, ok := a.requireAnyRole(w, r, roleAdmin, roleUser); !ok {
		return
	}

	u, err := a.users.GetByExternalID(r.Context(), externalID)
	if err != nil {
		handleKindError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (a *API) updateUser(w http.ResponseWriter, r *http.Request, externalID string) {
	principal, ok := a.requireAnyRole(w, r, roleAdmin, roleUser)
	if !ok {
		return
	}
	// non-admins may only update their own record
	if !principal.HasRole(roleAdmin) && principal.Subject != externalID {
		writeError(w, r, http.StatusForbidden, "permission denied")
		return
	}

	var req updateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.LastName) == "" {
		writeError(w, r, http.StatusBadRequest, "name and last_name are required")
		return
	}
	if strings.TrimSpace(req.Email) == "" || !strings.Contains(req.Email, "@") {
		writeError(w, r, http.StatusBadRequest, "a valid email is required")
		return
	}

	updated, err := a.users.Update(r.Context(), externalID, user.UpdateInput{
		Name:     req.Name,
		LastName: req.LastName,
		Email:    req.Email,
		Phone:    req.Phone,
	})
	if err != nil {
		handleKindError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "user.updated", map[string]any{
		"external_id": externalID,
	})
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) deleteUser(w http.ResponseWriter, r *http.Request, externalID string) {
	if _, ok := a.requireAnyRole(w, r, roleAdmin); !ok {
		return
	}

	if err := a.users.Delete(r.Context(), externalID); err != nil {
		handleKindError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "user.deleted", map[string]any{
		"external_id": externalID,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAnyRole(w, r, roleAdmin, roleUser); !ok {
		return
	}

	page, err := parseNonNegativeInt(r.URL.Query().Get("page"), 0)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "page must be a non-negative integer")
		return
	}
	size, err := parseNonNegativeInt(r.URL.Query().Get("size"), 0)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "size must be a non-negative integer")
		return
	}

	result, err := a.users.List(r.Context(), page, size)
	if err != nil {
		handleKindError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func parseNonNegativeInt(raw string, def int) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val < 0 {
		return 0, errors.New("must be a non-negative integer")
	}
	return val, nil
}

package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ivv-works/ivv-engine/pkg/apperrors"
	"github.com/ivv-works/ivv-engine/pkg/auth"
	"github.com/ivv-works/ivv-engine/pkg/services"
)

// parseUUID parses a UUID from a request body field.
func parseUUID(value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, apperrors.ErrValidation
	}
	return id, nil
}

// UserHandler serves admin user management and the activity feed.
type UserHandler struct {
	users  services.UserService
	logger *zap.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(users services.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger.Named("user-handler")}
}

// List returns all users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetIdentity(r.Context())

	users, err := h.users.List(r.Context(), actor)
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"users": users})
}

// SetRole changes a user's role.
func (h *UserHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetIdentity(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	user, err := h.users.SetRole(r.Context(), actor, id, req.Role)
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, user)
}

// SetActive activates or deactivates a user.
func (h *UserHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetIdentity(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	var req struct {
		Active bool `json:"active"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	user, err := h.users.SetActive(r.Context(), actor, id, req.Active)
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, user)
}

// Me returns the resolved caller's own record.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.GetIdentity(r.Context())
	if !ok {
		ErrorResponse(w, h.logger, apperrors.ErrAuthRequired)
		return
	}
	WriteJSON(w, http.StatusOK, actor)
}

// Activity returns the newest audit entries.
func (h *UserHandler) Activity(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetIdentity(r.Context())

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	entries, err := h.users.ListActivity(r.Context(), actor, limit)
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"activity": entries})
}

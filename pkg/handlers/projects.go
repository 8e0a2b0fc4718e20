package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ivv-works/ivv-engine/pkg/auth"
	"github.com/ivv-works/ivv-engine/pkg/services"
)

// ProjectHandler serves project management endpoints.
type ProjectHandler struct {
	projects services.ProjectService
	logger   *zap.Logger
}

// NewProjectHandler creates a new project handler.
func NewProjectHandler(projects services.ProjectService, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, logger: logger.Named("project-handler")}
}

// Create registers a new project.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetIdentity(r.Context())

	var input services.ProjectInput
	if err := DecodeJSON(r, &input); err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	project, err := h.projects.Create(r.Context(), actor, &input)
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusCreated, project)
}

// Update modifies an existing project.
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetIdentity(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	var input services.ProjectInput
	if err := DecodeJSON(r, &input); err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	project, err := h.projects.Update(r.Context(), actor, id, &input)
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, project)
}

// Delete removes a project and everything under it.
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetIdentity(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	if err := h.projects.Delete(r.Context(), actor, id); err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Get returns a single project.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetIdentity(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	project, err := h.projects.Get(r.Context(), actor, id)
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, project)
}

// List returns the actor's visible projects.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetIdentity(r.Context())

	projects, err := h.projects.List(r.Context(), actor)
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

// AddMember assigns a user to a project.
func (h *ProjectHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetIdentity(r.Context())

	projectID, err := pathID(r, "id")
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	var req struct {
		UserID string `json:"user_id"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}
	userID, err := parseUUID(req.UserID)
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	if err := h.projects.AddMember(r.Context(), actor, projectID, userID); err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveMember removes a user from a project.
func (h *ProjectHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetIdentity(r.Context())

	projectID, err := pathID(r, "id")
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}
	userID, err := pathID(r, "userID")
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	if err := h.projects.RemoveMember(r.Context(), actor, projectID, userID); err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListMembers returns a project's memberships.
func (h *ProjectHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetIdentity(r.Context())

	projectID, err := pathID(r, "id")
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	members, err := h.projects.ListMembers(r.Context(), actor, projectID)
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"members": members})
}

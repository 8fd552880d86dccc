package projects

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Vasu1712/scenyx-collab/internal/api"
	"github.com/Vasu1712/scenyx-collab/internal/models"
	"github.com/Vasu1712/scenyx-collab/internal/storage"
	"github.com/gorilla/mux"
)

// Collab is the part of the collaboration core the project routes use.
type Collab interface {
	EnableSharing(ctx context.Context, projectID, ownerID string) (*models.Project, error)
	DisableSharing(ctx context.Context, projectID, ownerID string) (*models.Project, error)
	SharedProject(ctx context.Context, projectID string) (*models.Project, error)
	Members(projectID string) []models.Participant
}

// ProjectHandler serves project documents, sharing and presence snapshots.
type ProjectHandler struct {
	Store  storage.SceneStore
	Collab Collab
	Logger *slog.Logger
}

func NewProjectHandler(store storage.SceneStore, collab Collab, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{
		Store:  store,
		Collab: collab,
		Logger: logger.With(slog.String("component", "api_projects")),
	}
}

func (h *ProjectHandler) fail(w http.ResponseWriter, op string, err error) {
	status := api.StatusFor(err)
	if status == http.StatusInternalServerError {
		h.Logger.Error(op+" failed", slog.Any("error", err))
		api.WriteError(w, status, "Failed to "+op)
		return
	}
	api.WriteError(w, status, err.Error())
}

// ListProjects handles GET /api/projects?ownerId=.
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("ownerId")
	if ownerID == "" {
		api.WriteError(w, http.StatusBadRequest, "ownerId is required")
		return
	}

	projects, err := h.Store.ListProjectsByOwner(r.Context(), ownerID)
	if err != nil {
		h.fail(w, "fetch projects", err)
		return
	}
	api.WriteJSON(w, http.StatusOK, projects)
}

// GetProject handles GET /api/projects/{id}.
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	project, err := h.Store.GetProject(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, "fetch project", err)
		return
	}
	if project == nil {
		api.WriteError(w, http.StatusNotFound, "Project not found")
		return
	}
	api.WriteJSON(w, http.StatusOK, project)
}

// CreateProject handles POST /api/projects.
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title   string `json:"title"`
		OwnerID string `json:"ownerId"`
	}
	if err := api.DecodeBody(r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	project, err := h.Store.CreateProject(r.Context(), req.Title, req.OwnerID)
	if err != nil {
		h.fail(w, "create project", err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, project)
}

// UpdateProject handles PUT /api/projects/{id}, the editor's autosave. Either
// field may be omitted.
func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req struct {
		Objects *[]models.SceneObject `json:"objects"`
		Camera  *models.Camera        `json:"camera"`
	}
	if err := api.DecodeBody(r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := r.Context()
	if req.Objects != nil {
		project, err := h.Store.ReplaceProjectObjects(ctx, id, *req.Objects)
		if err != nil {
			h.fail(w, "update project", err)
			return
		}
		if project == nil {
			api.WriteError(w, http.StatusNotFound, "Project not found")
			return
		}
	}
	if req.Camera != nil {
		ok, err := h.Store.ReplaceCamera(ctx, id, *req.Camera)
		if err != nil {
			h.fail(w, "update project", err)
			return
		}
		if !ok {
			api.WriteError(w, http.StatusNotFound, "Project not found")
			return
		}
	}

	h.GetProject(w, r)
}

// DeleteProject handles DELETE /api/projects/{id}.
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ok, err := h.Store.DeleteProject(r.Context(), id)
	if err != nil {
		h.fail(w, "delete project", err)
		return
	}
	if !ok {
		api.WriteError(w, http.StatusNotFound, "Project not found")
		return
	}
	h.Logger.Info("project deleted", slog.String("projectID", id))
	api.WriteJSON(w, http.StatusOK, map[string]string{"message": "Project deleted successfully"})
}

// EnableSharing handles POST /api/projects/{id}/share.
func (h *ProjectHandler) EnableSharing(w http.ResponseWriter, r *http.Request) {
	h.setSharing(w, r, true)
}

// DisableSharing handles DELETE /api/projects/{id}/share.
func (h *ProjectHandler) DisableSharing(w http.ResponseWriter, r *http.Request) {
	h.setSharing(w, r, false)
}

func (h *ProjectHandler) setSharing(w http.ResponseWriter, r *http.Request, shared bool) {
	var req struct {
		OwnerID string `json:"ownerId"`
	}
	if err := api.DecodeBody(r, &req); err != nil || req.OwnerID == "" {
		api.WriteError(w, http.StatusBadRequest, "Owner ID is required")
		return
	}

	id := mux.Vars(r)["id"]
	set := h.Collab.EnableSharing
	message := "Project sharing enabled"
	if !shared {
		set = h.Collab.DisableSharing
		message = "Project sharing disabled"
	}

	project, err := set(r.Context(), id, req.OwnerID)
	if err != nil {
		h.fail(w, "update sharing", err)
		return
	}
	if project == nil {
		api.WriteError(w, http.StatusNotFound, "Project not found or not owned by user")
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"message": message, "shared": shared})
}

// GetSharedProject handles GET /api/projects/{id}/shared.
func (h *ProjectHandler) GetSharedProject(w http.ResponseWriter, r *http.Request) {
	project, err := h.Collab.SharedProject(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, "fetch shared project", err)
		return
	}
	if project == nil {
		api.WriteError(w, http.StatusNotFound, "Shared project not found or not shared")
		return
	}
	api.WriteJSON(w, http.StatusOK, project)
}

// GetPresence handles GET /api/projects/{id}/presence.
func (h *ProjectHandler) GetPresence(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, h.Collab.Members(mux.Vars(r)["id"]))
}

package projects

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterProjectRoutes mounts the project routes under /api/projects.
func RegisterProjectRoutes(r *mux.Router, handler *ProjectHandler) {
	r.HandleFunc("/api/projects", handler.ListProjects).Methods(http.MethodGet)
	r.HandleFunc("/api/projects", handler.CreateProject).Methods(http.MethodPost)
	r.HandleFunc("/api/projects/{id}", handler.GetProject).Methods(http.MethodGet)
	r.HandleFunc("/api/projects/{id}", handler.UpdateProject).Methods(http.MethodPut)
	r.HandleFunc("/api/projects/{id}", handler.DeleteProject).Methods(http.MethodDelete)
	r.HandleFunc("/api/projects/{id}/share", handler.EnableSharing).Methods(http.MethodPost)
	r.HandleFunc("/api/projects/{id}/share", handler.DisableSharing).Methods(http.MethodDelete)
	r.HandleFunc("/api/projects/{id}/shared", handler.GetSharedProject).Methods(http.MethodGet)
	r.HandleFunc("/api/projects/{id}/presence", handler.GetPresence).Methods(http.MethodGet)
}

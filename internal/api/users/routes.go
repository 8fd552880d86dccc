package users

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterUserRoutes mounts the user routes under /api/users.
func RegisterUserRoutes(r *mux.Router, handler *UserHandler) {
	r.HandleFunc("/api/users", handler.ListUsers).Methods(http.MethodGet)
	r.HandleFunc("/api/users", handler.CreateUser).Methods(http.MethodPost)
	r.HandleFunc("/api/users/{id}", handler.GetUser).Methods(http.MethodGet)
	r.HandleFunc("/api/users/{id}", handler.UpdateUser).Methods(http.MethodPut)
	r.HandleFunc("/api/users/{id}", handler.DeleteUser).Methods(http.MethodDelete)
}

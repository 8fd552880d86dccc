package users

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Vasu1712/scenyx-collab/internal/api"
	"github.com/Vasu1712/scenyx-collab/internal/storage"
	"github.com/gorilla/mux"
)

type UserHandler struct {
	Store  storage.UserDirectory
	Logger *slog.Logger
}

func NewUserHandler(store storage.UserDirectory, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		Store:  store,
		Logger: logger.With(slog.String("component", "api_users")),
	}
}

// CreateUser handles POST /api/users. An existing name returns that user
// with 200; a new one is created with 201.
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := api.DecodeBody(r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		api.WriteError(w, http.StatusBadRequest, "Name is required")
		return
	}

	ctx := r.Context()
	existing, err := h.Store.FindByName(ctx, name)
	if err != nil {
		h.fail(w, err)
		return
	}
	if existing != nil {
		api.WriteJSON(w, http.StatusOK, existing)
		return
	}

	user, err := h.Store.CreateUser(ctx, name)
	if errors.Is(err, storage.ErrDuplicate) {
		// Created by a concurrent request between the lookup and the insert.
		user, err = h.Store.FindByName(ctx, name)
		if err == nil && user != nil {
			api.WriteJSON(w, http.StatusOK, user)
			return
		}
	}
	if err != nil || user == nil {
		h.fail(w, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, user)
}

// ListUsers handles GET /api/users.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Store.ListUsers(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, users)
}

// GetUser handles GET /api/users/{id}.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.Store.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}
	if user == nil {
		api.WriteError(w, http.StatusNotFound, "User not found")
		return
	}
	api.WriteJSON(w, http.StatusOK, user)
}

// UpdateUser handles PUT /api/users/{id}. Omitted fields keep their value.
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if err := api.DecodeBody(r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.Store.UpdateUser(r.Context(), mux.Vars(r)["id"], strings.TrimSpace(req.Name), strings.TrimSpace(req.Color))
	if errors.Is(err, storage.ErrDuplicate) {
		api.WriteError(w, http.StatusConflict, "Name is already taken")
		return
	}
	if err != nil {
		h.fail(w, err)
		return
	}
	if user == nil {
		api.WriteError(w, http.StatusNotFound, "User not found")
		return
	}
	api.WriteJSON(w, http.StatusOK, user)
}

// DeleteUser handles DELETE /api/users/{id}.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.Store.DeleteUser(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}
	if !deleted {
		api.WriteError(w, http.StatusNotFound, "User not found")
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}

func (h *UserHandler) fail(w http.ResponseWriter, err error) {
	if err == nil {
		err = storage.ErrNotFound
	}
	status := api.StatusFor(err)
	if status == http.StatusInternalServerError {
		h.Logger.Error("user request failed", slog.Any("error", err))
		api.WriteError(w, status, "Failed to process user request")
		return
	}
	api.WriteError(w, status, err.Error())
}

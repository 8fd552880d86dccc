package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// RoomStats reports live presence totals.
type RoomStats interface {
	RoomCount() int
	TotalParticipants() int
}

type healthResponse struct {
	Status            string    `json:"status"`
	Timestamp         time.Time `json:"timestamp"`
	Uptime            float64   `json:"uptime"`
	RoomCount         int       `json:"roomCount"`
	TotalParticipants int       `json:"totalParticipants"`
}

// RegisterHealthRoute mounts GET /api/health.
func RegisterHealthRoute(r *mux.Router, stats RoomStats, started time.Time) {
	r.HandleFunc("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, healthResponse{
			Status:            "OK",
			Timestamp:         time.Now().UTC(),
			Uptime:            time.Since(started).Seconds(),
			RoomCount:         stats.RoomCount(),
			TotalParticipants: stats.TotalParticipants(),
		})
	}).Methods(http.MethodGet)
}

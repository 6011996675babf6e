// Package statuspage exposes a small side-channel HTTP server reporting
// a running session's health and generation counter, separate from the
// simulation protocol's own TCP socket.
package statuspage

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

// SessionStatus is the subset of server.Session state worth reporting.
// It is a plain struct rather than an interface so the HTTP layer has no
// dependency on package server.
type SessionStatus struct {
	State      string `json:"state"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Sampling   int    `json:"sampling"`
	Generation int64  `json:"generation"`
}

// StatusFunc returns the current status, or ok=false if no session is
// active yet.
type StatusFunc func() (status SessionStatus, ok bool)

// New builds the status HTTP handler: GET /healthz always returns 200
// once the server is listening; GET /status reports the current session
// or 404 if none is connected.
func New(status StatusFunc) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	r.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		s, ok := status()
		if !ok {
			http.Error(w, "no active session", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(s)
	}).Methods(http.MethodGet)

	return r
}

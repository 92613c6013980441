// Package api exposes the journal over HTTP: anonymous user creation and
// per-secret entry listing and creation. The timeline mapping itself is
// client-side; this is the entry source and sink it talks to.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sadopc/pulse/internal/store"
)

// Server handles HTTP requests for the journal API.
type Server struct {
	store *store.Store
	addr  string
}

// New creates a new API server.
func New(s *store.Store, addr string) *Server {
	return &Server{store: s, addr: addr}
}

// Handler returns the route table; split from Run for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /users", s.createUser)
	mux.HandleFunc("GET /api/u/{secret}/entries", s.listEntries)
	mux.HandleFunc("POST /api/u/{secret}/entries", s.createEntry)
	mux.HandleFunc("GET /health", s.health)

	return withCORS(mux)
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	fmt.Printf("Starting server on %s\n", s.addr)
	return http.ListenAndServe(s.addr, s.Handler())
}

// withCORS adds CORS headers for frontend development
func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		h.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// UserResponse is the body returned for a freshly created user.
type UserResponse struct {
	SecretKey string `json:"secret_key"`
	CreatedAt string `json:"created_at"`
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.store.CreateUser()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, UserResponse{
		SecretKey: u.SecretKey,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// EntryRequest is the request body for creating an entry.
type EntryRequest struct {
	Timestamp   string  `json:"timestamp"`
	Description *string `json:"description,omitempty"`
	Energy      *int    `json:"energy,omitempty"`
}

// EntryResponse is one entry on the wire.
type EntryResponse struct {
	ID          int64   `json:"id"`
	Timestamp   string  `json:"timestamp"`
	Description *string `json:"description"`
	Energy      *int    `json:"energy"`
}

func toResponse(e store.Entry) EntryResponse {
	return EntryResponse{
		ID:          e.ID,
		Timestamp:   e.Timestamp.UTC().Format(time.RFC3339),
		Description: e.Description,
		Energy:      e.Energy,
	}
}

func (s *Server) userBySecret(w http.ResponseWriter, r *http.Request) *store.User {
	u, err := s.store.GetUserBySecret(r.PathValue("secret"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil
	}
	if u == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return nil
	}
	return u
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	u := s.userBySecret(w, r)
	if u == nil {
		return
	}

	entries, err := s.store.ListEntries(store.EntryFilter{UserID: &u.ID})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, toResponse(e))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) createEntry(w http.ResponseWriter, r *http.Request) {
	u := s.userBySecret(w, r)
	if u == nil {
		return
	}

	var req EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Malformed timestamps stop here; they must never reach the axis.
	ts, err := time.Parse(time.RFC3339, req.Timestamp)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid timestamp: %v", err))
		return
	}

	entry, err := s.store.CreateEntry(u.ID, ts, req.Description, req.Energy)
	if err == store.ErrEmptyEntry || err == store.ErrEnergyRange {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(*entry))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

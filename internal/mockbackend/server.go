// Package mockbackend is a stand-in enrichment service for local runs and
// end-to-end tests: a flag list, an ENS table and an interaction log behind
// the same HTTP surface the real backend exposes.
package mockbackend

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ensightlabs/walletfeed/internal/feed/backend"
)

type Server struct {
	mu           sync.Mutex
	flagged      map[string]int64 // addr -> lastUpdated (unix milli)
	names        map[string]string
	interactions []backend.Interaction
}

func NewServer() *Server {
	return &Server{
		flagged: make(map[string]int64),
		names:   make(map[string]string),
	}
}

// Flag marks an address as present on the blocklist.
func (s *Server) Flag(addr string) {
	s.mu.Lock()
	s.flagged[strings.ToLower(addr)] = time.Now().UnixMilli()
	s.mu.Unlock()
}

// SetName installs a reverse-lookup entry.
func (s *Server) SetName(addr, name string) {
	s.mu.Lock()
	s.names[strings.ToLower(addr)] = name
	s.mu.Unlock()
}

// Interactions returns a copy of everything recorded so far.
func (s *Server) Interactions() []backend.Interaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]backend.Interaction(nil), s.interactions...)
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/risk/address/", s.handleRisk)
	mux.HandleFunc("/api/ens/reverse/", s.handleReverse)
	mux.HandleFunc("/api/graph/interaction", s.handleInteraction)
	mux.HandleFunc("/api/graph/interactions", s.handleInteractions)
	return mux
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleRisk(w http.ResponseWriter, r *http.Request) {
	addr := strings.ToLower(strings.TrimPrefix(r.URL.Path, "/api/risk/address/"))
	if addr == "" {
		http.Error(w, "missing address", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	ts, ok := s.flagged[addr]
	s.mu.Unlock()

	resp := map[string]any{"flagged": ok, "lastUpdated": nil}
	if ok {
		resp["lastUpdated"] = ts
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReverse(w http.ResponseWriter, r *http.Request) {
	addr := strings.ToLower(strings.TrimPrefix(r.URL.Path, "/api/ens/reverse/"))
	s.mu.Lock()
	name, ok := s.names[addr]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "no name", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"address": addr,
		"name":    name,
		"success": true,
	})
}

func (s *Server) handleInteraction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var it backend.Interaction
	if err := json.NewDecoder(r.Body).Decode(&it); err != nil {
		http.Error(w, "bad interaction", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.interactions = append(s.interactions, it)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleInteractions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"interactions": s.Interactions()})
}

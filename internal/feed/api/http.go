// Package api serves the read-only snapshot surface consumed by the
// presentation layer.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/ensightlabs/walletfeed/internal/feed/aggregator"
)

type Server struct {
	agg *aggregator.Aggregator
}

func NewServer(agg *aggregator.Aggregator) *Server { return &Server{agg: agg} }

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/session/by-tab/", s.handleByTab)
	mux.HandleFunc("/session/active", s.handleActive)
	mux.HandleFunc("/session/last", s.handleLast)
	mux.HandleFunc("/sessions", s.handleAll)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return mux
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSnapshot(w http.ResponseWriter, raw []byte, ok bool) {
	if !ok {
		http.Error(w, "no session", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(raw)
}

func (s *Server) handleByTab(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/session/by-tab/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "bad tab id", http.StatusBadRequest)
		return
	}
	raw, ok := s.agg.Snapshot(r.Context(), id)
	writeSnapshot(w, raw, ok)
}

func (s *Server) handleActive(w http.ResponseWriter, r *http.Request) {
	raw, ok := s.agg.ActiveSnapshot(r.Context())
	writeSnapshot(w, raw, ok)
}

func (s *Server) handleLast(w http.ResponseWriter, r *http.Request) {
	raw, ok := s.agg.LastSnapshot(r.Context())
	writeSnapshot(w, raw, ok)
}

func (s *Server) handleAll(w http.ResponseWriter, r *http.Request) {
	all := s.agg.AllSnapshots(r.Context())
	if all == nil {
		all = []json.RawMessage{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": all})
}

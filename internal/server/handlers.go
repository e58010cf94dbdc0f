package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/salmonumbrella/outline-cli/internal/outline"
)

const maxIntentBytes = 1 << 20

type editResponse struct {
	Handled bool   `json:"handled"`
	Version uint64 `json:"version"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "version": s.Document().Version()})
}

// handleBlocks returns the flat sequence; ?visible=true filters out blocks
// hidden by collapsed toggles.
func (s *Server) handleBlocks(w http.ResponseWriter, r *http.Request) {
	doc := s.Document()
	blocks := doc.Blocks()
	if r.URL.Query().Get("visible") == "true" {
		blocks = doc.VisibleBlocks()
	}
	writeJSON(w, http.StatusOK, map[string]any{"version": doc.Version(), "blocks": blocks})
}

func (s *Server) handleVisible(w http.ResponseWriter, r *http.Request) {
	doc := s.Document()
	key := chi.URLParam(r, "key")
	if _, ok := doc.Block(key); !ok {
		jsonError(w, outline.NotFoundError{Key: key}.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"key": key, "visible": doc.IsVisible(key)})
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	doc := s.Document()
	writeJSON(w, http.StatusOK, map[string]any{"version": doc.Version(), "tree": doc.Forest().View()})
}

func (s *Server) handleParents(w http.ResponseWriter, r *http.Request) {
	doc := s.Document()
	writeJSON(w, http.StatusOK, map[string]any{"version": doc.Version(), "parents": doc.ParentMap()})
}

// handleEdit applies one intent. Edits that do not apply are reported with
// handled=false and a 200.
func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	var in outline.Intent
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxIntentBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		jsonError(w, "invalid intent: "+err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, handled, err := outline.Apply(s.doc, in)
	if err != nil {
		jsonError(w, err.Error(), statusFor(err))
		return
	}
	if handled && s.persist != nil {
		if err := s.persist(next); err != nil {
			s.log.Error("persist failed", "op", in.Op, "error", err)
			jsonError(w, "failed to save document: "+err.Error(), http.StatusInternalServerError)
			return
		}
	}
	s.doc = next
	s.log.Debug("edit", "op", in.Op, "handled", handled, "version", next.Version())

	writeJSON(w, http.StatusOK, editResponse{Handled: handled, Version: next.Version()})
}

func statusFor(err error) int {
	var nf outline.NotFoundError
	if errors.As(err, &nf) {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

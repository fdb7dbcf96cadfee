package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// handleListChunks returns a bounded preview of the chunks stored in a
// collection, for debugging ingested data.
func (s *Server) handleListChunks(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			jsonError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	payload, meta, err := s.engine.BuildChunkListing(r.Context(), name, limit)
	if err != nil {
		s.writeEngineError(w, r, "chunks", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "completed",
		"payload": payload,
		"meta":    meta,
	})
}

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hardytee1/LED-Automation/internal/output"
)

// OutputRequest is the body of POST /reports/{reportUUID}/outputs/{outputType}.
type OutputRequest struct {
	JobKey   string         `json:"job_key"`
	ReportID int            `json:"report_id"`
	UserID   int            `json:"user_id"`
	Metadata map[string]any `json:"metadata"`
}

func (s *Server) handleGenerateOutput(w http.ResponseWriter, r *http.Request) {
	reportUUID, err := uuid.Parse(chi.URLParam(r, "reportUUID"))
	if err != nil {
		jsonError(w, "Invalid report UUID.", http.StatusUnprocessableEntity)
		return
	}

	var req OutputRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	outputType := strings.ToLower(chi.URLParam(r, "outputType"))
	var payload, builderMeta map[string]any
	switch outputType {
	case "penetapan":
		payload, builderMeta, err = s.engine.BuildPenetapan(r.Context(), reportUUID.String(), req.Metadata)
	case "pelaksanaan":
		payload, builderMeta, err = s.engine.BuildPelaksanaan(r.Context(), reportUUID.String(), req.Metadata)
	default:
		jsonError(w, fmt.Sprintf("Unsupported output type '%s'.", outputType), http.StatusUnprocessableEntity)
		return
	}
	if err != nil {
		s.writeEngineError(w, r, outputType, err)
		return
	}

	meta := map[string]any{
		"generated_at": time.Now().UTC().Format(time.RFC3339),
		"job_key":      req.JobKey,
		"report_id":    req.ReportID,
		"user_id":      req.UserID,
		"output_type":  outputType,
	}
	for k, v := range builderMeta {
		meta[k] = v
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "completed",
		"payload": payload,
		"meta":    meta,
	})
}

// writeEngineError maps typed engine errors to HTTP status codes.
func (s *Server) writeEngineError(w http.ResponseWriter, r *http.Request, outputType string, err error) {
	switch {
	case output.IsNotFound(err):
		jsonError(w, err.Error(), http.StatusNotFound)
	case output.IsUnprocessable(err):
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		s.log.Error("output generation failed", "output_type", outputType, "path", r.URL.Path, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

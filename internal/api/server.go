package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hardytee1/LED-Automation/internal/config"
	"github.com/hardytee1/LED-Automation/internal/embedding"
	"github.com/hardytee1/LED-Automation/internal/ingest"
	"github.com/hardytee1/LED-Automation/internal/output"
)

// Server is the HTTP API for report output generation and archive ingestion.
type Server struct {
	router       chi.Router
	engine       *output.Engine
	orchestrator *ingest.Orchestrator
	embedStats   *embedding.EmbedStats
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(engine *output.Engine, orch *ingest.Orchestrator, stats *embedding.EmbedStats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		engine:       engine,
		orchestrator: orch,
		embedStats:   stats,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Endpoints behind bearer auth when a token is configured.
	r.Group(func(r chi.Router) {
		if s.cfg.AutomationToken != "" {
			r.Use(AuthMiddleware(s.cfg.AutomationToken, s.log))
		}

		r.Post("/reports/{reportUUID}/outputs/{outputType}", s.handleGenerateOutput)

		r.Post("/api/ingest", s.handleIngest)
		r.Get("/api/ingest/{jobID}/status", s.handleIngestStatus)

		r.Get("/api/collections/{name}/chunks", s.handleListChunks)
		r.Get("/api/stats/embedding", s.handleEmbeddingStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

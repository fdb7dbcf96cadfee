package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hardytee1/LED-Automation/internal/api"
	"github.com/hardytee1/LED-Automation/internal/config"
	"github.com/hardytee1/LED-Automation/internal/embedding"
	"github.com/hardytee1/LED-Automation/internal/ingest"
	"github.com/hardytee1/LED-Automation/internal/output"
	"github.com/hardytee1/LED-Automation/internal/qdrant"
	"github.com/hardytee1/LED-Automation/internal/vectorstore"
)

func main() {
	// Missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg := config.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients.
	embedStats := embedding.NewEmbedStats(15 * time.Minute)
	embedder := embedding.NewClient(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel, embedStats)
	qc := qdrant.NewClient(cfg.QdrantURL, cfg.QdrantAPIKey)
	store := vectorstore.NewQdrantStore(qc, embedder, cfg.EmbedBatchSize, log)

	// Output engine.
	engine := output.NewEngine(store, cfg, log)

	// Ingestion pipeline.
	notifier := ingest.NewNotifier()
	orch := ingest.NewOrchestrator(cfg, store, notifier, log)
	orch.Start(ctx)

	// HTTP server.
	srv := api.NewServer(engine, orch, embedStats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		embedder.Close()
		qc.Close()
		notifier.Close()
	}()

	log.Info("starting led-automation", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

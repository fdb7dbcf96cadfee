package output

import (
	"log/slog"

	"github.com/hardytee1/LED-Automation/internal/config"
	"github.com/hardytee1/LED-Automation/internal/vectorstore"
)

// Engine builds the penetapan and pelaksanaan report outputs from stored
// chunk collections. It is request-scoped in behavior: every build call reads
// the store fresh and keeps no state between calls. Configuration is fixed at
// construction.
type Engine struct {
	store vectorstore.Store
	cfg   config.Config
	log   *slog.Logger
}

func NewEngine(store vectorstore.Store, cfg config.Config, log *slog.Logger) *Engine {
	return &Engine{
		store: store,
		cfg:   cfg,
		log:   log,
	}
}

// pruneMeta removes nil values and empty collections so the response envelope
// only carries meaningful metadata.
func pruneMeta(meta map[string]any) map[string]any {
	for key, value := range meta {
		switch v := value.(type) {
		case nil:
			delete(meta, key)
		case string:
			if v == "" {
				delete(meta, key)
			}
		case []string:
			if len(v) == 0 {
				delete(meta, key)
			}
		case []any:
			if len(v) == 0 {
				delete(meta, key)
			}
		case []int:
			if len(v) == 0 {
				delete(meta, key)
			}
		case map[string]any:
			if len(v) == 0 {
				delete(meta, key)
			}
		}
	}
	return meta
}

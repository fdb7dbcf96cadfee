package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// SectionPair names the two collections queried while a section is active:
// the historical reference collection and the new-reference collection.
type SectionPair struct {
	Reference    string `yaml:"reference" json:"reference"`
	NewReference string `yaml:"new_reference" json:"new_reference"`
}

type Config struct {
	Port     string
	LogLevel string

	// Qdrant connection
	QdrantURL    string
	QdrantAPIKey string

	// Embedding service (OpenAI-compatible)
	EmbeddingBaseURL string
	EmbeddingAPIKey  string
	EmbeddingModel   string
	EmbedBatchSize   int

	// Auth
	AutomationToken string

	// Output defaults
	DocumentCollection  string
	HyperlinkCollection string
	HyperlinkSuffix     string

	PenetapanAllowedOrders   []int
	PelaksanaanAllowedOrders []int

	SimilarityThreshold float64
	ChunkSize           int
	ChunkOverlap        int
	SectionCollections  map[int]SectionPair
	ReferenceTopK       int
	NestedReferenceTopK int
	ResultLimit         int

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Ingestion chunking
	IngestChunkSize    int
	IngestChunkOverlap int

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port:     envOr("PORT", "8000"),
		LogLevel: envOr("LOG_LEVEL", "info"),

		QdrantURL:    envOr("QDRANT_URL", "http://localhost:6333"),
		QdrantAPIKey: os.Getenv("QDRANT_API_KEY"),

		EmbeddingBaseURL: envOr("EMBEDDING_BASE_URL", "http://localhost:8081/v1"),
		EmbeddingAPIKey:  os.Getenv("EMBEDDING_API_KEY"),
		EmbeddingModel:   envOr("EMBEDDING_MODEL", "denaya/indosbert-large"),
		EmbedBatchSize:   envInt("EMBED_BATCH_SIZE", 32),

		AutomationToken: os.Getenv("AUTOMATION_SERVICE_TOKEN"),

		DocumentCollection:  envOr("RAG_DOCUMENT_COLLECTION", "denaya_rka_past_documents"),
		HyperlinkCollection: envOr("RAG_HYPERLINK_COLLECTION", "denaya_rka_past_documents_hyperlink"),
		HyperlinkSuffix:     envOr("HYPERLINK_COLLECTION_SUFFIX", "-hyperlink"),

		PenetapanAllowedOrders:   envIntList("PENETAPAN_ALLOWED_ORDERS", []int{0, 5, 10, 15, 20, 25, 30, 35, 40}),
		PelaksanaanAllowedOrders: envIntList("PELAKSANAAN_ALLOWED_ORDERS", []int{1, 6, 11, 16, 21, 26, 31, 36, 41}),

		SimilarityThreshold: envFloat("SIMILARITY_THRESHOLD", 0.6),
		ChunkSize:           envInt("PELAKSANAAN_CHUNK_SIZE", 1000),
		ChunkOverlap:        envInt("PELAKSANAAN_CHUNK_OVERLAP", 200),
		SectionCollections:  loadSectionCollections(),
		ReferenceTopK:       envInt("REFERENCE_TOP_K", 1),
		NestedReferenceTopK: envInt("NESTED_REFERENCE_TOP_K", 1),
		ResultLimit:         envInt("OUTPUT_RESULT_LIMIT", 8),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 104857600), // 100MB

		IngestChunkSize:    envInt("INGEST_CHUNK_SIZE", 1000),
		IngestChunkOverlap: envInt("INGEST_CHUNK_OVERLAP", 200),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 104857600
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1000
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = 0
	}
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = cfg.ChunkSize - 1
	}
	if cfg.IngestChunkSize <= 0 {
		cfg.IngestChunkSize = 1000
	}
	if cfg.IngestChunkOverlap < 0 {
		cfg.IngestChunkOverlap = 0
	}
	if cfg.IngestChunkOverlap >= cfg.IngestChunkSize {
		cfg.IngestChunkOverlap = cfg.IngestChunkSize - 1
	}
	if cfg.ReferenceTopK < 1 {
		cfg.ReferenceTopK = 1
	}
	if cfg.NestedReferenceTopK < 1 {
		cfg.NestedReferenceTopK = 1
	}
	if cfg.ResultLimit <= 0 {
		cfg.ResultLimit = 8
	}
	if cfg.EmbedBatchSize <= 0 {
		cfg.EmbedBatchSize = 32
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.QdrantURL == "" {
		return fmt.Errorf("QDRANT_URL is required")
	}
	if c.EmbeddingBaseURL == "" {
		return fmt.Errorf("EMBEDDING_BASE_URL is required")
	}
	if c.EmbeddingModel == "" {
		return fmt.Errorf("EMBEDDING_MODEL is required")
	}
	if c.DocumentCollection == "" {
		return fmt.Errorf("RAG_DOCUMENT_COLLECTION is required")
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("SIMILARITY_THRESHOLD must be in [0,1], got %v", c.SimilarityThreshold)
	}
	for key, pair := range c.SectionCollections {
		if key < 0 {
			return fmt.Errorf("section collection key must be non-negative, got %d", key)
		}
		if pair.Reference == "" || pair.NewReference == "" {
			return fmt.Errorf("section collection %d has an empty collection name", key)
		}
	}
	return nil
}

// DefaultSectionCollections is the stored contract for pelaksanaan section
// routing. Key 1 is intentionally absent, mirroring the historical data.
func DefaultSectionCollections() map[int]SectionPair {
	return map[int]SectionPair{
		0: {Reference: "denaya_rka_2_1", NewReference: "denaya_rpl_2_1"},
		2: {Reference: "denaya_rka_2_2", NewReference: "denaya_rpl_2_2"},
		3: {Reference: "denaya_rka_2_3", NewReference: "denaya_rpl_2_3"},
		4: {Reference: "denaya_rka_2_4", NewReference: "denaya_rpl_2_4"},
		5: {Reference: "denaya_rka_2_5", NewReference: "denaya_rpl_2_5"},
		6: {Reference: "denaya_rka_2_6", NewReference: "denaya_rpl_2_6"},
		7: {Reference: "denaya_rka_2_7", NewReference: "denaya_rpl_2_7"},
		8: {Reference: "denaya_rka_2_8", NewReference: "denaya_rpl_2_8"},
		9: {Reference: "denaya_rka_2_9", NewReference: "denaya_rpl_2_9"},
	}
}

func loadSectionCollections() map[int]SectionPair {
	if path := os.Getenv("SECTION_COLLECTIONS_FILE"); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			var raw map[string]any
			if yaml.Unmarshal(data, &raw) == nil {
				if parsed, ok := ParseSectionCollections(raw); ok {
					return parsed
				}
			}
		}
	}
	if v := os.Getenv("PELAKSANAAN_SECTION_COLLECTIONS"); v != "" {
		if parsed, ok := ParseSectionCollections(v); ok {
			return parsed
		}
	}
	return DefaultSectionCollections()
}

// ParseSectionCollections accepts the flexible section-mapping shapes seen in
// stored overrides: a JSON string, a map keyed by index, or a positional list.
// Pair values may be a two-element list, a map with reference/new keys (rka and
// rpl aliases included), or a "reference|new" string. Returns false when the
// input cannot be understood or yields no entries.
func ParseSectionCollections(raw any) (map[int]SectionPair, bool) {
	if raw == nil {
		return nil, false
	}
	if s, ok := raw.(string); ok {
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			return nil, false
		}
		var decoded any
		if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
			return nil, false
		}
		return ParseSectionCollections(decoded)
	}

	out := make(map[int]SectionPair)
	switch v := raw.(type) {
	case map[string]any:
		for key, value := range v {
			idx, err := strconv.Atoi(strings.TrimSpace(key))
			if err != nil {
				return nil, false
			}
			pair, ok := parseSectionPair(value)
			if !ok {
				return nil, false
			}
			out[idx] = pair
		}
	case map[int]any:
		for key, value := range v {
			pair, ok := parseSectionPair(value)
			if !ok {
				return nil, false
			}
			out[key] = pair
		}
	case []any:
		for idx, value := range v {
			pair, ok := parseSectionPair(value)
			if !ok {
				return nil, false
			}
			out[idx] = pair
		}
	default:
		return nil, false
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

func parseSectionPair(raw any) (SectionPair, bool) {
	switch v := raw.(type) {
	case []any:
		if len(v) != 2 {
			return SectionPair{}, false
		}
		ref, ok1 := stringValue(v[0])
		nref, ok2 := stringValue(v[1])
		if !ok1 || !ok2 || ref == "" || nref == "" {
			return SectionPair{}, false
		}
		return SectionPair{Reference: ref, NewReference: nref}, true
	case map[string]any:
		ref := firstString(v, "reference", "reference_collection", "rka", "source")
		nref := firstString(v, "new", "new_collection", "rpl", "target")
		if ref == "" || nref == "" {
			return SectionPair{}, false
		}
		return SectionPair{Reference: ref, NewReference: nref}, true
	case string:
		parts := strings.SplitN(v, "|", 2)
		if len(parts) != 2 {
			return SectionPair{}, false
		}
		ref := strings.TrimSpace(parts[0])
		nref := strings.TrimSpace(parts[1])
		if ref == "" || nref == "" {
			return SectionPair{}, false
		}
		return SectionPair{Reference: ref, NewReference: nref}, true
	}
	return SectionPair{}, false
}

func stringValue(raw any) (string, bool) {
	s, ok := raw.(string)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(s), true
}

func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := m[key]; ok {
			if s, ok := stringValue(v); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// SectionKeys returns the mapping's keys in ascending order.
func SectionKeys(m map[int]SectionPair) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envIntList parses a comma-separated integer list. Items that fail to parse
// are skipped; an empty result falls back to the default list.
func envIntList(key string, fallback []int) []int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []int
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if n, err := strconv.Atoi(part); err == nil {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

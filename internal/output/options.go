package output

import (
	"context"
	"path"
	"strconv"
	"strings"

	"github.com/hardytee1/LED-Automation/internal/config"
)

// Options is the per-request configuration bag. Every field is optional:
// unset or malformed values fall back to the process defaults (logged, never
// fatal). Request metadata maps are decoded into this shape before building.
type Options struct {
	AllowedOrders       map[int]bool
	DocumentCollection  string
	HyperlinkCollection string
	SimilarityThreshold float64
	ReferenceFiles      []string
	SectionCollections  map[int]config.SectionPair
	ReferenceTopK       int
	NestedTopK          int
	IncludeDebug        bool
}

// penetapanOptions resolves the penetapan option set from request metadata
// over the configured defaults.
func (e *Engine) penetapanOptions(reportID string, metadata map[string]any) Options {
	opts := Options{
		DocumentCollection:  e.cfg.DocumentCollection,
		HyperlinkCollection: e.cfg.HyperlinkCollection,
		SimilarityThreshold: e.cfg.SimilarityThreshold,
	}
	if opts.DocumentCollection == "" {
		opts.DocumentCollection = reportID
	}
	if v, ok := stringOverride(metadata, "document_collection"); ok {
		opts.DocumentCollection = v
	}
	if opts.HyperlinkCollection == "" {
		opts.HyperlinkCollection = opts.DocumentCollection + e.cfg.HyperlinkSuffix
	}
	if v, ok := stringOverride(metadata, "hyperlink_collection"); ok {
		opts.HyperlinkCollection = v
	}
	opts.AllowedOrders = e.coerceAllowedOrders(metadata["allowed_orders"], e.cfg.PenetapanAllowedOrders)
	if raw, ok := metadata["similarity_threshold"]; ok {
		if f, ok := coerceFloat(raw); ok {
			opts.SimilarityThreshold = f
		} else {
			e.log.Warn("invalid similarity_threshold override, using default",
				"value", raw, "default", e.cfg.SimilarityThreshold)
		}
	}
	opts.ReferenceFiles = coerceReferenceFiles(metadata)
	return opts
}

// pelaksanaanOptions resolves the pelaksanaan option set. Pelaksanaan-prefixed
// keys take precedence over the shared ones.
func (e *Engine) pelaksanaanOptions(reportID string, metadata map[string]any) Options {
	opts := Options{
		DocumentCollection:  e.cfg.DocumentCollection,
		HyperlinkCollection: e.cfg.HyperlinkCollection,
		ReferenceTopK:       e.cfg.ReferenceTopK,
		NestedTopK:          e.cfg.NestedReferenceTopK,
	}
	if opts.DocumentCollection == "" {
		opts.DocumentCollection = reportID
	}
	if v, ok := stringOverride(metadata, "pelaksanaan_document_collection", "document_collection"); ok {
		opts.DocumentCollection = v
	}
	if opts.HyperlinkCollection == "" {
		opts.HyperlinkCollection = opts.DocumentCollection + e.cfg.HyperlinkSuffix
	}
	if v, ok := stringOverride(metadata, "pelaksanaan_hyperlink_collection", "hyperlink_collection"); ok {
		opts.HyperlinkCollection = v
	}
	opts.AllowedOrders = e.coerceAllowedOrders(
		firstPresent(metadata, "pelaksanaan_allowed_orders", "allowed_orders"),
		e.cfg.PelaksanaanAllowedOrders,
	)
	opts.SectionCollections = e.coerceSectionCollections(
		firstPresent(metadata, "pelaksanaan_section_collections", "section_collections"),
	)
	opts.ReferenceTopK = e.coerceTopK(
		firstPresent(metadata, "reference_top_k", "pelaksanaan_reference_top_k"),
		e.cfg.ReferenceTopK,
	)
	opts.NestedTopK = e.coerceTopK(
		firstPresent(metadata, "nested_reference_top_k", "pelaksanaan_nested_reference_top_k"),
		e.cfg.NestedReferenceTopK,
	)
	if v, ok := metadata["include_debug"].(bool); ok {
		opts.IncludeDebug = v
	}
	return opts
}

// coerceAllowedOrders accepts an integer list or a comma-separated string.
// Items that fail to parse are skipped; an empty result keeps the default.
func (e *Engine) coerceAllowedOrders(raw any, fallback []int) map[int]bool {
	defaultSet := func() map[int]bool {
		set := make(map[int]bool, len(fallback))
		for _, n := range fallback {
			set[n] = true
		}
		return set
	}
	if raw == nil {
		return defaultSet()
	}

	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case []int:
		for _, n := range v {
			items = append(items, n)
		}
	case string:
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
	default:
		e.log.Warn("unsupported allowed_orders override, using default", "value", raw)
		return defaultSet()
	}

	set := make(map[int]bool)
	for _, item := range items {
		if n, ok := coerceInt(item); ok {
			set[n] = true
		}
	}
	if len(set) == 0 {
		return defaultSet()
	}
	return set
}

// coerceSectionCollections parses the flexible override shapes; any failure
// keeps the configured mapping.
func (e *Engine) coerceSectionCollections(raw any) map[int]config.SectionPair {
	if raw == nil {
		return e.cfg.SectionCollections
	}
	if parsed, ok := config.ParseSectionCollections(raw); ok {
		return parsed
	}
	e.log.Warn("invalid section collections override, using default", "value", raw)
	return e.cfg.SectionCollections
}

func (e *Engine) coerceTopK(raw any, fallback int) int {
	if fallback < 1 {
		fallback = 1
	}
	if raw == nil {
		return fallback
	}
	n, ok := coerceInt(raw)
	if !ok {
		e.log.Warn("invalid top-k override, using default", "value", raw, "default", fallback)
		return fallback
	}
	if n < 1 {
		return 1
	}
	return n
}

// coerceReferenceFiles reads an explicit filename list from the request
// metadata: a string list or a comma-separated string, under any of the
// accepted keys.
func coerceReferenceFiles(metadata map[string]any) []string {
	raw := firstPresent(metadata, "reference_files", "reference_filenames", "files")
	if raw == nil {
		return nil
	}
	var out []string
	switch v := raw.(type) {
	case string:
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
	case []string:
		for _, s := range v {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// discoverReferenceFiles returns the explicit filename list when the request
// supplied one, otherwise scans the report's own collection and collects the
// base name of each chunk's source, deduplicated in first-seen order.
func (e *Engine) discoverReferenceFiles(ctx context.Context, reportID string, metadata map[string]any) []string {
	if explicit := coerceReferenceFiles(metadata); len(explicit) > 0 {
		return explicit
	}

	chunks, err := e.store.Scan(ctx, reportID, false)
	if err != nil {
		e.log.Warn("reference file discovery failed", "collection", reportID, "error", err)
		return nil
	}
	var filenames []string
	seen := make(map[string]bool)
	for _, chunk := range chunks {
		source := chunkSource(chunk)
		if source == "" {
			continue
		}
		filename := path.Base(source)
		if filename == "." || filename == "/" {
			filename = source
		}
		if filename != "" && !seen[filename] {
			seen[filename] = true
			filenames = append(filenames, filename)
		}
	}
	if len(filenames) == 0 {
		e.log.Info("no reference filenames discovered", "collection", reportID)
	}
	return filenames
}

func coerceFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func stringOverride(metadata map[string]any, keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := metadata[key].(string); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v, true
			}
		}
	}
	return "", false
}

func firstPresent(metadata map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := metadata[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

package output

import (
	"context"
	"errors"
	"fmt"

	"github.com/hardytee1/LED-Automation/internal/vectorstore"
)

// ChunkPreview is one stored chunk shaped for inspection, with the content
// truncated to a short segment.
type ChunkPreview struct {
	ID       string         `json:"id"`
	Source   string         `json:"source,omitempty"`
	Segment  string         `json:"segment"`
	Metadata map[string]any `json:"metadata"`
}

const previewSegmentRunes = 500

// BuildChunkListing returns a limit-bounded preview of a collection's chunks
// together with the exact stored count.
func (e *Engine) BuildChunkListing(ctx context.Context, collection string, limit int) (map[string]any, map[string]any, error) {
	if limit <= 0 {
		limit = e.cfg.ResultLimit
	}

	chunks, err := e.store.Scan(ctx, collection, true)
	if err != nil {
		if errors.Is(err, vectorstore.ErrCollectionNotFound) {
			return nil, nil, notFoundf(fmt.Sprintf("Collection '%s' not found", collection))
		}
		return nil, nil, fmt.Errorf("scan collection: %w", err)
	}
	if len(chunks) == 0 {
		return nil, nil, notFoundf("No chunks stored for this report")
	}

	total, err := e.store.Count(ctx, collection)
	if err != nil {
		return nil, nil, fmt.Errorf("count collection: %w", err)
	}

	if len(chunks) > limit {
		chunks = chunks[:limit]
	}
	previews := make([]ChunkPreview, 0, len(chunks))
	for _, chunk := range chunks {
		previews = append(previews, ChunkPreview{
			ID:       chunk.ID,
			Source:   chunkSource(chunk),
			Segment:  truncateRunes(chunkText(chunk), previewSegmentRunes),
			Metadata: previewMetadata(chunk),
		})
	}

	payload := map[string]any{
		"summary": fmt.Sprintf("Retrieved %d reference chunks for review.", len(previews)),
		"results": previews,
	}
	meta := map[string]any{
		"chunks_returned": len(previews),
		"total_chunks":    total,
		"result_limit":    limit,
	}
	return payload, meta, nil
}

// previewMetadata copies the payload minus the content fields.
func previewMetadata(chunk vectorstore.Chunk) map[string]any {
	out := make(map[string]any)
	for key, value := range chunk.Payload {
		if key == "page_content" || key == "text" {
			continue
		}
		out[key] = value
	}
	return out
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

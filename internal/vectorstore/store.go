package vectorstore

import (
	"context"
	"errors"
)

// ErrCollectionNotFound reports that a collection required by the caller is
// absent from the backing store.
var ErrCollectionNotFound = errors.New("collection not found")

// Chunk is a stored content chunk. The payload is owned by the store response
// and treated as immutable by callers.
type Chunk struct {
	ID      string
	Text    string
	Payload map[string]any
}

// Metadata returns the payload's metadata sub-map, or nil when absent.
func (c Chunk) Metadata() map[string]any {
	if c.Payload == nil {
		return nil
	}
	if meta, ok := c.Payload["metadata"].(map[string]any); ok {
		return meta
	}
	return nil
}

// ScoredChunk is a similarity hit with its relevance score.
type ScoredChunk struct {
	Chunk
	Score float64
}

// Store is read access to named chunk collections.
//
// Scan with required=true fails with ErrCollectionNotFound when the collection
// is absent; with required=false an absent collection yields an empty result.
type Store interface {
	Scan(ctx context.Context, collection string, required bool) ([]Chunk, error)
	SimilarityQuery(ctx context.Context, collection, queryText string, k int) ([]ScoredChunk, error)
	Exists(ctx context.Context, collection string) (bool, error)
	Count(ctx context.Context, collection string) (int, error)
}

// Document is a to-be-stored chunk produced by ingestion.
type Document struct {
	Text     string
	Metadata map[string]any
}

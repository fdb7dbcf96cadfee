package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hardytee1/LED-Automation/internal/embedding"
	"github.com/hardytee1/LED-Automation/internal/qdrant"
)

const scrollPageSize = 256

// QdrantStore joins the Qdrant REST client with an embedder to provide
// text-addressed reads and ingestion writes.
type QdrantStore struct {
	client    *qdrant.Client
	embedder  embedding.Embedder
	batchSize int
	logger    *slog.Logger
}

func NewQdrantStore(client *qdrant.Client, embedder embedding.Embedder, batchSize int, logger *slog.Logger) *QdrantStore {
	if batchSize <= 0 {
		batchSize = 32
	}
	return &QdrantStore{
		client:    client,
		embedder:  embedder,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Scan pages through every point in the collection.
func (s *QdrantStore) Scan(ctx context.Context, collection string, required bool) ([]Chunk, error) {
	var chunks []Chunk
	var offset any
	for {
		records, next, err := s.client.Scroll(ctx, collection, scrollPageSize, offset)
		if err != nil {
			if errors.Is(err, qdrant.ErrNotFound) {
				if required {
					return nil, fmt.Errorf("collection %q: %w", collection, ErrCollectionNotFound)
				}
				s.logger.Warn("optional collection missing, returning empty", "collection", collection)
				return nil, nil
			}
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		for _, record := range records {
			chunks = append(chunks, recordToChunk(record.ID, record.Payload))
		}
		if next == nil {
			return chunks, nil
		}
		offset = next
	}
}

// SimilarityQuery embeds the query text and returns the k nearest chunks.
func (s *QdrantStore) SimilarityQuery(ctx context.Context, collection, queryText string, k int) ([]ScoredChunk, error) {
	vectors, err := s.embedder.Embed(ctx, []string{queryText})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embed query: no vector returned")
	}

	hits, err := s.client.Search(ctx, collection, vectors[0], k)
	if err != nil {
		if errors.Is(err, qdrant.ErrNotFound) {
			return nil, fmt.Errorf("collection %q: %w", collection, ErrCollectionNotFound)
		}
		return nil, fmt.Errorf("similarity query %s: %w", collection, err)
	}

	results := make([]ScoredChunk, 0, len(hits))
	for _, hit := range hits {
		results = append(results, ScoredChunk{
			Chunk: recordToChunk(hit.ID, hit.Payload),
			Score: hit.Score,
		})
	}
	return results, nil
}

func (s *QdrantStore) Exists(ctx context.Context, collection string) (bool, error) {
	return s.client.Exists(ctx, collection)
}

func (s *QdrantStore) Count(ctx context.Context, collection string) (int, error) {
	count, err := s.client.Count(ctx, collection)
	if err != nil {
		if errors.Is(err, qdrant.ErrNotFound) {
			return 0, fmt.Errorf("collection %q: %w", collection, ErrCollectionNotFound)
		}
		return 0, err
	}
	return count, nil
}

// EnsureCollection creates the collection when missing, sized to the
// embedder's vector dimension.
func (s *QdrantStore) EnsureCollection(ctx context.Context, collection string) error {
	exists, err := s.client.Exists(ctx, collection)
	if err != nil {
		return fmt.Errorf("check collection %s: %w", collection, err)
	}
	if exists {
		return nil
	}

	dim, err := s.embedder.Dimension(ctx)
	if err != nil {
		return fmt.Errorf("ensure collection %s: %w", collection, err)
	}
	if err := s.client.CreateCollection(ctx, collection, dim); err != nil {
		return fmt.Errorf("ensure collection %s: %w", collection, err)
	}
	s.logger.Info("created collection", "collection", collection, "vector_size", dim)
	return nil
}

// AddDocuments embeds and upserts documents in batches, returning the number
// of points written.
func (s *QdrantStore) AddDocuments(ctx context.Context, collection string, docs []Document) (int, error) {
	added := 0
	for start := 0; start < len(docs); start += s.batchSize {
		end := start + s.batchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := docs[start:end]

		texts := make([]string, len(batch))
		for i, doc := range batch {
			texts[i] = doc.Text
		}
		vectors, err := s.embedder.Embed(ctx, texts)
		if err != nil {
			return added, fmt.Errorf("embed batch: %w", err)
		}

		points := make([]qdrant.Point, len(batch))
		for i, doc := range batch {
			points[i] = qdrant.Point{
				ID:     uuid.NewString(),
				Vector: vectors[i],
				Payload: map[string]any{
					"page_content": doc.Text,
					"metadata":     doc.Metadata,
				},
			}
		}
		if err := s.client.Upsert(ctx, collection, points); err != nil {
			return added, fmt.Errorf("upsert batch: %w", err)
		}
		added += len(points)
	}
	return added, nil
}

func recordToChunk(id any, payload map[string]any) Chunk {
	text := ""
	if payload != nil {
		if v, ok := payload["page_content"].(string); ok {
			text = v
		} else if v, ok := payload["text"].(string); ok {
			text = v
		}
	}
	return Chunk{
		ID:      fmt.Sprint(id),
		Text:    text,
		Payload: payload,
	}
}

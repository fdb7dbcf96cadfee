package output

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/hardytee1/LED-Automation/internal/config"
	"github.com/hardytee1/LED-Automation/internal/textsplit"
	"github.com/hardytee1/LED-Automation/internal/vectorstore"
)

// fakeStore serves canned collections and similarity hits, recording every
// similarity query for routing assertions.
type fakeStore struct {
	collections map[string][]vectorstore.Chunk
	hits        map[string][]vectorstore.ScoredChunk
	queryErr    map[string]error
	queries     []queryCall
}

type queryCall struct {
	Collection string
	Query      string
	K          int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		collections: make(map[string][]vectorstore.Chunk),
		hits:        make(map[string][]vectorstore.ScoredChunk),
		queryErr:    make(map[string]error),
	}
}

func (s *fakeStore) Scan(ctx context.Context, collection string, required bool) ([]vectorstore.Chunk, error) {
	chunks, ok := s.collections[collection]
	if !ok {
		if required {
			return nil, fmt.Errorf("collection %q: %w", collection, vectorstore.ErrCollectionNotFound)
		}
		return nil, nil
	}
	return chunks, nil
}

func (s *fakeStore) SimilarityQuery(ctx context.Context, collection, queryText string, k int) ([]vectorstore.ScoredChunk, error) {
	s.queries = append(s.queries, queryCall{Collection: collection, Query: queryText, K: k})
	if err := s.queryErr[collection]; err != nil {
		return nil, err
	}
	hits := s.hits[collection]
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (s *fakeStore) Exists(ctx context.Context, collection string) (bool, error) {
	if _, ok := s.collections[collection]; ok {
		return true, nil
	}
	_, ok := s.hits[collection]
	if !ok {
		_, ok = s.queryErr[collection]
	}
	return ok, nil
}

func (s *fakeStore) Count(ctx context.Context, collection string) (int, error) {
	chunks, ok := s.collections[collection]
	if !ok {
		return 0, fmt.Errorf("collection %q: %w", collection, vectorstore.ErrCollectionNotFound)
	}
	return len(chunks), nil
}

func chunkList(items ...vectorstore.Chunk) []vectorstore.Chunk {
	return items
}

func scoredList(items ...vectorstore.ScoredChunk) []vectorstore.ScoredChunk {
	return items
}

func newTestSplitter() *textsplit.Splitter {
	return textsplit.NewSplitter(1000, 200)
}

// docChunk builds a stored document chunk with the usual payload shape.
func docChunk(text, heading string, order any) vectorstore.Chunk {
	meta := map[string]any{}
	if heading != "" {
		meta["heading"] = heading
	}
	if order != nil {
		meta["order"] = order
	}
	return vectorstore.Chunk{
		Text: text,
		Payload: map[string]any{
			"page_content": text,
			"metadata":     meta,
		},
	}
}

// linkChunk builds a hyperlink annotation chunk.
func linkChunk(title, heading string, order any) vectorstore.Chunk {
	return docChunk(title, heading, order)
}

// scoredHit builds a similarity hit with provenance metadata.
func scoredHit(text, filename string, score float64) vectorstore.ScoredChunk {
	return vectorstore.ScoredChunk{
		Chunk: vectorstore.Chunk{
			Text: text,
			Payload: map[string]any{
				"page_content": text,
				"metadata": map[string]any{
					"dl_meta": map[string]any{
						"origin": map[string]any{"filename": filename},
					},
				},
			},
		},
		Score: score,
	}
}

func testConfig() config.Config {
	return config.Config{
		DocumentCollection:       "docs",
		HyperlinkCollection:      "docs-hyperlink",
		HyperlinkSuffix:          "-hyperlink",
		PenetapanAllowedOrders:   []int{0, 5, 10, 15, 20, 25, 30, 35, 40},
		PelaksanaanAllowedOrders: []int{1, 6, 11, 16, 21, 26, 31, 36, 41},
		SimilarityThreshold:      0.6,
		ChunkSize:                1000,
		ChunkOverlap:             200,
		SectionCollections:       config.DefaultSectionCollections(),
		ReferenceTopK:            1,
		NestedReferenceTopK:      1,
		ResultLimit:              8,
	}
}

func testEngine(store vectorstore.Store, cfg config.Config) *Engine {
	return NewEngine(store, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

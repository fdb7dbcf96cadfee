package output

import (
	"context"

	"github.com/hardytee1/LED-Automation/internal/config"
	"github.com/hardytee1/LED-Automation/internal/vectorstore"
)

// RetrievalResult is one first-stage hit enriched with provenance metadata and
// its second-stage hits. Results live only until consolidation.
type RetrievalResult struct {
	PageContent         string         `json:"page_content"`
	Filename            string         `json:"filename,omitempty"`
	Headings            any            `json:"headings,omitempty"`
	Score               float64        `json:"score"`
	NestedSearchResults []NestedResult `json:"nested_search_results"`
}

// NestedResult is one second-stage hit.
type NestedResult struct {
	PageContent string  `json:"page_content"`
	Filename    string  `json:"filename,omitempty"`
	Headings    any     `json:"headings,omitempty"`
	Score       float64 `json:"score"`
}

// retrieveForChunk runs the two-stage retrieval for one sub-chunk: a nearest
// neighbor query against the reference collection, then one query against the
// new-reference collection per first-stage hit, using the hit's own text as
// the nested query. A stage-2 failure degrades that hit to an empty nested
// list; stage-1 failures are the caller's to handle.
func (e *Engine) retrieveForChunk(ctx context.Context, queryText string, pair config.SectionPair, refTopK, nestedTopK, chunkIndex int) ([]RetrievalResult, error) {
	hits, err := e.store.SimilarityQuery(ctx, pair.Reference, queryText, refTopK)
	if err != nil {
		return nil, err
	}

	results := make([]RetrievalResult, 0, len(hits))
	for _, hit := range hits {
		result := RetrievalResult{
			PageContent:         chunkText(hit.Chunk),
			Score:               hit.Score,
			NestedSearchResults: []NestedResult{},
		}
		result.Filename, result.Headings = provenance(hit.Chunk)

		nestedHits, err := e.store.SimilarityQuery(ctx, pair.NewReference, result.PageContent, nestedTopK)
		if err != nil {
			e.log.Warn("pelaksanaan nested retrieval failed",
				"chunk", chunkIndex, "collection", pair.NewReference, "error", err)
			nestedHits = nil
		}
		for _, nested := range nestedHits {
			nestedResult := NestedResult{
				PageContent: chunkText(nested.Chunk),
				Score:       nested.Score,
			}
			nestedResult.Filename, nestedResult.Headings = provenance(nested.Chunk)
			result.NestedSearchResults = append(result.NestedSearchResults, nestedResult)
		}
		results = append(results, result)
	}
	return results, nil
}

// provenance resolves a hit's filename and headings. The nested dl_meta block
// written at ingestion is preferred; flat metadata fields are the fallback.
func provenance(chunk vectorstore.Chunk) (string, any) {
	meta := chunk.Metadata()
	if meta == nil {
		return "", nil
	}

	var filename string
	var headings any
	if dlMeta, ok := meta["dl_meta"].(map[string]any); ok {
		if origin, ok := dlMeta["origin"].(map[string]any); ok {
			if v, ok := origin["filename"].(string); ok {
				filename = v
			}
		}
		headings = dlMeta["headings"]
	}
	if filename == "" {
		if v, ok := meta["source"].(string); ok && v != "" {
			filename = v
		} else if v, ok := meta["document_id"].(string); ok {
			filename = v
		}
	}
	if headings == nil {
		headings = meta["headings"]
	}
	return filename, headings
}

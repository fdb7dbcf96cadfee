package output

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hardytee1/LED-Automation/internal/config"
	"github.com/hardytee1/LED-Automation/internal/textsplit"
	"github.com/hardytee1/LED-Automation/internal/vectorstore"
)

// titleLocation records the first sub-chunk in which a historical reference
// title was seen, together with that sub-chunk's retrieval results. Each title
// is recorded at most once per build.
type titleLocation struct {
	Title                 string            `json:"title"`
	FoundInChunk          foundInChunk      `json:"found_in_chunk"`
	ChunkText             string            `json:"chunk_text"`
	RetrievalSearchResult []RetrievalResult `json:"retrieval_search_result"`
}

type foundInChunk struct {
	Heading       string `json:"heading,omitempty"`
	Order         int    `json:"order"`
	OrderHeading  int    `json:"order_heading"`
	OriginalOrder any    `json:"original_order"`
}

// OutputSection is one consolidated pelaksanaan section. Sections are emitted
// only when at least one new reference was collected.
type OutputSection struct {
	Order         int                   `json:"order"`
	Heading       string                `json:"heading"`
	PastNarrative string                `json:"past_narrative"`
	NewReferences []ReferenceSuggestion `json:"new_references"`
}

// ReferenceSuggestion is one deduplicated reference content string.
type ReferenceSuggestion struct {
	Content string `json:"content"`
}

// BuildPelaksanaan re-chunks the allowed narrative entries, routes each
// sub-chunk to its section's collection pair, runs the two-stage retrieval,
// and consolidates the per-title results into ordered output sections.
func (e *Engine) BuildPelaksanaan(ctx context.Context, reportID string, metadata map[string]any) (map[string]any, map[string]any, error) {
	opts := e.pelaksanaanOptions(reportID, metadata)

	documentChunks, err := e.store.Scan(ctx, opts.DocumentCollection, true)
	if err != nil {
		if errors.Is(err, vectorstore.ErrCollectionNotFound) {
			return nil, nil, notFoundf(fmt.Sprintf("Collection '%s' not found", opts.DocumentCollection))
		}
		return nil, nil, fmt.Errorf("scan documents: %w", err)
	}
	if len(documentChunks) == 0 {
		return nil, nil, notFoundf("No pelaksanaan narratives available")
	}

	entries := collectEntries(documentChunks, opts.AllowedOrders, true)
	if len(entries) == 0 {
		return nil, nil, notFoundf("No pelaksanaan entries matched the allowed orders")
	}

	// Past narrative lookup: first narrative text seen per heading, in scan
	// order, before the entries are re-sorted.
	headingToQuery := make(map[string]string)
	for _, entry := range entries {
		if entry.Heading != "" {
			if _, ok := headingToQuery[entry.Heading]; !ok {
				headingToQuery[entry.Heading] = entry.QueryText
			}
		}
	}
	sortEntriesByOrder(entries)

	hyperlinkChunks, err := e.store.Scan(ctx, opts.HyperlinkCollection, false)
	if err != nil {
		return nil, nil, fmt.Errorf("scan hyperlinks: %w", err)
	}
	headingIndex := buildHeadingIndex(hyperlinkChunks)

	splitter := textsplit.NewSplitter(e.cfg.ChunkSize, e.cfg.ChunkOverlap)
	subChunks := rechunkEntries(entries, headingIndex, splitter)
	if len(subChunks) == 0 {
		return nil, nil, notFoundf("Pelaksanaan chunking produced no data")
	}

	if len(opts.SectionCollections) == 0 {
		return nil, nil, unprocessablef("No section collections configured for pelaksanaan retrieval")
	}

	titleLocations, err := e.collectTitleLocations(ctx, subChunks, opts)
	if err != nil {
		return nil, nil, err
	}

	sections, totalSuggestions := consolidateSections(titleLocations, headingToQuery)

	payload := map[string]any{
		"summary": fmt.Sprintf("Generated %d pelaksanaan sections with %d reference suggestions.",
			len(sections), totalSuggestions),
		"results": sections,
	}
	if opts.IncludeDebug {
		payload["debug"] = map[string]any{
			"title_matches":    len(titleLocations),
			"chunks_processed": len(subChunks),
		}
	}

	sectionMeta := make(map[string]any, len(opts.SectionCollections))
	for key, pair := range opts.SectionCollections {
		sectionMeta[fmt.Sprint(key)] = map[string]any{
			"reference":     pair.Reference,
			"new_reference": pair.NewReference,
		}
	}
	meta := pruneMeta(map[string]any{
		"document_collection":  opts.DocumentCollection,
		"hyperlink_collection": hyperlinkCollectionMeta(opts.HyperlinkCollection, len(hyperlinkChunks)),
		"allowed_orders":       sortedOrders(opts.AllowedOrders),
		"section_collections":  sectionMeta,
		"penetapan_records":    len(entries),
		"hyperlink_records":    len(hyperlinkChunks),
		"chunks_processed":     len(subChunks),
		"title_matches":        len(titleLocations),
		"chunks_returned":      len(sections),
	})
	return payload, meta, nil
}

// collectTitleLocations walks the sub-chunks in order, switching section
// collections at the configured boundaries, running the two-stage retrieval
// per sub-chunk, and recording the first sub-chunk each reference title
// appears in. A failed stage-1 query skips the sub-chunk without failing the
// build.
func (e *Engine) collectTitleLocations(ctx context.Context, subChunks []subChunk, opts Options) ([]titleLocation, error) {
	router := newSectionRouter(opts.SectionCollections)
	if err := e.checkSectionPair(ctx, router.Active()); err != nil {
		return nil, err
	}

	var locations []titleLocation
	foundTitles := make(map[string]bool)

	for index, chunk := range subChunks {
		pair, switched := router.Advance(chunk.Order)
		if switched {
			if err := e.checkSectionPair(ctx, pair); err != nil {
				return nil, err
			}
		}

		queryText := strings.TrimSpace(chunk.Text)
		if queryText == "" {
			continue
		}

		results, err := e.retrieveForChunk(ctx, queryText, pair, opts.ReferenceTopK, opts.NestedTopK, index)
		if err != nil {
			e.log.Warn("pelaksanaan reference retrieval failed",
				"chunk", index, "collection", pair.Reference, "error", err)
			continue
		}

		lowerText := strings.ToLower(queryText)
		for _, ref := range chunk.OldReferences {
			if ref.Title == "" || foundTitles[ref.Title] {
				continue
			}
			if !strings.Contains(lowerText, strings.ToLower(ref.Title)) {
				continue
			}
			locations = append(locations, titleLocation{
				Title: ref.Title,
				FoundInChunk: foundInChunk{
					Heading:       chunk.Heading,
					Order:         chunk.Order,
					OrderHeading:  chunk.OrderHeading,
					OriginalOrder: chunk.OriginalOrder,
				},
				ChunkText:             queryText,
				RetrievalSearchResult: results,
			})
			foundTitles[ref.Title] = true
		}
	}
	return locations, nil
}

// checkSectionPair verifies both collections of an activated pair exist.
func (e *Engine) checkSectionPair(ctx context.Context, pair config.SectionPair) error {
	for _, collection := range []string{pair.Reference, pair.NewReference} {
		exists, err := e.store.Exists(ctx, collection)
		if err != nil {
			return fmt.Errorf("check collection %s: %w", collection, err)
		}
		if !exists {
			return notFoundf(fmt.Sprintf("Collection '%s' not found", collection))
		}
	}
	return nil
}

// consolidateSections groups title locations by their sub-chunk's top-level
// order and assembles one section per group: the first non-blank heading, the
// original narrative for that heading, and the deduplicated first nested
// content of each stage-1 result.
func consolidateSections(locations []titleLocation, headingToQuery map[string]string) ([]OutputSection, int) {
	grouped := make(map[int][]titleLocation)
	for _, location := range locations {
		grouped[location.FoundInChunk.Order] = append(grouped[location.FoundInChunk.Order], location)
	}

	orders := make([]int, 0, len(grouped))
	for order := range grouped {
		orders = append(orders, order)
	}
	sort.Ints(orders)

	sections := make([]OutputSection, 0, len(grouped))
	totalSuggestions := 0
	for _, order := range orders {
		items := grouped[order]
		heading := ""
		pastNarrative := ""
		newReferences := []ReferenceSuggestion{}
		seen := make(map[string]bool)

		for _, item := range items {
			chunkHeading := item.FoundInChunk.Heading
			if chunkHeading != "" && heading == "" {
				heading = chunkHeading
			}
			for _, content := range nestedReferenceContents(item.RetrievalSearchResult) {
				if !seen[content] {
					seen[content] = true
					newReferences = append(newReferences, ReferenceSuggestion{Content: content})
				}
			}
			if pastNarrative == "" && chunkHeading != "" {
				if narrative, ok := headingToQuery[chunkHeading]; ok {
					pastNarrative = narrative
				}
			}
		}
		if pastNarrative == "" {
			pastNarrative = headingToQuery[heading]
		}

		if len(newReferences) > 0 {
			totalSuggestions += len(newReferences)
			sections = append(sections, OutputSection{
				Order:         order,
				Heading:       heading,
				PastNarrative: pastNarrative,
				NewReferences: newReferences,
			})
		}
	}
	return sections, totalSuggestions
}

// nestedReferenceContents returns the first non-empty nested content per
// stage-1 result.
func nestedReferenceContents(results []RetrievalResult) []string {
	var contents []string
	for _, result := range results {
		for _, nested := range result.NestedSearchResults {
			if nested.PageContent != "" {
				contents = append(contents, nested.PageContent)
				break
			}
		}
	}
	return contents
}

package output

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/hardytee1/LED-Automation/internal/matcher"
	"github.com/hardytee1/LED-Automation/internal/vectorstore"
)

// PenetapanEntry is one narrative entry joined with its hyperlinked references
// and fuzzy-matched against the supplied reference filenames.
type PenetapanEntry struct {
	QueryText           string   `json:"query_text"`
	Order               any      `json:"order"`
	QuerySourceDocument string   `json:"query_source_document,omitempty"`
	NumberOfLinks       int      `json:"number_of_links"`
	OldReferenceList    []string `json:"old_reference_list"`
	NewReferenceList    []string `json:"new_reference_list"`
	UnmatchedLinks      []string `json:"documents_with_unmatched_links,omitempty"`
	Heading             string   `json:"heading,omitempty"`
}

// BuildPenetapan enumerates the allowed narrative chunks ascending by order,
// joins each to its hyperlink references by heading, and reconciles reference
// titles against the report's filenames. One entry is emitted per narrative
// chunk, links or not.
func (e *Engine) BuildPenetapan(ctx context.Context, reportID string, metadata map[string]any) (map[string]any, map[string]any, error) {
	opts := e.penetapanOptions(reportID, metadata)
	referenceFiles := e.discoverReferenceFiles(ctx, reportID, metadata)

	documentChunks, err := e.store.Scan(ctx, opts.DocumentCollection, true)
	if err != nil {
		if errors.Is(err, vectorstore.ErrCollectionNotFound) {
			return nil, nil, notFoundf(fmt.Sprintf("Collection '%s' not found", opts.DocumentCollection))
		}
		return nil, nil, fmt.Errorf("scan documents: %w", err)
	}
	if len(documentChunks) == 0 {
		return nil, nil, notFoundf("No penetapan chunks available")
	}

	entries := filterEntries(documentChunks, opts.AllowedOrders, false)

	hyperlinkChunks, err := e.store.Scan(ctx, opts.HyperlinkCollection, false)
	if err != nil {
		return nil, nil, fmt.Errorf("scan hyperlinks: %w", err)
	}
	headingIndex := buildHeadingIndex(hyperlinkChunks)

	results := make([]PenetapanEntry, 0, len(entries))
	totalLinks := 0
	for _, entry := range entries {
		refs := headingIndex[entry.Heading]
		totalLinks += len(refs)

		record := PenetapanEntry{
			QueryText:           entry.QueryText,
			Order:               entry.Order,
			QuerySourceDocument: entry.Source,
			NumberOfLinks:       len(refs),
			Heading:             entry.Heading,
			OldReferenceList:    []string{},
			NewReferenceList:    []string{},
		}

		matched := make(map[string]bool)
		unmatched := make(map[string]bool)
		if len(referenceFiles) > 0 {
			for _, ref := range refs {
				best, ok := matcher.BestMatch(ref.Title, referenceFiles)
				if ok && best.Score >= opts.SimilarityThreshold {
					matched[best.Candidate] = true
				} else if ref.Title != "" {
					unmatched[ref.Title] = true
				}
			}
		}
		record.NewReferenceList = sortedKeys(matched)
		if len(unmatched) > 0 {
			record.UnmatchedLinks = sortedKeys(unmatched)
		}

		for _, ref := range refs {
			if ref.Title != "" {
				record.OldReferenceList = append(record.OldReferenceList, ref.Title)
			}
		}

		results = append(results, record)
	}

	payload := map[string]any{
		"summary": fmt.Sprintf("Generated %d penetapan entries with hyperlink mapping.", len(results)),
		"results": results,
	}
	meta := pruneMeta(map[string]any{
		"document_collection":   opts.DocumentCollection,
		"hyperlink_collection":  hyperlinkCollectionMeta(opts.HyperlinkCollection, len(hyperlinkChunks)),
		"allowed_orders":        sortedOrders(opts.AllowedOrders),
		"reference_files_used":  referenceFiles,
		"penetapan_records":     len(entries),
		"hyperlink_records":     len(hyperlinkChunks),
		"total_links_processed": totalLinks,
		"chunks_returned":       len(results),
	})
	return payload, meta, nil
}

// hyperlinkCollectionMeta reports the hyperlink collection name only when the
// scan actually produced records.
func hyperlinkCollectionMeta(name string, records int) any {
	if records == 0 {
		return nil
	}
	return name
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

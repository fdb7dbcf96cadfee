package output

import (
	"sort"
	"strings"

	"github.com/hardytee1/LED-Automation/internal/textsplit"
)

// subChunk is one retrieval unit of the pelaksanaan narrative. Order is the
// parent entry's index in the filtered list; OrderHeading is the sub-chunk's
// zero-based position within the entry; OriginalOrder keeps the entry's raw
// order marker. Global ordering is (Order, OrderHeading) ascending.
type subChunk struct {
	Text          string
	Order         int
	OrderHeading  int
	OriginalOrder any
	Heading       string
	OldReferences []oldReference
}

// rechunkEntries splits each entry's narrative into bounded sub-chunks,
// propagating the entry's heading, position, and joined references onto every
// sub-chunk. Entries with blank narrative produce nothing.
func rechunkEntries(entries []narrativeEntry, headingIndex map[string][]oldReference, splitter *textsplit.Splitter) []subChunk {
	var chunks []subChunk
	for index, entry := range entries {
		if strings.TrimSpace(entry.QueryText) == "" {
			continue
		}
		refs := headingIndex[entry.Heading]
		for chunkIndex, text := range splitter.Split(entry.QueryText) {
			chunks = append(chunks, subChunk{
				Text:          text,
				Order:         index,
				OrderHeading:  chunkIndex,
				OriginalOrder: entry.Order,
				Heading:       entry.Heading,
				OldReferences: refs,
			})
		}
	}
	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].Order != chunks[j].Order {
			return chunks[i].Order < chunks[j].Order
		}
		return chunks[i].OrderHeading < chunks[j].OrderHeading
	})
	return chunks
}

package output

import (
	"sort"
	"strconv"
	"strings"

	"github.com/hardytee1/LED-Automation/internal/vectorstore"
)

// narrativeEntry is one qualifying document chunk, shaped for output building.
type narrativeEntry struct {
	Heading   string
	Order     any
	QueryText string
	Source    string
}

// oldReference is a hyperlink chunk joined to a narrative entry by heading.
type oldReference struct {
	Title   string `json:"page_content/title"`
	Heading string `json:"heading"`
	Order   any    `json:"order"`
	Link    string `json:"link,omitempty"`
}

// extractOrder reads the chunk's order marker, preferring metadata.order over a
// top-level order field. Integer-coercible values come back as int; anything
// else is kept verbatim so legacy markers survive into the output.
func extractOrder(chunk vectorstore.Chunk) any {
	var value any
	if meta := chunk.Metadata(); meta != nil {
		value = meta["order"]
	}
	if value == nil && chunk.Payload != nil {
		value = chunk.Payload["order"]
	}
	if value == nil {
		return nil
	}
	if n, ok := coerceInt(value); ok {
		return n
	}
	return value
}

// coerceInt accepts JSON numbers (truncating floats) and base-10 numeric strings.
func coerceInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n, true
		}
	}
	return 0, false
}

// orderKey is the sort key for an order marker: the integer value when
// coercible, 0 otherwise. Sorting is always stable, so equal keys keep the
// original scan order.
func orderKey(order any) int {
	if n, ok := coerceInt(order); ok {
		return n
	}
	return 0
}

// orderAllowed reports membership in the allowed set. An empty set admits
// everything; a non-integer marker never matches a non-empty set.
func orderAllowed(order any, allowed map[int]bool) bool {
	if len(allowed) == 0 {
		return true
	}
	n, ok := coerceInt(order)
	return ok && allowed[n]
}

func sortedOrders(allowed map[int]bool) []int {
	out := make([]int, 0, len(allowed))
	for n := range allowed {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

func chunkText(chunk vectorstore.Chunk) string {
	if chunk.Text != "" {
		return chunk.Text
	}
	if chunk.Payload != nil {
		if v, ok := chunk.Payload["text"].(string); ok {
			return v
		}
	}
	return ""
}

func chunkHeading(chunk vectorstore.Chunk) string {
	if meta := chunk.Metadata(); meta != nil {
		if v, ok := meta["heading"].(string); ok {
			return v
		}
	}
	return ""
}

// chunkSource resolves the chunk's provenance: metadata.source, then the
// top-level source, then document_id.
func chunkSource(chunk vectorstore.Chunk) string {
	if meta := chunk.Metadata(); meta != nil {
		if v, ok := meta["source"].(string); ok && v != "" {
			return v
		}
	}
	if chunk.Payload != nil {
		if v, ok := chunk.Payload["source"].(string); ok && v != "" {
			return v
		}
		if v, ok := chunk.Payload["document_id"].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// buildHeadingIndex groups hyperlink chunks by heading, each group ascending
// by order. Headingless chunks cannot be joined and are dropped.
func buildHeadingIndex(chunks []vectorstore.Chunk) map[string][]oldReference {
	index := make(map[string][]oldReference)
	for _, chunk := range chunks {
		heading := chunkHeading(chunk)
		if heading == "" {
			continue
		}
		ref := oldReference{
			Title:   chunkText(chunk),
			Heading: heading,
			Order:   extractOrder(chunk),
		}
		if meta := chunk.Metadata(); meta != nil {
			if v, ok := meta["link"].(string); ok {
				ref.Link = v
			}
		}
		index[heading] = append(index[heading], ref)
	}
	for _, refs := range index {
		sort.SliceStable(refs, func(i, j int) bool {
			return orderKey(refs[i].Order) < orderKey(refs[j].Order)
		})
	}
	return index
}

// collectEntries narrows document chunks to the allowed orders, preserving
// scan order. With skipBlank set, chunks without narrative text are dropped
// before the order filter, matching the pelaksanaan working set.
func collectEntries(chunks []vectorstore.Chunk, allowed map[int]bool, skipBlank bool) []narrativeEntry {
	var entries []narrativeEntry
	for _, chunk := range chunks {
		text := chunkText(chunk)
		if skipBlank && text == "" {
			continue
		}
		order := extractOrder(chunk)
		if !orderAllowed(order, allowed) {
			continue
		}
		entries = append(entries, narrativeEntry{
			Heading:   chunkHeading(chunk),
			Order:     order,
			QueryText: text,
			Source:    chunkSource(chunk),
		})
	}
	return entries
}

// sortEntriesByOrder sorts entries ascending by order key, stably, so equal
// keys keep scan order.
func sortEntriesByOrder(entries []narrativeEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return orderKey(entries[i].Order) < orderKey(entries[j].Order)
	})
}

// filterEntries is collectEntries followed by the stable order sort.
func filterEntries(chunks []vectorstore.Chunk, allowed map[int]bool, skipBlank bool) []narrativeEntry {
	entries := collectEntries(chunks, allowed, skipBlank)
	sortEntriesByOrder(entries)
	return entries
}

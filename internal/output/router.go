package output

import (
	"github.com/hardytee1/LED-Automation/internal/config"
)

// sectionRouter tracks which collection pair is active while walking the
// sub-chunk sequence. The pair switches whenever a sub-chunk's order literally
// equals a mapping key other than the active one; traversal is not forced to
// be ascending, so a repeated earlier key reactivates its pair. That
// re-entrant behavior is the stored contract and is kept as is.
type sectionRouter struct {
	mapping   map[int]config.SectionPair
	activeKey int
}

// newSectionRouter initializes the router on the mapping entry with the
// smallest key. The mapping must be non-empty.
func newSectionRouter(mapping map[int]config.SectionPair) *sectionRouter {
	keys := config.SectionKeys(mapping)
	return &sectionRouter{
		mapping:   mapping,
		activeKey: keys[0],
	}
}

// Advance updates the active pair for the given sub-chunk order. It returns
// the active pair and whether this call switched to a different one.
func (r *sectionRouter) Advance(order int) (config.SectionPair, bool) {
	if _, ok := r.mapping[order]; ok && order != r.activeKey {
		r.activeKey = order
		return r.mapping[order], true
	}
	return r.mapping[r.activeKey], false
}

// Active returns the currently active pair without advancing.
func (r *sectionRouter) Active() config.SectionPair {
	return r.mapping[r.activeKey]
}

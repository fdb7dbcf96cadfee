package output

import (
	"testing"
)

func TestCoerceAllowedOrders_CommaStringSkipsBadItems(t *testing.T) {
	engine := testEngine(newFakeStore(), testConfig())
	set := engine.coerceAllowedOrders("5, x, 10", []int{0})
	if len(set) != 2 || !set[5] || !set[10] {
		t.Errorf("expected {5,10}, got %v", set)
	}
}

func TestCoerceAllowedOrders_AllInvalidFallsBack(t *testing.T) {
	engine := testEngine(newFakeStore(), testConfig())
	set := engine.coerceAllowedOrders("a, b", []int{7})
	if len(set) != 1 || !set[7] {
		t.Errorf("expected fallback {7}, got %v", set)
	}
}

func TestCoerceAllowedOrders_ListOfNumbers(t *testing.T) {
	engine := testEngine(newFakeStore(), testConfig())
	set := engine.coerceAllowedOrders([]any{float64(1), "6", true}, []int{0})
	if len(set) != 2 || !set[1] || !set[6] {
		t.Errorf("expected {1,6}, got %v", set)
	}
}

func TestPelaksanaanOptions_MalformedSectionJSONFallsBack(t *testing.T) {
	engine := testEngine(newFakeStore(), testConfig())
	opts := engine.pelaksanaanOptions("report-1", map[string]any{
		"section_collections": "{not json",
	})
	if len(opts.SectionCollections) != len(engine.cfg.SectionCollections) {
		t.Errorf("expected default section mapping, got %v", opts.SectionCollections)
	}
}

func TestPelaksanaanOptions_SectionJSONString(t *testing.T) {
	engine := testEngine(newFakeStore(), testConfig())
	opts := engine.pelaksanaanOptions("report-1", map[string]any{
		"section_collections": `{"0": ["ref_a", "new_a"], "4": "ref_b|new_b"}`,
	})
	if len(opts.SectionCollections) != 2 {
		t.Fatalf("expected 2 entries, got %v", opts.SectionCollections)
	}
	if pair := opts.SectionCollections[0]; pair.Reference != "ref_a" || pair.NewReference != "new_a" {
		t.Errorf("unexpected pair at 0: %+v", pair)
	}
	if pair := opts.SectionCollections[4]; pair.Reference != "ref_b" || pair.NewReference != "new_b" {
		t.Errorf("unexpected pair at 4: %+v", pair)
	}
}

func TestCoerceTopK_FloorsAtOne(t *testing.T) {
	engine := testEngine(newFakeStore(), testConfig())
	if got := engine.coerceTopK(float64(0), 3); got != 1 {
		t.Errorf("expected floor 1, got %d", got)
	}
	if got := engine.coerceTopK("not-a-number", 3); got != 3 {
		t.Errorf("expected fallback 3, got %d", got)
	}
	if got := engine.coerceTopK(nil, 3); got != 3 {
		t.Errorf("expected fallback 3 for nil, got %d", got)
	}
	if got := engine.coerceTopK("4", 3); got != 4 {
		t.Errorf("expected 4, got %d", got)
	}
}

func TestPenetapanOptions_CollectionPrecedence(t *testing.T) {
	engine := testEngine(newFakeStore(), testConfig())

	opts := engine.penetapanOptions("report-1", nil)
	if opts.DocumentCollection != "docs" || opts.HyperlinkCollection != "docs-hyperlink" {
		t.Errorf("expected configured defaults, got %+v", opts)
	}

	opts = engine.penetapanOptions("report-1", map[string]any{
		"document_collection":  "custom_docs",
		"hyperlink_collection": "custom_links",
	})
	if opts.DocumentCollection != "custom_docs" || opts.HyperlinkCollection != "custom_links" {
		t.Errorf("expected request overrides, got %+v", opts)
	}
}

func TestPenetapanOptions_ReportIDWhenNoDefault(t *testing.T) {
	cfg := testConfig()
	cfg.DocumentCollection = ""
	cfg.HyperlinkCollection = ""
	engine := testEngine(newFakeStore(), cfg)

	opts := engine.penetapanOptions("report-1", nil)
	if opts.DocumentCollection != "report-1" {
		t.Errorf("expected report id as document collection, got %q", opts.DocumentCollection)
	}
	if opts.HyperlinkCollection != "report-1-hyperlink" {
		t.Errorf("expected suffix-derived hyperlink collection, got %q", opts.HyperlinkCollection)
	}
}

func TestPelaksanaanOptions_PrefixedKeysWin(t *testing.T) {
	engine := testEngine(newFakeStore(), testConfig())
	opts := engine.pelaksanaanOptions("report-1", map[string]any{
		"document_collection":             "shared",
		"pelaksanaan_document_collection": "specific",
	})
	if opts.DocumentCollection != "specific" {
		t.Errorf("expected pelaksanaan-prefixed key to win, got %q", opts.DocumentCollection)
	}
}

func TestCoerceReferenceFiles_Shapes(t *testing.T) {
	got := coerceReferenceFiles(map[string]any{"reference_files": "a.pdf, b.pdf ,"})
	if len(got) != 2 || got[0] != "a.pdf" || got[1] != "b.pdf" {
		t.Errorf("expected [a.pdf b.pdf], got %v", got)
	}

	got = coerceReferenceFiles(map[string]any{"files": []any{"x.pdf", " ", "y.pdf"}})
	if len(got) != 2 || got[0] != "x.pdf" || got[1] != "y.pdf" {
		t.Errorf("expected [x.pdf y.pdf], got %v", got)
	}

	if got = coerceReferenceFiles(nil); got != nil {
		t.Errorf("expected nil for no metadata, got %v", got)
	}
}

func TestPruneMeta_RemovesEmptyValues(t *testing.T) {
	meta := pruneMeta(map[string]any{
		"kept_int":    0,
		"kept_string": "value",
		"nil_value":   nil,
		"empty_str":   "",
		"empty_list":  []string{},
		"empty_any":   []any{},
		"empty_map":   map[string]any{},
	})
	if len(meta) != 2 {
		t.Fatalf("expected 2 surviving keys, got %v", meta)
	}
	if _, ok := meta["kept_int"]; !ok {
		t.Error("expected zero int kept (only nil/empty pruned)")
	}
}

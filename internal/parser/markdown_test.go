package parser

import (
	"strings"
	"testing"

	"github.com/hardytee1/LED-Automation/internal/doctree"
)

func TestMarkdownParser_HeadingHierarchy(t *testing.T) {
	input := `# Laporan Evaluasi

Pendahuluan laporan.

## Penetapan

Narasi penetapan anggaran.

### Rincian Belanja

Rincian belanja langsung dan tidak langsung.

## Pelaksanaan

Narasi pelaksanaan kegiatan.
`
	p := &MarkdownParser{}
	tree, err := p.Parse(strings.NewReader(input), "laporan.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tree.Title != "laporan" {
		t.Errorf("expected title %q, got %q", "laporan", tree.Title)
	}
	if len(tree.Children) != 1 {
		t.Fatalf("expected 1 top-level heading, got %d", len(tree.Children))
	}

	h1 := tree.Children[0]
	if h1.Title != "Laporan Evaluasi" {
		t.Errorf("expected h1 %q, got %q", "Laporan Evaluasi", h1.Title)
	}
	if !strings.Contains(h1.Text, "Pendahuluan laporan.") {
		t.Errorf("expected intro under h1, got %q", h1.Text)
	}
	if len(h1.Children) != 2 {
		t.Fatalf("expected 2 h2 sections, got %d", len(h1.Children))
	}

	penetapan := h1.Children[0]
	if penetapan.Title != "Penetapan" {
		t.Errorf("expected %q, got %q", "Penetapan", penetapan.Title)
	}
	if !strings.Contains(penetapan.Text, "Narasi penetapan anggaran.") {
		t.Errorf("expected penetapan narrative, got %q", penetapan.Text)
	}
	if len(penetapan.Children) != 1 || penetapan.Children[0].Title != "Rincian Belanja" {
		t.Fatalf("expected one h3 %q under Penetapan, got %+v", "Rincian Belanja", penetapan.Children)
	}

	if h1.Children[1].Title != "Pelaksanaan" {
		t.Errorf("expected %q, got %q", "Pelaksanaan", h1.Children[1].Title)
	}
}

func TestMarkdownParser_HeadingBreadcrumbSurvivesFlatten(t *testing.T) {
	input := "# Bab II\n\n## Capaian\n\nCapaian kinerja tahunan.\n"
	p := &MarkdownParser{}
	tree, err := p.Parse(strings.NewReader(input), "bab2.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sections := doctree.Flatten(tree)
	if len(sections) != 1 {
		t.Fatalf("expected 1 flattened section, got %d", len(sections))
	}
	if sections[0].Heading != "Capaian" {
		t.Errorf("expected heading %q, got %q", "Capaian", sections[0].Heading)
	}
	wantPath := []string{"Bab II", "Capaian"}
	if len(sections[0].Headings) != 2 || sections[0].Headings[0] != wantPath[0] || sections[0].Headings[1] != wantPath[1] {
		t.Errorf("expected breadcrumb %v, got %v", wantPath, sections[0].Headings)
	}
}

func TestMarkdownParser_NoHeadings(t *testing.T) {
	input := `Narasi tanpa judul.

Alinea lanjutan.`

	p := &MarkdownParser{}
	tree, err := p.Parse(strings.NewReader(input), "polos.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Without headings all text lands in a single node.
	if len(tree.Children) != 1 {
		t.Fatalf("expected 1 node for headingless markdown, got %d", len(tree.Children))
	}
	text := tree.Children[0].Text
	if !strings.Contains(text, "Narasi tanpa judul.") || !strings.Contains(text, "Alinea lanjutan.") {
		t.Errorf("expected both paragraphs collected, got %q", text)
	}
}

func TestMarkdownParser_CodeBlocksKeptAsText(t *testing.T) {
	input := "# Lampiran\n\n## Format Data\n\nContoh payload:\n\n```\n{\"order\": 5, \"heading\": \"Bab II\"}\n```\n\nKeterangan format.\n"

	p := &MarkdownParser{}
	tree, err := p.Parse(strings.NewReader(input), "lampiran.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(tree.Children) != 1 || len(tree.Children[0].Children) != 1 {
		t.Fatalf("unexpected tree shape: %+v", tree.Children)
	}
	section := tree.Children[0].Children[0]
	if section.Title != "Format Data" {
		t.Errorf("expected title %q, got %q", "Format Data", section.Title)
	}
	if !strings.Contains(section.Text, `{"order": 5, "heading": "Bab II"}`) {
		t.Errorf("expected code block content kept, got %q", section.Text)
	}
	if !strings.Contains(section.Text, "Keterangan format.") {
		t.Errorf("expected trailing text kept, got %q", section.Text)
	}
}

func TestMarkdownParser_EmptyInput(t *testing.T) {
	p := &MarkdownParser{}
	tree, err := p.Parse(strings.NewReader(""), "kosong.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 0 {
		t.Errorf("expected 0 nodes for empty input, got %d", len(tree.Children))
	}
}

func TestMarkdownParser_TitleStripping(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"laporan.md", "laporan"},
		{"catatan.markdown", "catatan"},
		{"bab_2_1.md", "bab_2_1"},
	}
	p := &MarkdownParser{}
	for _, tt := range tests {
		tree, err := p.Parse(strings.NewReader("teks"), tt.filename)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", tt.filename, err)
		}
		if tree.Title != tt.want {
			t.Errorf("filename=%q: expected title %q, got %q", tt.filename, tt.want, tree.Title)
		}
	}
}

package chunker

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/custodia-labs/policyhelper/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := New()
		if p.chunkSize != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, p.chunkSize)
		}
		if p.overlap != DefaultChunkOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultChunkOverlap, p.overlap)
		}
	})

	t.Run("custom chunk size", func(t *testing.T) {
		p := New(WithChunkSize(500))
		if p.ChunkSize() != 500 {
			t.Errorf("expected chunkSize 500, got %d", p.ChunkSize())
		}
	})

	t.Run("overlap exceeds chunk size", func(t *testing.T) {
		p := New(WithChunkSize(100), WithOverlap(150))
		if p.Overlap() != 25 {
			t.Errorf("expected overlap reduced to 25, got %d", p.Overlap())
		}
	})

	t.Run("zero values ignored", func(t *testing.T) {
		p := New(WithChunkSize(0), WithOverlap(-1))
		if p.chunkSize != DefaultChunkSize {
			t.Errorf("expected default chunkSize, got %d", p.chunkSize)
		}
		if p.overlap != DefaultChunkOverlap {
			t.Errorf("expected default overlap, got %d", p.overlap)
		}
	})
}

func TestProcessor_Name(t *testing.T) {
	if New().Name() != "chunker" {
		t.Errorf("expected name 'chunker'")
	}
}

func TestProcessor_Process_EmptyContent(t *testing.T) {
	doc := &domain.Document{ID: "d", Title: "Empty.md", RawText: "  \n\n "}

	chunks, err := New().Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks, got %d", len(chunks))
	}
}

func TestProcessor_Process_NoHeadings(t *testing.T) {
	doc := &domain.Document{ID: "d", Title: "Notes.txt", RawText: "Short policy text.\nSecond line."}

	chunks, err := New().Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Section != "" {
		t.Errorf("expected empty section, got %q", chunks[0].Section)
	}
	if chunks[0].Text != "Short policy text.\nSecond line." {
		t.Errorf("unexpected text %q", chunks[0].Text)
	}
	if chunks[0].Title != "Notes.txt" || chunks[0].DocID != "d" {
		t.Errorf("chunk does not reference its document: %+v", chunks[0])
	}
}

func TestProcessor_Process_Headings(t *testing.T) {
	text := `Intro paragraph.

# Returns
Items may be returned within 30 days.

## Damaged Items
Damaged items are replaced free of charge.

## Empty Heading
### Exceptions ###
Clearance items are final sale.`
	doc := &domain.Document{ID: "d", Title: "Returns_and_Refunds.md", RawText: text}

	chunks, err := New().Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []struct{ section, text string }{
		{"", "Intro paragraph."},
		{"Returns", "Items may be returned within 30 days."},
		{"Damaged Items", "Damaged items are replaced free of charge."},
		{"Exceptions", "Clearance items are final sale."},
	}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %+v", len(want), len(chunks), chunks)
	}
	for i, w := range want {
		if chunks[i].Section != w.section {
			t.Errorf("chunk %d: expected section %q, got %q", i, w.section, chunks[i].Section)
		}
		if chunks[i].Text != w.text {
			t.Errorf("chunk %d: expected text %q, got %q", i, w.text, chunks[i].Text)
		}
		if chunks[i].OrderIndex != i {
			t.Errorf("chunk %d: expected order index %d, got %d", i, i, chunks[i].OrderIndex)
		}
	}
}

func longSection() string {
	var b strings.Builder
	b.WriteString("# Shipping\n")
	for i := 0; i < 40; i++ {
		b.WriteString("Bulky items shipped to East Malaysia incur a surcharge and take longer to arrive. ")
		if i%5 == 4 {
			b.WriteString("\n\n")
		}
	}
	return b.String()
}

func TestProcessor_Process_LongSectionRespectsLimit(t *testing.T) {
	p := New(WithChunkSize(200), WithOverlap(40))
	doc := &domain.Document{ID: "d", Title: "Delivery_and_Shipping.md", RawText: longSection()}

	chunks, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if n := utf8.RuneCountInString(c.Text); n > 200 {
			t.Errorf("chunk %d has %d characters, limit 200", i, n)
		}
		if c.Section != "Shipping" {
			t.Errorf("chunk %d lost its section: %q", i, c.Section)
		}
		if c.OrderIndex != i {
			t.Errorf("chunk %d has order index %d", i, c.OrderIndex)
		}
	}
}

func TestProcessor_Process_NeverSplitsMidWord(t *testing.T) {
	p := New(WithChunkSize(120), WithOverlap(30))
	doc := &domain.Document{ID: "d", Title: "a.md", RawText: longSection()}

	chunks, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	words := map[string]bool{}
	for _, w := range strings.Fields(longSection()) {
		words[w] = true
	}
	for i, c := range chunks {
		for _, w := range strings.Fields(c.Text) {
			if !words[w] {
				t.Errorf("chunk %d contains a split word %q", i, w)
			}
		}
	}
}

func TestProcessor_Process_Overlap(t *testing.T) {
	p := New(WithChunkSize(200), WithOverlap(60))
	doc := &domain.Document{ID: "d", Title: "a.md", RawText: longSection()}

	chunks, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 1; i < len(chunks); i++ {
		prevWords := strings.Fields(chunks[i-1].Text)
		last := prevWords[len(prevWords)-1]
		if !strings.Contains(chunks[i].Text, last) {
			t.Errorf("chunk %d does not carry overlap from chunk %d", i, i-1)
		}
	}
}

func TestProcessor_Process_Deterministic(t *testing.T) {
	p := New(WithChunkSize(150), WithOverlap(30))
	doc := &domain.Document{ID: "d", Title: "a.md", RawText: longSection()}

	first, _ := p.Process(context.Background(), doc, nil)
	second, _ := p.Process(context.Background(), doc, nil)

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestProcessor_Process_HardCutsOversizedWord(t *testing.T) {
	p := New(WithChunkSize(10), WithOverlap(0))
	doc := &domain.Document{ID: "d", Title: "a.md", RawText: strings.Repeat("x", 25)}

	chunks, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		if len(c.Text) > 10 {
			t.Errorf("chunk too long: %q", c.Text)
		}
	}
}

func TestProcessor_Process_ChunkIDs(t *testing.T) {
	doc := &domain.Document{ID: "d", Title: "a.md", RawText: "# A\none\n# B\ntwo"}

	chunks, _ := New().Process(context.Background(), doc, nil)
	again, _ := New().Process(context.Background(), doc, nil)

	if chunks[0].ID == chunks[1].ID {
		t.Error("chunk ids must be distinct within a document")
	}
	if chunks[0].ID != again[0].ID {
		t.Error("chunk ids must be stable across runs")
	}
}

func TestProcessor_Process_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	doc := &domain.Document{ID: "d", Title: "a.md", RawText: "text"}

	if _, err := New().Process(ctx, doc, nil); err == nil {
		t.Error("expected context error")
	}
}

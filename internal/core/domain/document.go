package domain

import "time"

// Document represents a loaded policy document.
// It is immutable once loaded; a later ingestion of the same title
// supersedes it rather than merging with it.
type Document struct {
	// ID is derived from the title so re-ingestion targets the same document.
	ID string

	// Title is the file name of the source document (e.g. "Returns_and_Refunds.md").
	Title string

	// SourcePath is the location the document was read from.
	SourcePath string

	// RawText is the normalised text before chunking.
	// Heading lines are kept as "#" markers so the chunker can label sections.
	RawText string
}

// Chunk represents a retrievable unit within a document.
type Chunk struct {
	// ID is derived from DocID and OrderIndex so re-ingestion overwrites.
	ID string

	// DocID links to the parent Document.
	DocID string

	// Title is the parent document title.
	Title string

	// Section is the nearest preceding heading, empty when there is none.
	Section string

	// Text is the chunk content.
	Text string

	// OrderIndex is the ordinal position within the document, contiguous from 0.
	OrderIndex int
}

// Citation identifies where supporting evidence came from.
type Citation struct {
	Title   string `json:"title"`
	Section string `json:"section"`
}

// CitationOf projects a chunk to its citation.
func CitationOf(c Chunk) Citation {
	return Citation{Title: c.Title, Section: c.Section}
}

// ScoredChunk is a retrieved chunk with its similarity to the query.
type ScoredChunk struct {
	Chunk Chunk

	// Score is the cosine similarity to the query vector.
	Score float64

	// Vector is the stored embedding, nil when the backend does not return it.
	Vector []float32
}

// DocumentRecord is the bookkeeping entry for an indexed document.
type DocumentRecord struct {
	DocID       string    `json:"doc_id"`
	Title       string    `json:"title"`
	SourcePath  string    `json:"source_path"`
	ContentHash string    `json:"content_hash"`
	ChunkCount  int       `json:"chunk_count"`
	IndexedAt   time.Time `json:"indexed_at"`
}

// RanksBefore reports whether s ranks ahead of o: higher score first, ties
// broken by order index, then document ID, then chunk ID.
func (s ScoredChunk) RanksBefore(o ScoredChunk) bool {
	if s.Score != o.Score {
		return s.Score > o.Score
	}
	if s.Chunk.OrderIndex != o.Chunk.OrderIndex {
		return s.Chunk.OrderIndex < o.Chunk.OrderIndex
	}
	if s.Chunk.DocID != o.Chunk.DocID {
		return s.Chunk.DocID < o.Chunk.DocID
	}
	return s.Chunk.ID < o.Chunk.ID
}

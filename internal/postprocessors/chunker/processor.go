// Package chunker provides a heading-aware text chunking processor.
package chunker

import (
	"context"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/policyhelper/internal/core/domain"
	"github.com/custodia-labs/policyhelper/internal/identity"
)

// DefaultChunkSize is the default maximum number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

var (
	headingRe   = regexp.MustCompile(`^\s{0,3}#{1,6}\s+(.*?)\s*#*\s*$`)
	paragraphRe = regexp.MustCompile(`\n\s*\n`)
)

// Processor splits document text into sections on markdown headings and
// splits long sections into overlapping sub-chunks.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the maximum chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between consecutive sub-chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the maximum chunk length in characters.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the overlap window in characters.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Process splits the document text into chunks.
// Input chunks are ignored; this processor creates new chunks from document text.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if strings.TrimSpace(doc.RawText) == "" {
		return nil, nil
	}

	var chunks []domain.Chunk
	for _, sec := range splitSections(doc.RawText) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, text := range p.splitBody(sec.body) {
			idx := len(chunks)
			chunks = append(chunks, domain.Chunk{
				ID:         identity.ChunkID(doc.ID, idx),
				DocID:      doc.ID,
				Title:      doc.Title,
				Section:    sec.heading,
				Text:       text,
				OrderIndex: idx,
			})
		}
	}

	return chunks, nil
}

type section struct {
	heading string
	body    string
}

// splitSections groups lines under the nearest preceding heading.
// Text before the first heading belongs to a section with no heading.
func splitSections(text string) []section {
	var (
		out     []section
		heading string
		body    []string
	)
	flush := func() {
		b := strings.TrimSpace(strings.Join(body, "\n"))
		if b != "" {
			out = append(out, section{heading: heading, body: b})
		}
		body = body[:0]
	}

	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if m := headingRe.FindStringSubmatch(line); m != nil {
			flush()
			heading = m[1]
			continue
		}
		body = append(body, line)
	}
	flush()

	return out
}

// piece is an indivisible span and the separator that joins it to the previous one.
type piece struct {
	text string
	sep  string
}

// splitBody breaks a section body into chunks of at most chunkSize characters.
func (p *Processor) splitBody(body string) []string {
	if runeLen(body) <= p.chunkSize {
		return []string{body}
	}

	var (
		out []string
		cur string
	)
	for _, pc := range p.pieces(body) {
		if cur == "" {
			cur = pc.text
			continue
		}
		if runeLen(cur)+len(pc.sep)+runeLen(pc.text) <= p.chunkSize {
			cur += pc.sep + pc.text
			continue
		}
		out = append(out, cur)

		tail := overlapTail(cur, p.overlap)
		if tail != "" && runeLen(tail)+1+runeLen(pc.text) <= p.chunkSize {
			cur = tail + " " + pc.text
		} else {
			cur = pc.text
		}
	}
	if cur != "" {
		out = append(out, cur)
	}

	return out
}

// pieces decomposes body into paragraphs, falling back to sentences,
// then words, then fixed-width cuts for anything longer than chunkSize.
func (p *Processor) pieces(body string) []piece {
	var out []piece
	for _, para := range splitParagraphs(body) {
		if runeLen(para) <= p.chunkSize {
			out = append(out, piece{text: para, sep: "\n\n"})
			continue
		}
		first := true
		for _, sent := range splitSentences(para) {
			sep := " "
			if first {
				sep = "\n\n"
				first = false
			}
			if runeLen(sent) <= p.chunkSize {
				out = append(out, piece{text: sent, sep: sep})
				continue
			}
			for _, word := range strings.Fields(sent) {
				for _, part := range hardCut(word, p.chunkSize) {
					out = append(out, piece{text: part, sep: sep})
					sep = " "
				}
			}
		}
	}
	return out
}

func splitParagraphs(body string) []string {
	var out []string
	for _, para := range paragraphRe.Split(body, -1) {
		if para = strings.TrimSpace(para); para != "" {
			out = append(out, para)
		}
	}
	return out
}

// splitSentences cuts after '.', '!' or '?' when followed by whitespace.
func splitSentences(para string) []string {
	var (
		out   []string
		start int
	)
	runes := []rune(para)
	for i := 0; i < len(runes)-1; i++ {
		if (runes[i] == '.' || runes[i] == '!' || runes[i] == '?') && unicode.IsSpace(runes[i+1]) {
			if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
				out = append(out, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

// hardCut splits a single word longer than size into size-rune parts.
func hardCut(word string, size int) []string {
	runes := []rune(word)
	if len(runes) <= size {
		return []string{word}
	}
	var out []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}

// overlapTail returns at most n trailing characters of s, starting at a word boundary.
func overlapTail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return ""
	}
	start := len(runes) - n
	if !unicode.IsSpace(runes[start-1]) {
		for start < len(runes) && !unicode.IsSpace(runes[start]) {
			start++
		}
	}
	return strings.TrimSpace(string(runes[start:]))
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// Package html normalises HTML policy pages.
package html

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/custodia-labs/policyhelper/internal/core/domain"
	"github.com/custodia-labs/policyhelper/internal/core/ports/driven"
	"github.com/custodia-labs/policyhelper/internal/identity"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic MIME normaliser, higher than plaintext
}

// Normalise converts an HTML document to text. Heading elements become
// "#" lines; every other block becomes its own paragraph.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	doc := domain.Document{
		ID:         identity.DocumentID(raw.Name),
		Title:      raw.Name,
		SourcePath: raw.Path,
		RawText:    stripHTML(string(raw.Content)),
	}

	return &driven.NormaliseResult{
		Document: doc,
	}, nil
}

// blockSelector lists the elements rendered as their own paragraph.
const blockSelector = "p,li,td,th,dt,dd,blockquote,pre,figcaption,div,section,article"

// headingSelector also matches blocks so document order is kept.
const headingSelector = "h1,h2,h3,h4,h5,h6," + blockSelector

// stripHTML extracts readable text. Headings become "#" lines and each
// innermost block becomes a paragraph.
func stripHTML(content string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return ""
	}
	doc.Find("head,script,style,noscript,svg,template").Remove()

	var result []string
	doc.Find(headingSelector).Each(func(_ int, s *goquery.Selection) {
		name := goquery.NodeName(s)
		if len(name) == 2 && name[0] == 'h' && name[1] >= '1' && name[1] <= '6' {
			if text := collapse(s.Text()); text != "" {
				level := int(name[1] - '0')
				result = append(result, strings.Repeat("#", level)+" "+text)
			}
			return
		}
		// Outer containers are skipped; their inner blocks are visited.
		if s.Find(headingSelector).Length() > 0 {
			return
		}
		if text := collapse(s.Text()); text != "" {
			result = append(result, text)
		}
	})

	if len(result) == 0 {
		if text := collapse(doc.Text()); text != "" {
			result = append(result, text)
		}
	}

	return strings.Join(result, "\n\n")
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

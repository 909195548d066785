package html

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policyhelper/internal/core/domain"
)

func TestSupportedMIMETypes(t *testing.T) {
	assert.Equal(t, []string{"text/html", "application/xhtml+xml"}, New().SupportedMIMETypes())
}

func TestNormalise_NilDocument(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNormalise_HeadingsAndParagraphs(t *testing.T) {
	raw := &domain.RawDocument{
		Name: "Warranty_Policy.html",
		Path: "/data/Warranty_Policy.html",
		Content: []byte(`<html><head><title>Ignored</title><style>p{}</style></head>
<body>
<h1>Warranty <em>Policy</em></h1>
<p>All appliances carry a 12&nbsp;month warranty.</p>
<script>alert(1)</script>
<h2 class="x">Exclusions</h2>
<ul><li>Misuse</li><li>Water damage</li></ul>
</body></html>`),
	}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)

	text := result.Document.RawText
	assert.Contains(t, text, "# Warranty Policy")
	assert.Contains(t, text, "## Exclusions")
	assert.Contains(t, text, "All appliances carry a 12")
	assert.Contains(t, text, "Water damage")
	assert.NotContains(t, text, "alert")
	assert.NotContains(t, text, "Ignored")
	assert.Equal(t, "Warranty_Policy.html", result.Document.Title)
}

func TestStripHTML_Entities(t *testing.T) {
	assert.Equal(t, "Fish & Chips", stripHTML("<p>Fish &amp; Chips</p>"))
}

func TestStripHTML_NestedBlocksNotRepeated(t *testing.T) {
	text := stripHTML(`<div><p>First</p><div><p>Second</p></div></div>`)

	assert.Equal(t, "First\n\nSecond", text)
}

func TestStripHTML_BareText(t *testing.T) {
	assert.Equal(t, "Just text", stripHTML("Just   text"))
}

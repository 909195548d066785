// Package llm holds the prompt builder and error classification shared by the
// LLM adapters. Providers live in sub-packages.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/policyhelper/internal/core/domain"
	"github.com/custodia-labs/policyhelper/internal/core/ports/driven"
)

// MaxSourceChars bounds the text of each source in the prompt.
const MaxSourceChars = 600

// Sampling parameters used by every hosted provider.
const (
	Temperature = 0.1
	MaxTokens   = 500
)

// DefaultAnswerPrompt is used when no PromptStore is configured.
// The placeholders are the question and the formatted sources.
const DefaultAnswerPrompt = `You are a helpful company policy assistant. Cite sources by title and section when relevant.
Question: %s
Sources:
%s
Write a concise, accurate answer grounded in the sources. If unsure, say so.`

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// FormatSources renders chunks as "- title | section" blocks separated by "---".
func FormatSources(chunks []domain.Chunk) string {
	var b strings.Builder
	for _, c := range chunks {
		fmt.Fprintf(&b, "- %s | %s\n%s\n---\n", c.Title, c.Section, Truncate(c.Text, MaxSourceChars))
	}
	return b.String()
}

// BuildPrompt renders the answer prompt for query and chunks, loading the
// template from store when one is set.
func BuildPrompt(store driven.PromptStore, query string, chunks []domain.Chunk) string {
	tmpl := DefaultAnswerPrompt
	if store != nil {
		if p, err := store.Load(driven.PromptAnswer); err == nil && strings.Count(p, "%s") == 2 {
			tmpl = p
		}
	}
	return fmt.Sprintf(tmpl, query, FormatSources(chunks))
}

// StatusError maps a non-2xx provider response to a domain error.
func StatusError(provider string, status int, body []byte) error {
	msg := strings.TrimSpace(Truncate(string(body), 300))
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %s: status %d: %s", domain.ErrLLMAuth, provider, status, msg)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s: status %d: %s", domain.ErrRateLimited, provider, status, msg)
	default:
		return fmt.Errorf("%w: %s: status %d: %s", domain.ErrLLMUnavailable, provider, status, msg)
	}
}

// TransportError maps a failed HTTP round trip to a domain error.
func TransportError(provider string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %s: %w", domain.ErrLLMTimeout, provider, err)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrLLMUnavailable, provider, err)
}

// MalformedError reports an unusable response payload.
func MalformedError(provider, detail string) error {
	return fmt.Errorf("%w: %s: %s", domain.ErrLLMMalformedResponse, provider, detail)
}

package domain

import "time"

// RawDocument represents opaque bytes read from a document source.
// It is the source's output before normalisation.
type RawDocument struct {
	// Path is the original file location.
	Path string

	// Name is the base file name, used as the document title.
	Name string

	// MIMEType is the content type inferred from the extension.
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// ModifiedAt is the file modification time.
	ModifiedAt time.Time
}

// Package normalisers provides implementations of the Normaliser interface
// for the document formats found in a policy corpus. Each normaliser knows
// how to extract text from a specific MIME type, keeping headings as "#"
// lines so the chunker can label sections.
//
// Normalisers are registered with the Registry at startup.
package normalisers

// Package identity derives stable identifiers for documents and chunks.
// Identifiers are name-based UUIDs so re-ingesting the same content
// addresses the same records in every vector store backend.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/google/uuid"
)

// namespace scopes every identifier produced by this package.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/custodia-labs/policyhelper"))

// DocumentID returns the identifier for a document title.
// A later document with the same title supersedes the earlier one.
func DocumentID(title string) string {
	return uuid.NewSHA1(namespace, []byte(title)).String()
}

// ChunkID returns the identifier for the chunk at orderIndex of docID.
func ChunkID(docID string, orderIndex int) string {
	return uuid.NewSHA1(namespace, []byte(docID+":"+strconv.Itoa(orderIndex))).String()
}

// ContentHash returns the hex SHA-256 of content.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

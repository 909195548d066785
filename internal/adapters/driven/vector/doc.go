// Package vector holds helpers shared by the vector store adapters.
//
// Adapters live in sub-packages:
//
//	memory    in-process linear scan
//	qdrant    persistent, gRPC
//	chromem   embedded persistent
//	failover  wraps a persistent store with a memory fallback
package vector

import (
	"sort"

	"github.com/custodia-labs/policyhelper/internal/core/domain"
)

// SortHits orders hits by descending score, breaking ties by order index
// then document ID then chunk ID so equal scores rank deterministically.
func SortHits(hits []domain.ScoredChunk) {
	sort.SliceStable(hits, func(i, j int) bool {
		return Less(hits[i], hits[j])
	})
}

// Less reports whether a ranks before b.
func Less(a, b domain.ScoredChunk) bool {
	return a.RanksBefore(b)
}

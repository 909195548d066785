// Package chromem provides an embedded, file-persisted VectorStore using chromem-go.
package chromem

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/custodia-labs/policyhelper/internal/adapters/driven/vector"
	"github.com/custodia-labs/policyhelper/internal/core/domain"
	"github.com/custodia-labs/policyhelper/internal/core/ports/driven"
	"github.com/custodia-labs/policyhelper/internal/vecmath"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Name is the backend identifier.
const Name = "chromem"

// Metadata keys.
const (
	metaDocID      = "doc_id"
	metaTitle      = "title"
	metaSection    = "section"
	metaOrderIndex = "order_index"
)

const compress = false

var errNoEmbedder = errors.New("chromem: documents must be stored with precomputed embeddings")

// Config holds store settings.
type Config struct {
	// Path is the persistence directory; empty keeps the store in memory.
	Path string

	Collection string
	Dimensions int
}

// Store wraps a chromem collection. The adapter's RWMutex makes
// ReplaceDocument atomic with respect to Search.
type Store struct {
	mu         sync.RWMutex
	db         *chromem.DB
	collection *chromem.Collection
	name       string
	dimensions int
}

// New opens (or creates) the database and collection.
func New(cfg Config) (*Store, error) {
	if cfg.Collection == "" {
		cfg.Collection = domain.DefaultCollectionName
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = domain.DefaultEmbeddingDim
	}

	var db *chromem.DB
	if cfg.Path == "" {
		db = chromem.NewDB()
	} else {
		var err error
		db, err = chromem.NewPersistentDB(cfg.Path, compress)
		if err != nil {
			return nil, fmt.Errorf("chromem: failed to create database: %w", err)
		}
	}

	s := &Store{db: db, name: cfg.Collection, dimensions: cfg.Dimensions}
	if err := s.openCollection(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) openCollection() error {
	c, err := s.db.GetOrCreateCollection(s.name, nil, rejectEmbedding)
	if err != nil {
		return fmt.Errorf("chromem: failed to create/get collection: %w", err)
	}
	s.collection = c
	return nil
}

func rejectEmbedding(context.Context, string) ([]float32, error) {
	return nil, errNoEmbedder
}

// Name returns "chromem".
func (s *Store) Name() string {
	return Name
}

// Upsert inserts or overwrites points by chunk ID.
func (s *Store) Upsert(ctx context.Context, points []driven.VectorPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(ctx, points)
}

// ReplaceDocument deletes the document's chunks and adds the new set under one write lock.
func (s *Store) ReplaceDocument(ctx context.Context, docID string, points []driven.VectorPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.collection.Delete(ctx, map[string]string{metaDocID: docID}, nil); err != nil {
		return fmt.Errorf("chromem: delete document %s: %w", docID, err)
	}
	return s.add(ctx, points)
}

// add stores points; callers hold the write lock.
func (s *Store) add(ctx context.Context, points []driven.VectorPoint) error {
	if len(points) == 0 {
		return nil
	}
	docs := make([]chromem.Document, len(points))
	for i, p := range points {
		docs[i] = chromem.Document{
			ID: p.Chunk.ID,
			Metadata: map[string]string{
				metaDocID:      p.Chunk.DocID,
				metaTitle:      p.Chunk.Title,
				metaSection:    p.Chunk.Section,
				metaOrderIndex: strconv.Itoa(p.Chunk.OrderIndex),
			},
			Embedding: vecmath.Fit(p.Vector, s.dimensions),
			Content:   p.Chunk.Text,
		}
	}
	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("chromem: failed to add documents: %w", err)
	}
	return nil
}

// Search returns up to k chunks ranked by cosine similarity, with their vectors.
func (s *Store) Search(ctx context.Context, query []float32, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// chromem rejects nResults above the collection size.
	n := s.collection.Count()
	if n == 0 {
		return nil, nil
	}
	if k > n {
		k = n
	}

	results, err := s.collection.QueryEmbedding(ctx, vecmath.Fit(query, s.dimensions), k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem: query: %w", err)
	}

	hits := make([]domain.ScoredChunk, 0, len(results))
	for _, r := range results {
		order, _ := strconv.Atoi(r.Metadata[metaOrderIndex])
		vec := make([]float32, len(r.Embedding))
		copy(vec, r.Embedding)
		hits = append(hits, domain.ScoredChunk{
			Chunk: domain.Chunk{
				ID:         r.ID,
				DocID:      r.Metadata[metaDocID],
				Title:      r.Metadata[metaTitle],
				Section:    r.Metadata[metaSection],
				Text:       r.Content,
				OrderIndex: order,
			},
			Score:  float64(r.Similarity),
			Vector: vec,
		})
	}
	vector.SortHits(hits)
	return hits, nil
}

// Count returns the number of stored chunks.
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collection.Count(), nil
}

// Reset drops and recreates the collection.
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DeleteCollection(s.name); err != nil {
		return fmt.Errorf("chromem: failed to drop collection: %w", err)
	}
	return s.openCollection()
}

// Ping always succeeds; the database is in process.
func (s *Store) Ping(_ context.Context) error {
	return nil
}

// Close releases resources. Writes are persisted as they happen.
func (s *Store) Close() error {
	return nil
}

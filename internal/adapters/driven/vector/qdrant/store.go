// Package qdrant provides a persistent VectorStore backed by Qdrant over gRPC.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/custodia-labs/policyhelper/internal/core/domain"
	"github.com/custodia-labs/policyhelper/internal/core/ports/driven"
	"github.com/custodia-labs/policyhelper/internal/vecmath"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Name is the backend identifier.
const Name = "qdrant"

// Payload keys.
const (
	fieldDocID      = "doc_id"
	fieldTitle      = "title"
	fieldSection    = "section"
	fieldText       = "text"
	fieldOrderIndex = "order_index"
)

// Config holds connection settings.
type Config struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
	Dimensions int

	// Timeout bounds every call (default: 3s).
	Timeout time.Duration
}

// client is the subset of *qdrant.Client the store uses.
type client interface {
	HealthCheck(ctx context.Context) (*qdrant.HealthCheckReply, error)
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	DeleteCollection(ctx context.Context, collectionName string) error
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Delete(ctx context.Context, request *qdrant.DeletePoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Count(ctx context.Context, request *qdrant.CountPoints) (uint64, error)
	Close() error
}

// Store is a Qdrant-backed vector store.
// Chunk IDs are UUIDs and used verbatim as point IDs.
type Store struct {
	client     client
	collection string
	dimensions int
	timeout    time.Duration
}

// New creates a store. The gRPC connection is established lazily, so New
// succeeds even when the server is down; call EnsureCollection or Ping to
// find out.
func New(cfg Config) (*Store, error) {
	if cfg.Host == "" {
		cfg.Host = domain.DefaultQdrantHost
	}
	if cfg.Port == 0 {
		cfg.Port = domain.DefaultQdrantPort
	}

	c, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: create client: %w", err)
	}
	return newWithClient(c, cfg), nil
}

func newWithClient(c client, cfg Config) *Store {
	if cfg.Collection == "" {
		cfg.Collection = domain.DefaultCollectionName
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = domain.DefaultEmbeddingDim
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = domain.DefaultVectorStoreTimeout
	}
	return &Store{
		client:     c,
		collection: cfg.Collection,
		dimensions: cfg.Dimensions,
		timeout:    cfg.Timeout,
	}
}

// Name returns "qdrant".
func (s *Store) Name() string {
	return Name
}

// EnsureCollection creates the collection with cosine distance if it is missing.
func (s *Store) EnsureCollection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return wrap("check collection", err)
	}
	if exists {
		return nil
	}
	return s.createCollection(ctx)
}

func (s *Store) createCollection(ctx context.Context) error {
	err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.dimensions),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return wrap("create collection", err)
	}
	return nil
}

// Upsert inserts or overwrites points by chunk ID and waits for the write.
func (s *Store) Upsert(ctx context.Context, points []driven.VectorPoint) error {
	if len(points) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	structs := make([]*qdrant.PointStruct, len(points))
	for i, p := range points {
		structs[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(p.Chunk.ID),
			Vectors: qdrant.NewVectors(vecmath.Fit(p.Vector, s.dimensions)...),
			Payload: qdrant.NewValueMap(payloadOf(p.Chunk)),
		}
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         structs,
	})
	if err != nil {
		return wrap("upsert", err)
	}
	return nil
}

// ReplaceDocument upserts the new chunk set, then deletes any of the
// document's points beyond it. Chunk IDs are positional, so the upsert
// overwrites the old points in place and readers never see an empty document.
func (s *Store) ReplaceDocument(ctx context.Context, docID string, points []driven.VectorPoint) error {
	if err := s.Upsert(ctx, points); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Wait:           qdrant.PtrOf(true),
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch(fieldDocID, docID),
				qdrant.NewRange(fieldOrderIndex, &qdrant.Range{
					Gte: qdrant.PtrOf(float64(len(points))),
				}),
			},
		}),
	})
	if err != nil {
		return wrap("delete stale chunks", err)
	}
	return nil
}

// Search returns up to k chunks ranked by cosine similarity, with their
// stored vectors.
func (s *Store) Search(ctx context.Context, query []float32, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vecmath.Fit(query, s.dimensions)...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, wrap("query", err)
	}

	hits := make([]domain.ScoredChunk, 0, len(res))
	for _, p := range res {
		hits = append(hits, domain.ScoredChunk{
			Chunk:  chunkOf(p.GetId().GetUuid(), p.GetPayload()),
			Score:  float64(p.GetScore()),
			Vector: p.GetVectors().GetVector().GetData(),
		})
	}
	return hits, nil
}

// Count returns the exact number of stored points.
func (s *Store) Count(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, wrap("count", err)
	}
	return int(n), nil
}

// Reset drops and recreates the collection.
func (s *Store) Reset(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
		return wrap("delete collection", err)
	}
	return s.createCollection(ctx)
}

// Ping performs a health check.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.client.HealthCheck(ctx); err != nil {
		return wrap("health check", err)
	}
	return nil
}

// Close closes the gRPC connection.
func (s *Store) Close() error {
	return s.client.Close()
}

func payloadOf(c domain.Chunk) map[string]any {
	return map[string]any{
		fieldDocID:      c.DocID,
		fieldTitle:      c.Title,
		fieldSection:    c.Section,
		fieldText:       c.Text,
		fieldOrderIndex: int64(c.OrderIndex),
	}
}

func chunkOf(id string, payload map[string]*qdrant.Value) domain.Chunk {
	return domain.Chunk{
		ID:         id,
		DocID:      payload[fieldDocID].GetStringValue(),
		Title:      payload[fieldTitle].GetStringValue(),
		Section:    payload[fieldSection].GetStringValue(),
		Text:       payload[fieldText].GetStringValue(),
		OrderIndex: int(payload[fieldOrderIndex].GetIntegerValue()),
	}
}

// wrap tags connectivity failures with domain.ErrVectorStoreUnavailable so
// the failover store can react to them.
func wrap(op string, err error) error {
	if isUnavailable(err) {
		return fmt.Errorf("%w: qdrant: %s: %w", domain.ErrVectorStoreUnavailable, op, err)
	}
	return fmt.Errorf("qdrant: %s: %w", op, err)
}

func isUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded:
		return true
	default:
		return false
	}
}

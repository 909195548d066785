package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/policyhelper/internal/core/domain"
	"github.com/custodia-labs/policyhelper/internal/core/ports/driven"
	"github.com/custodia-labs/policyhelper/internal/core/ports/driving"
	"github.com/custodia-labs/policyhelper/internal/identity"
	"github.com/custodia-labs/policyhelper/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// embedBatchSize is the number of chunk texts sent per EmbedBatch call.
const embedBatchSize = 16

// IngestService loads, chunks, embeds and stores the corpus.
type IngestService struct {
	// mu serialises ingestion runs.
	mu sync.Mutex

	source      driven.DocumentSource
	normalisers driven.NormaliserRegistry
	pipeline    driven.PostProcessorPipeline
	embedder    driven.EmbeddingService
	store       driven.VectorStore
	registry    driven.DocumentRegistry
	recorder    *MetricsRecorder
	workers     int

	now func() time.Time
}

// NewIngestService creates an ingest service. registry may be nil.
func NewIngestService(
	source driven.DocumentSource,
	normalisers driven.NormaliserRegistry,
	pipeline driven.PostProcessorPipeline,
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	registry driven.DocumentRegistry,
	recorder *MetricsRecorder,
	workers int,
) *IngestService {
	if workers <= 0 {
		workers = domain.DefaultIngestWorkers
	}
	return &IngestService{
		source:      source,
		normalisers: normalisers,
		pipeline:    pipeline,
		embedder:    embedder,
		store:       store,
		registry:    registry,
		recorder:    recorder,
		workers:     workers,
		now:         time.Now,
	}
}

// Ingest indexes every document from the source. A second concurrent call
// waits for the first to finish.
func (s *IngestService) Ingest(ctx context.Context) (*domain.IngestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger.Section("Ingestion")
	start := time.Now()

	raws, failures, err := s.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrIngestion, s.source.Name(), err)
	}

	result := &domain.IngestResult{Warnings: []domain.IngestWarning{}}
	for _, f := range failures {
		result.Warnings = append(result.Warnings, s.warning(f.Path, f.Err))
	}

	for i := range raws {
		raw := &raws[i]
		n, err := s.ingestOne(ctx, raw)
		if err != nil {
			if ctx.Err() != nil {
				s.recorder.RecordIngestion(result.IndexedDocs, result.IndexedChunks)
				return nil, ctx.Err()
			}
			if errors.Is(err, domain.ErrEmbeddingUnavailable) || errors.Is(err, domain.ErrVectorStoreUnavailable) {
				// Documents already replaced stay in the store.
				s.recorder.RecordIngestion(result.IndexedDocs, result.IndexedChunks)
				logger.Error("ingestion aborted after %d documents: %v", result.IndexedDocs, err)
				return nil, err
			}
			result.Warnings = append(result.Warnings, s.warning(raw.Path, err))
			continue
		}
		result.IndexedDocs++
		result.IndexedChunks += n
	}

	s.recorder.RecordIngestion(result.IndexedDocs, result.IndexedChunks)
	logger.Info("ingestion: %d documents, %d chunks, %d warnings in %s",
		result.IndexedDocs, result.IndexedChunks, len(result.Warnings), time.Since(start).Round(time.Millisecond))
	return result, nil
}

func (s *IngestService) warning(path string, err error) domain.IngestWarning {
	logger.Warn("ingestion: skipping %s: %v", path, err)
	return domain.IngestWarning{SourcePath: path, Error: err.Error()}
}

// ingestOne replaces the stored chunk set of one document and returns its chunk count.
func (s *IngestService) ingestOne(ctx context.Context, raw *domain.RawDocument) (int, error) {
	res, err := s.normalisers.Normalise(ctx, raw)
	if err != nil {
		if errors.Is(err, domain.ErrIngestion) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %s: %w", domain.ErrIngestion, raw.Name, err)
	}
	doc := res.Document
	if doc.SourcePath == "" {
		doc.SourcePath = raw.Path
	}

	chunks, err := s.pipeline.Process(ctx, &doc)
	if err != nil {
		return 0, fmt.Errorf("%w: chunking: %w", domain.ErrIngestion, err)
	}

	vectors, err := s.embed(ctx, chunks)
	if err != nil {
		return 0, err
	}

	points := make([]driven.VectorPoint, len(chunks))
	for i, c := range chunks {
		points[i] = driven.VectorPoint{Chunk: c, Vector: vectors[i]}
	}
	if err := s.store.ReplaceDocument(ctx, doc.ID, points); err != nil {
		return 0, fmt.Errorf("store %s: %w", doc.Title, err)
	}

	if s.registry != nil {
		rec := domain.DocumentRecord{
			DocID:       doc.ID,
			Title:       doc.Title,
			SourcePath:  doc.SourcePath,
			ContentHash: identity.ContentHash(raw.Content),
			ChunkCount:  len(chunks),
			IndexedAt:   s.now().UTC(),
		}
		if err := s.registry.Upsert(ctx, rec); err != nil {
			logger.Warn("ingestion: registry update for %s failed: %v", doc.Title, err)
		}
	}

	logger.Debug("ingestion: %s -> %d chunks", doc.Title, len(chunks))
	return len(chunks), nil
}

// embed computes chunk vectors in bounded parallel batches, preserving order.
func (s *IngestService) embed(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for lo := 0; lo < len(chunks); lo += embedBatchSize {
		hi := min(lo+embedBatchSize, len(chunks))
		g.Go(func() error {
			texts := make([]string, 0, hi-lo)
			for _, c := range chunks[lo:hi] {
				texts = append(texts, c.Text)
			}
			vecs, err := s.embedder.EmbedBatch(gctx, texts)
			if err != nil {
				return fmt.Errorf("embed chunks: %w", err)
			}
			if len(vecs) != len(texts) {
				return fmt.Errorf("%w: got %d vectors for %d chunks", domain.ErrEmbeddingUnavailable, len(vecs), len(texts))
			}
			copy(vectors[lo:hi], vecs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

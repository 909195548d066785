package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policyhelper/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/policyhelper/internal/core/domain"
)

func TestDocumentService_List(t *testing.T) {
	reg := memory.NewDocumentRegistry()
	svc := NewDocumentService(reg)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, reg.Upsert(ctx, domain.DocumentRecord{DocID: "b", Title: "shipping.md", ChunkCount: 3, IndexedAt: now}))
	require.NoError(t, reg.Upsert(ctx, domain.DocumentRecord{DocID: "a", Title: "returns.md", ChunkCount: 1, IndexedAt: now}))

	docs, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "returns.md", docs[0].Title)
	assert.Equal(t, "shipping.md", docs[1].Title)
}

func TestDocumentService_ListEmpty(t *testing.T) {
	docs, err := NewDocumentService(memory.NewDocumentRegistry()).List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestDocumentService_NilRegistry(t *testing.T) {
	svc := NewDocumentService(nil)

	docs, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)

	_, err = svc.Get(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentService_Get(t *testing.T) {
	reg := memory.NewDocumentRegistry()
	svc := NewDocumentService(reg)
	ctx := context.Background()
	require.NoError(t, reg.Upsert(ctx, domain.DocumentRecord{DocID: "doc-1", Title: "Test Doc"}))

	doc, err := svc.Get(ctx, " doc-1 ")
	require.NoError(t, err)
	assert.Equal(t, "Test Doc", doc.Title)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Get(ctx, "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

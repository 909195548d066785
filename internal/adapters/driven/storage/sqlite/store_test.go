package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policyhelper/internal/core/domain"
)

// setupTestStore creates a temporary SQLite registry for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })

	return store
}

func testRecord(id, title string) domain.DocumentRecord {
	return domain.DocumentRecord{
		DocID:       id,
		Title:       title,
		SourcePath:  "/data/" + title,
		ContentHash: "h-" + id,
		ChunkCount:  2,
		IndexedAt:   time.Date(2026, 3, 4, 5, 6, 7, 8, time.UTC),
	}
}

func TestNewStore_EmptyPath(t *testing.T) {
	_, err := NewStore("")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNewStore_CreatesDirectoryAndSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "registry.db")

	store, err := NewStore(path)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, path, store.Path())

	var version int
	require.NoError(t, store.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "registry.db")

	store, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Upsert(ctx, testRecord("d1", "a.md")))
	require.NoError(t, store.Close())

	reopened, err := NewStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, testRecord("d1", "a.md"), *got)
}

func TestStore_UpsertAndGet(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	require.NoError(t, store.Upsert(ctx, testRecord("d1", "Warranty_Policy.md")))

	got, err := store.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, testRecord("d1", "Warranty_Policy.md"), *got)
}

func TestStore_UpsertReplaces(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	rec := testRecord("d1", "a.md")
	require.NoError(t, store.Upsert(ctx, rec))
	rec.ChunkCount = 9
	rec.ContentHash = "new"
	require.NoError(t, store.Upsert(ctx, rec))

	got, err := store.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, 9, got.ChunkCount)
	assert.Equal(t, "new", got.ContentHash)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_UpsertRequiresID(t *testing.T) {
	store := setupTestStore(t)
	assert.ErrorIs(t, store.Upsert(context.Background(), domain.DocumentRecord{}), domain.ErrInvalidInput)
}

func TestStore_GetNotFound(t *testing.T) {
	store := setupTestStore(t)
	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_ListOrdered(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	require.NoError(t, store.Upsert(ctx, testRecord("d2", "b.md")))
	require.NoError(t, store.Upsert(ctx, testRecord("d1", "a.md")))
	require.NoError(t, store.Upsert(ctx, testRecord("d0", "b.md")))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"d1", "d0", "d2"}, []string{list[0].DocID, list[1].DocID, list[2].DocID})
}

func TestStore_ListEmpty(t *testing.T) {
	list, err := setupTestStore(t).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStore_Reset(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	require.NoError(t, store.Upsert(ctx, testRecord("d1", "a.md")))

	require.NoError(t, store.Reset(ctx))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

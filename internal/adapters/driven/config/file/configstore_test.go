package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policyhelper.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestNewConfigStore_EmptyPath(t *testing.T) {
	store, err := NewConfigStore("")

	require.NoError(t, err)
	assert.Equal(t, "", store.Path())
	assert.Zero(t, store.Keys())
	assert.NoError(t, store.Load())
}

func TestNewConfigStore_MissingFile(t *testing.T) {
	_, err := NewConfigStore(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewConfigStore_InvalidTOML(t *testing.T) {
	path := writeConfig(t, "this is = = not toml")
	_, err := NewConfigStore(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestConfigStore_TypedGetters(t *testing.T) {
	path := writeConfig(t, `
[llm]
provider = "openai"
validate_on_start = false

[qdrant]
port = 6334

[retrieval]
mmr_lambda = 0.5
oversample = 3
`)
	store, err := NewConfigStore(path)
	require.NoError(t, err)

	assert.Equal(t, path, store.Path())
	assert.Equal(t, "openai", store.GetString("llm.provider"))
	assert.False(t, store.GetBool("llm.validate_on_start"))
	assert.Equal(t, 6334, store.GetInt("qdrant.port"))
	assert.InDelta(t, 0.5, store.GetFloat("retrieval.mmr_lambda"), 1e-9)
	assert.InDelta(t, 3.0, store.GetFloat("retrieval.oversample"), 1e-9)

	// Wrong types and missing keys yield zero values.
	assert.Equal(t, "", store.GetString("qdrant.port"))
	assert.Equal(t, 0, store.GetInt("llm.provider"))
	assert.Zero(t, store.GetFloat("missing"))
	assert.False(t, store.GetBool("missing"))

	_, ok := store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_EmptyFile(t *testing.T) {
	store, err := NewConfigStore(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Zero(t, store.Keys())
}

func TestConfigStore_Reload(t *testing.T) {
	path := writeConfig(t, "[server]\nhttp_addr = \":8000\"\n")
	store, err := NewConfigStore(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("[server]\nhttp_addr = \":9000\"\n"), 0600))
	require.NoError(t, store.Load())
	assert.Equal(t, ":9000", store.GetString("server.http_addr"))
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(writeConfig(t, "[a]\nb = \"c\"\n"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.GetString("a.b")
		}()
		go func() {
			defer wg.Done()
			_ = store.Load()
		}()
	}
	wg.Wait()
	assert.Equal(t, "c", store.GetString("a.b"))
}

func TestFlattenMap(t *testing.T) {
	flat := flattenMap(map[string]any{
		"a": map[string]any{"b": int64(1), "c": map[string]any{"d": "x"}},
		"e": true,
	}, "")
	assert.Equal(t, map[string]any{"a.b": int64(1), "a.c.d": "x", "e": true}, flat)
}

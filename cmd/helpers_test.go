// File: cmd/helpers_test.go
package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lodestar/internal/config"
	"github.com/xkilldash9x/lodestar/internal/memory"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadQueryJSON(t *testing.T) {
	path := writeTempFile(t, "query.json", `{
  "fields": {
    "product_price": {"selector": ".price"},
    "title": {}
  }
}`)

	q, err := loadQuery(path)
	require.NoError(t, err)
	require.Len(t, q.Fields, 2)
	assert.Equal(t, ".price", q.Fields["product_price"].Selector)
}

func TestLoadQueryYAML(t *testing.T) {
	path := writeTempFile(t, "query.yaml", `fields:
  product_price:
    selector: ".price"
    type: number
  cta_button:
    text_hint: "Buy now"
`)

	q, err := loadQuery(path)
	require.NoError(t, err)
	require.Len(t, q.Fields, 2)
	assert.Equal(t, "number", q.Fields["product_price"].Type)
	assert.Equal(t, "Buy now", q.Fields["cta_button"].TextHint)
}

func TestLoadQueryEmptyFields(t *testing.T) {
	path := writeTempFile(t, "query.json", `{"fields": {}}`)

	_, err := loadQuery(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "defines no fields")
}

func TestLoadQueryMissingFile(t *testing.T) {
	_, err := loadQuery(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

func TestLoadQueryMalformed(t *testing.T) {
	path := writeTempFile(t, "query.json", `{not json`)

	_, err := loadQuery(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse query file")
}

func TestBuildStoreFileBackend(t *testing.T) {
	c := config.NewDefaultConfig()
	c.Healing.CacheFile = filepath.Join(t.TempDir(), "selectors.json")
	c.Healing.Store.Backend = "file"

	store, cleanup, err := buildStore(context.Background(), c, zap.NewNop())
	require.NoError(t, err)
	defer cleanup()

	_, ok := store.(*memory.FileStore)
	assert.True(t, ok)
}

func TestWriteOutputToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")

	require.NoError(t, writeOutput(path, map[string]int{"items": 3}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"items": 3}`, string(data))
}

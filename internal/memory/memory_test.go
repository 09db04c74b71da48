package memory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/lodestar/api/schemas"
)

// fakeStore is an in-memory SelectorStore for unit tests.
type fakeStore struct {
	mu      sync.Mutex
	entries map[string]schemas.CacheEntry
	loadErr error
	saveErr error
	saves   int
}

func (f *fakeStore) Load(context.Context) (map[string]schemas.CacheEntry, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]schemas.CacheEntry, len(f.entries))
	for k, v := range f.entries {
		out[k] = v
	}
	return out, nil
}

func (f *fakeStore) SaveAll(_ context.Context, entries map[string]schemas.CacheEntry) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = entries
	f.saves++
	return nil
}

const defaultTTL = 168 * time.Hour

func TestKey(t *testing.T) {
	assert.Equal(t, "https://example.com/p::price", Key("https://example.com/p", "price"))
}

func TestRememberRecallRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	mem := New(ctx, store, defaultTTL, zap.NewNop())

	require.NoError(t, mem.Remember(ctx, "https://example.com", "price", ".price"))

	selector, ok := mem.Recall("https://example.com", "price")
	require.True(t, ok)
	assert.Equal(t, ".price", selector)

	t.Run("flushed to store on every mutation", func(t *testing.T) {
		assert.Equal(t, 1, store.saves)
		require.NoError(t, mem.Remember(ctx, "https://example.com", "title", "h1"))
		assert.Equal(t, 2, store.saves)
	})

	t.Run("overwrite replaces the entry", func(t *testing.T) {
		require.NoError(t, mem.Remember(ctx, "https://example.com", "price", ".amount"))
		selector, ok := mem.Recall("https://example.com", "price")
		require.True(t, ok)
		assert.Equal(t, ".amount", selector)
	})
}

func TestRecallTTLBoundary(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	makeMemory := func(age time.Duration) *Memory {
		store := &fakeStore{entries: map[string]schemas.CacheEntry{
			Key("https://example.com", "price"): {
				Selector:  ".price",
				UpdatedAt: now.Add(-age).Format(time.RFC3339Nano),
			},
		}}
		mem := New(ctx, store, defaultTTL, zap.NewNop())
		mem.now = func() time.Time { return now }
		return mem
	}

	t.Run("one second inside the window is fresh", func(t *testing.T) {
		mem := makeMemory(defaultTTL - time.Second)
		selector, ok := mem.Recall("https://example.com", "price")
		require.True(t, ok)
		assert.Equal(t, ".price", selector)
	})

	t.Run("one second past the window is stale", func(t *testing.T) {
		mem := makeMemory(defaultTTL + time.Second)
		_, ok := mem.Recall("https://example.com", "price")
		assert.False(t, ok)
	})

	t.Run("stale entry stays physically present", func(t *testing.T) {
		mem := makeMemory(defaultTTL + time.Second)
		assert.Equal(t, 1, mem.Len())
	})
}

func TestRecallRejectsGarbageTimestamps(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{entries: map[string]schemas.CacheEntry{
		Key("u", "a"): {Selector: ".a", UpdatedAt: "not-a-timestamp"},
		Key("u", "b"): {Selector: ".b", UpdatedAt: ""},
	}}
	mem := New(ctx, store, defaultTTL, zap.NewNop())

	_, ok := mem.Recall("u", "a")
	assert.False(t, ok)
	_, ok = mem.Recall("u", "b")
	assert.False(t, ok)
}

func TestRememberIgnoresEmptySelector(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	mem := New(ctx, store, defaultTTL, zap.NewNop())

	require.NoError(t, mem.Remember(ctx, "u", "price", ""))
	assert.Equal(t, 0, store.saves)
	assert.Equal(t, 0, mem.Len())
}

func TestNewRecoversFromLoadFailure(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.WarnLevel)
	store := &fakeStore{loadErr: fmt.Errorf("disk exploded")}

	mem := New(ctx, store, defaultTTL, zap.New(core))
	require.NotNil(t, mem)
	assert.Equal(t, 0, mem.Len())
	assert.Equal(t, 1, logs.FilterMessageSnippet("starting empty").Len())
}

func TestConcurrentRememberSerializes(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	mem := New(ctx, store, defaultTTL, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("field_%d", i)
			_ = mem.Remember(ctx, "https://example.com", name, "#"+name)
		}(i)
	}
	wg.Wait()

	// Writes are serialized under the memory mutex, so no update is lost.
	assert.Equal(t, 32, mem.Len())
	for i := 0; i < 32; i++ {
		name := fmt.Sprintf("field_%d", i)
		selector, ok := mem.Recall("https://example.com", name)
		require.True(t, ok, "entry %s missing", name)
		assert.Equal(t, "#"+name, selector)
	}
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()

	t.Run("missing file loads empty", func(t *testing.T) {
		store := NewFileStore(filepath.Join(t.TempDir(), "absent.json"), zap.NewNop())
		entries, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("round trip through disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cache", "selectors.json")
		store := NewFileStore(path, zap.NewNop())

		in := map[string]schemas.CacheEntry{
			"https://example.com::price": {Selector: ".price", UpdatedAt: "2026-08-01T12:00:00Z"},
		}
		require.NoError(t, store.SaveAll(ctx, in))

		out, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("corrupt content resets to empty with a warning", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "selectors.json")
		require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o644))

		core, logs := observer.New(zapcore.WarnLevel)
		store := NewFileStore(path, zap.New(core))

		entries, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, entries)
		assert.Equal(t, 1, logs.FilterMessageSnippet("invalid").Len())
	})

	t.Run("non-object json resets to empty", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "selectors.json")
		require.NoError(t, os.WriteFile(path, []byte(`["a","b"]`), 0o644))

		store := NewFileStore(path, zap.NewNop())
		entries, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

// internal/memory/memory.go
package memory

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/lodestar/api/schemas"
)

// Key builds the persisted cache key scoping a logical name to one
// document identity.
func Key(documentIdentity, logicalName string) string {
	return documentIdentity + "::" + logicalName
}

// Memory is the selector memory: a process-wide mapping from
// (document identity, logical name) to the last selector that resolved
// successfully. The full mapping is loaded once at construction and
// rewritten through the store on every mutation. Staleness is enforced at
// read time; entries are only ever removed by overwrite.
//
// The mutex is held across SaveAll so concurrent Remember calls from
// independent resolutions serialize instead of clobbering each other.
type Memory struct {
	store  schemas.SelectorStore
	ttl    time.Duration
	logger *zap.Logger

	mu      sync.Mutex
	entries map[string]schemas.CacheEntry

	// now is swappable for TTL boundary tests.
	now func() time.Time
}

// New loads the persisted mapping and wraps it with TTL semantics. A
// store that fails to load yields an empty memory and a warning, never an
// error.
func New(ctx context.Context, store schemas.SelectorStore, ttl time.Duration, logger *zap.Logger) *Memory {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("memory")

	entries, err := store.Load(ctx)
	if err != nil {
		logger.Warn("Selector memory failed to load, starting empty.", zap.Error(err))
		entries = nil
	}
	if entries == nil {
		entries = make(map[string]schemas.CacheEntry)
	}

	return &Memory{
		store:   store,
		ttl:     ttl,
		logger:  logger,
		entries: entries,
		now:     time.Now,
	}
}

// Remember records a successful resolution and immediately re-serializes
// the whole mapping to the store. Empty selectors are ignored.
func (m *Memory) Remember(ctx context.Context, documentIdentity, logicalName, selector string) error {
	if selector == "" {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[Key(documentIdentity, logicalName)] = schemas.CacheEntry{
		Selector:  selector,
		UpdatedAt: m.now().UTC().Format(time.RFC3339Nano),
	}
	return m.store.SaveAll(ctx, m.snapshotLocked())
}

// Recall returns the remembered selector unless the entry is missing or
// older than the TTL. Stale entries stay in storage until overwritten.
func (m *Memory) Recall(documentIdentity, logicalName string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[Key(documentIdentity, logicalName)]
	if !ok {
		return "", false
	}
	if !m.fresh(entry.UpdatedAt) {
		return "", false
	}
	return entry.Selector, true
}

// Entries returns a copy of the current mapping, fresh and stale alike.
func (m *Memory) Entries() map[string]schemas.CacheEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Len reports the number of physically present entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Fresh reports whether a timestamp is within the TTL window.
func (m *Memory) Fresh(updatedAt string) bool {
	return m.fresh(updatedAt)
}

func (m *Memory) fresh(updatedAt string) bool {
	if updatedAt == "" {
		return false
	}
	parsed, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return false
	}
	if m.ttl <= 0 {
		return true
	}
	return !parsed.Before(m.now().Add(-m.ttl))
}

func (m *Memory) snapshotLocked() map[string]schemas.CacheEntry {
	out := make(map[string]schemas.CacheEntry, len(m.entries))
	for k, v := range m.entries {
		out[k] = v
	}
	return out
}

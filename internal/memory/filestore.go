// internal/memory/filestore.go
package memory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lodestar/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FileStore persists the selector memory as a single flat JSON object
// mapping "<url>::<name>" to {selector, updated_at}.
type FileStore struct {
	path   string
	logger *zap.Logger
}

var _ schemas.SelectorStore = (*FileStore)(nil)

// NewFileStore creates a file-backed selector store. The file is created
// lazily on the first SaveAll.
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{
		path:   path,
		logger: logger.Named("selector_store"),
	}
}

// Load reads the persisted mapping. A missing file is an empty mapping;
// corrupt content resets to empty with a warning so a damaged cache can
// never take the process down.
func (s *FileStore) Load(_ context.Context) (map[string]schemas.CacheEntry, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]schemas.CacheEntry), nil
		}
		return nil, fmt.Errorf("failed to read selector cache %s: %w", s.path, err)
	}

	entries := make(map[string]schemas.CacheEntry)
	if err := json.Unmarshal(raw, &entries); err != nil {
		s.logger.Warn("Selector cache is invalid, starting empty.",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return make(map[string]schemas.CacheEntry), nil
	}
	return entries, nil
}

// SaveAll replaces the persisted mapping wholesale.
func (s *FileStore) SaveAll(_ context.Context, entries map[string]schemas.CacheEntry) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	raw, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode selector cache: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write selector cache %s: %w", s.path, err)
	}
	return nil
}

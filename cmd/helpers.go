// File: cmd/helpers.go
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/lodestar/api/schemas"
	"github.com/xkilldash9x/lodestar/internal/config"
	"github.com/xkilldash9x/lodestar/internal/locator"
	"github.com/xkilldash9x/lodestar/internal/memory"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// loadQuery reads a query file. YAML and JSON are both accepted; the
// extension decides the codec.
func loadQuery(path string) (schemas.Query, error) {
	var q schemas.Query

	data, err := os.ReadFile(path)
	if err != nil {
		return q, fmt.Errorf("failed to read query file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &q)
	default:
		err = json.Unmarshal(data, &q)
	}
	if err != nil {
		return q, fmt.Errorf("failed to parse query file %s: %w", path, err)
	}
	if len(q.Fields) == 0 {
		return q, fmt.Errorf("query file %s defines no fields", path)
	}
	return q, nil
}

// buildStore creates the configured selector memory backend. The returned
// cleanup releases backend resources and is always safe to call.
func buildStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (schemas.SelectorStore, func(), error) {
	switch cfg.Healing.Store.Backend {
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Healing.Store.PostgresURL)
		if err != nil {
			return nil, func() {}, fmt.Errorf("failed to create postgres pool: %w", err)
		}
		store, err := memory.NewPGStore(ctx, pool, logger)
		if err != nil {
			pool.Close()
			return nil, func() {}, err
		}
		return store, pool.Close, nil
	default:
		return memory.NewFileStore(cfg.Healing.CacheFile, logger), func() {}, nil
	}
}

// buildLocator wires store, selector memory, and locator together.
func buildLocator(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*locator.Locator, func(), error) {
	store, cleanup, err := buildStore(ctx, cfg, logger)
	if err != nil {
		return nil, func() {}, err
	}
	mem := memory.New(ctx, store, cfg.Healing.CacheTTL(), logger)
	return locator.New(cfg.Healing, mem, logger), cleanup, nil
}

// writeOutput renders v as indented JSON to path, or stdout when path is
// empty.
func writeOutput(path string, v interface{}) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	encoded = append(encoded, '\n')

	if path == "" {
		_, err = os.Stdout.Write(encoded)
		return err
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

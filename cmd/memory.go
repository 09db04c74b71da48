// File: cmd/memory.go
package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lodestar/api/schemas"
	"github.com/xkilldash9x/lodestar/internal/memory"
	"github.com/xkilldash9x/lodestar/internal/observability"
)

// newMemoryCmd creates the `memory` command group for inspecting and
// maintaining the selector memory.
func newMemoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect and maintain the selector memory",
	}
	cmd.AddCommand(newMemoryListCmd())
	cmd.AddCommand(newMemoryPruneCmd())
	cmd.AddCommand(newMemoryClearCmd())
	return cmd
}

// memoryEntry is the list output shape: one remembered selector plus its
// freshness under the configured TTL.
type memoryEntry struct {
	Key       string `json:"key"`
	Selector  string `json:"selector"`
	UpdatedAt string `json:"updated_at"`
	Fresh     bool   `json:"fresh"`
}

func newMemoryListCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List remembered selectors",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			store, cleanup, err := buildStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			mem := memory.New(ctx, store, cfg.Healing.CacheTTL(), logger)

			entries := make([]memoryEntry, 0, mem.Len())
			for key, entry := range mem.Entries() {
				entries = append(entries, memoryEntry{
					Key:       key,
					Selector:  entry.Selector,
					UpdatedAt: entry.UpdatedAt,
					Fresh:     mem.Fresh(entry.UpdatedAt),
				})
			}
			return writeOutput(output, entries)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newMemoryPruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Drop stale entries from the selector memory",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			store, cleanup, err := buildStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			mem := memory.New(ctx, store, cfg.Healing.CacheTTL(), logger)

			kept := make(map[string]schemas.CacheEntry)
			for key, entry := range mem.Entries() {
				if mem.Fresh(entry.UpdatedAt) {
					kept[key] = entry
				}
			}
			dropped := mem.Len() - len(kept)
			if err := store.SaveAll(ctx, kept); err != nil {
				return err
			}
			logger.Info("Pruned selector memory.",
				zap.Int("kept", len(kept)),
				zap.Int("dropped", dropped),
			)
			return nil
		},
	}
}

func newMemoryClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget every remembered selector",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			store, cleanup, err := buildStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := store.SaveAll(ctx, map[string]schemas.CacheEntry{}); err != nil {
				return err
			}
			logger.Info("Selector memory cleared.")
			return nil
		},
	}
}

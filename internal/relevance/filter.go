// internal/relevance/filter.go
package relevance

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/lodestar/api/schemas"
	"github.com/xkilldash9x/lodestar/internal/config"
)

// Filter ranks free-form content blocks by a fixed text heuristic: text
// mass normalized against a 500-character budget, a bonus per keyword
// hit, and a penalty for very short fragments. Deterministic for a fixed
// snapshot and keyword list.
type Filter struct {
	cfg    config.RelevanceConfig
	logger *zap.Logger
}

// New creates a relevance filter. Falls back to the default boilerplate
// exclusion list when the config carries none.
func New(cfg config.RelevanceConfig, logger *zap.Logger) *Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(cfg.ExcludeSelectors) == 0 {
		cfg.ExcludeSelectors = DefaultExcludeSelectors()
	}
	if cfg.MaxBlocks <= 0 {
		cfg.MaxBlocks = 800
	}
	return &Filter{cfg: cfg, logger: logger.Named("relevance")}
}

// DefaultExcludeSelectors is the boilerplate that never counts as content.
func DefaultExcludeSelectors() []string {
	return []string{"nav", "footer", "aside", ".advert", ".cookie", ".newsletter", "script", "style"}
}

// ScoreText computes the relevance score for one block of text against a
// lowercased keyword list.
func ScoreText(text string, keywords []string) float64 {
	text = strings.ToLower(text)
	if text == "" {
		return 0
	}

	score := float64(len(text)) / 500.0
	if score > 1.2 {
		score = 1.2
	}
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			score += 0.6
		}
	}

	// Fragments under five words are usually chrome, not content.
	if strings.Count(text, " ") < 4 {
		score -= 0.3
	}

	if score < 0 {
		return 0
	}
	return score
}

// FilterBlocks snapshots the document's content-bearing nodes, scores
// them, and returns the blocks above minScore sorted descending, capped
// at maxItems. Ties keep snapshot order.
func (f *Filter) FilterBlocks(
	ctx context.Context,
	doc schemas.DocumentQuerier,
	keywords []string,
	minScore float64,
	maxItems int,
) ([]schemas.RelevanceItem, error) {
	if maxItems <= 0 {
		maxItems = f.cfg.MaxItems
	}

	normalized := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		keyword = strings.ToLower(strings.Join(strings.Fields(keyword), " "))
		if keyword != "" {
			normalized = append(normalized, keyword)
		}
	}

	blocks, err := doc.SnapshotContentBlocks(ctx, f.cfg.ExcludeSelectors, f.cfg.MaxBlocks)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot content blocks: %w", err)
	}

	scored := make([]schemas.RelevanceItem, 0, len(blocks))
	for _, block := range blocks {
		score := ScoreText(block.Text, normalized)
		if score < minScore {
			continue
		}
		scored = append(scored, schemas.RelevanceItem{
			Selector: block.Selector,
			Text:     block.Text,
			Tag:      block.Tag,
			Score:    score,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > maxItems {
		scored = scored[:maxItems]
	}

	f.logger.Debug("Ranked content blocks.",
		zap.Int("snapshot", len(blocks)),
		zap.Int("kept", len(scored)),
	)
	return scored, nil
}

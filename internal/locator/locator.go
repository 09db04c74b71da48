// internal/locator/locator.go
package locator

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/lodestar/api/schemas"
	"github.com/xkilldash9x/lodestar/internal/config"
	"github.com/xkilldash9x/lodestar/internal/memory"
)

// Locator resolves logical field names against a live document using a
// fixed fallback pipeline: cache, direct, text, semantic. Each strategy
// runs at most once per Locate call and the pipeline short-circuits on
// the first success. A nil result is not an error; it means the field is
// absent on this page and the caller decides whether that is fatal.
type Locator struct {
	cfg    config.HealingConfig
	memory *memory.Memory
	logger *zap.Logger
}

// New creates a locator around a loaded selector memory.
func New(cfg config.HealingConfig, mem *memory.Memory, logger *zap.Logger) *Locator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Locator{
		cfg:    cfg,
		memory: mem,
		logger: logger.Named("locator"),
	}
}

// Memory exposes the selector memory backing this locator.
func (l *Locator) Memory() *memory.Memory {
	return l.memory
}

// Locate runs the resolution pipeline for one logical field. candidates
// is the ordered selector list, most trusted first. textHint enables the
// text strategy; semanticHint seeds the token set for the semantic
// strategy and falls back to the logical name when empty.
func (l *Locator) Locate(
	ctx context.Context,
	doc schemas.DocumentQuerier,
	candidates []string,
	logicalName string,
	textHint string,
	semanticHint string,
) (*schemas.LocationResult, error) {
	selectors := make([]string, 0, len(candidates))
	for _, sel := range candidates {
		if sel != "" {
			selectors = append(selectors, sel)
		}
	}
	if len(selectors) == 0 {
		return nil, nil
	}

	// Disabled mode degenerates to a single direct attempt on the first
	// candidate, skipping cache, text, and semantic entirely.
	if !l.cfg.Enabled {
		el := l.trySelector(ctx, doc, selectors[0])
		if el == nil {
			return nil, ctx.Err()
		}
		return &schemas.LocationResult{
			Element:  el,
			Selector: selectors[0],
			Strategy: schemas.StrategyDirect,
			Healed:   false,
		}, nil
	}

	identity := l.documentIdentity(ctx, doc)

	if l.hasStrategy(schemas.StrategyCache) {
		if res := l.tryCache(ctx, doc, identity, logicalName); res != nil {
			return res, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if l.hasStrategy(schemas.StrategyDirect) {
		if res := l.tryDirect(ctx, doc, identity, logicalName, selectors); res != nil {
			return res, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if l.hasStrategy(schemas.StrategyText) {
		if res := l.tryText(ctx, doc, identity, logicalName, textHint); res != nil {
			return res, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if l.hasStrategy(schemas.StrategySemantic) {
		hint := semanticHint
		if hint == "" {
			hint = logicalName
		}
		if res := l.trySemantic(ctx, doc, identity, logicalName, selectors, hint, textHint); res != nil {
			return res, nil
		}
	}

	return nil, ctx.Err()
}

// tryCache replays a remembered selector after re-verifying it still
// matches the live tree. Stale entries are ignored, not deleted; the next
// successful resolution overwrites them.
func (l *Locator) tryCache(ctx context.Context, doc schemas.DocumentQuerier, identity, logicalName string) *schemas.LocationResult {
	cached, ok := l.memory.Recall(identity, logicalName)
	if !ok {
		return nil
	}
	el := l.trySelector(ctx, doc, cached)
	if el == nil {
		return nil
	}
	l.logger.Debug("Resolved from selector memory.",
		zap.String("field", logicalName),
		zap.String("selector", cached),
	)
	return &schemas.LocationResult{
		Element:  el,
		Selector: cached,
		Strategy: schemas.StrategyCache,
		Healed:   false,
	}
}

// tryDirect walks the candidate list in order; the first selector that
// matches at least one node wins and is remembered.
func (l *Locator) tryDirect(ctx context.Context, doc schemas.DocumentQuerier, identity, logicalName string, selectors []string) *schemas.LocationResult {
	for _, selector := range selectors {
		if ctx.Err() != nil {
			return nil
		}
		el := l.trySelector(ctx, doc, selector)
		if el == nil {
			continue
		}
		l.remember(ctx, identity, logicalName, selector)
		return &schemas.LocationResult{
			Element:  el,
			Selector: selector,
			Strategy: schemas.StrategyDirect,
			Healed:   false,
		}
	}
	return nil
}

// tryText searches for an exact, whitespace-normalized text match and
// heals the field with the structural path of the matched node.
func (l *Locator) tryText(ctx context.Context, doc schemas.DocumentQuerier, identity, logicalName, textHint string) *schemas.LocationResult {
	hint := normalizeSpace(textHint)
	if hint == "" {
		return nil
	}

	qctx, cancel := l.queryContext(ctx)
	defer cancel()

	el, err := doc.FindByText(qctx, hint)
	if err != nil || el == nil {
		return nil
	}
	path, err := doc.ComputePathSelector(qctx, el)
	if err != nil || path == "" {
		return nil
	}

	l.remember(ctx, identity, logicalName, path)
	l.logger.Debug("Healed field via text match.",
		zap.String("field", logicalName),
		zap.String("selector", path),
	)
	return &schemas.LocationResult{
		Element:  el,
		Selector: path,
		Strategy: schemas.StrategyText,
		Healed:   true,
	}
}

// trySemantic scores a bounded snapshot of the tree against the token set
// and accepts the best record when it clears the similarity threshold.
// Ties keep the first-encountered record, so document order is the
// deterministic tie break.
func (l *Locator) trySemantic(
	ctx context.Context,
	doc schemas.DocumentQuerier,
	identity, logicalName string,
	selectors []string,
	semanticHint, textHint string,
) *schemas.LocationResult {
	tokens := ExtractTokens(selectors, semanticHint)

	qctx, cancel := l.queryContext(ctx)
	records, err := doc.SnapshotCandidates(qctx, l.cfg.MaxCandidates)
	cancel()
	if err != nil {
		l.logger.Debug("Candidate snapshot failed.", zap.Error(err))
		return nil
	}

	var best *schemas.CandidateRecord
	var bestScore float64
	for i := range records {
		score := ScoreCandidate(records[i], tokens, textHint)
		if score > bestScore {
			best = &records[i]
			bestScore = score
		}
	}

	if best == nil || bestScore < l.cfg.SimilarityThreshold {
		return nil
	}

	// The tree may have shifted between snapshot and resolve; a dead path
	// selector is a miss, not an error.
	el := l.trySelector(ctx, doc, best.Selector)
	if el == nil {
		return nil
	}

	l.remember(ctx, identity, logicalName, best.Selector)
	l.logger.Debug("Healed field via semantic scoring.",
		zap.String("field", logicalName),
		zap.String("selector", best.Selector),
		zap.Float64("score", bestScore),
	)
	return &schemas.LocationResult{
		Element:  el,
		Selector: best.Selector,
		Strategy: schemas.StrategySemantic,
		Healed:   true,
		Score:    bestScore,
	}
}

// trySelector resolves a handle for the first node matching the selector.
// Any query error, including a timeout, counts as a non-match so the
// pipeline keeps falling through.
func (l *Locator) trySelector(ctx context.Context, doc schemas.DocumentQuerier, selector string) schemas.Element {
	qctx, cancel := l.queryContext(ctx)
	defer cancel()

	count, err := doc.MatchCount(qctx, selector)
	if err != nil || count <= 0 {
		return nil
	}
	el, err := doc.ResolveHandle(qctx, selector)
	if err != nil {
		return nil
	}
	return el
}

func (l *Locator) documentIdentity(ctx context.Context, doc schemas.DocumentQuerier) string {
	qctx, cancel := l.queryContext(ctx)
	defer cancel()

	identity, err := doc.DocumentIdentity(qctx)
	if err != nil {
		l.logger.Debug("Could not determine document identity.", zap.Error(err))
		return ""
	}
	return identity
}

func (l *Locator) remember(ctx context.Context, identity, logicalName, selector string) {
	if err := l.memory.Remember(ctx, identity, logicalName, selector); err != nil {
		l.logger.Warn("Failed to persist selector memory.",
			zap.String("field", logicalName),
			zap.Error(err),
		)
	}
}

func (l *Locator) hasStrategy(s schemas.Strategy) bool {
	for _, name := range l.cfg.Strategies {
		if schemas.Strategy(name) == s {
			return true
		}
	}
	return false
}

// queryContext bounds a single tree query with the configured per-query
// timeout. The pipeline itself carries no deadline of its own.
func (l *Locator) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if l.cfg.QueryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, l.cfg.QueryTimeout)
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

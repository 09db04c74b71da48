// internal/orchestrator/orchestrator.go
package orchestrator

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/lodestar/api/schemas"
	"github.com/xkilldash9x/lodestar/internal/config"
	"github.com/xkilldash9x/lodestar/internal/extract"
)

// Page is a navigable document the orchestrator can run a query against.
type Page interface {
	schemas.DocumentQuerier
	Navigate(ctx context.Context, url string) error
	Close(ctx context.Context) error
}

// PageOpener opens a fresh page for one extraction task.
type PageOpener func(ctx context.Context) (Page, error)

// Result is the per-URL outcome of a batch run. A failed URL carries its
// error here; it never aborts the rest of the batch.
type Result struct {
	URL     string                    `json:"url"`
	Success bool                      `json:"success"`
	Error   string                    `json:"error,omitempty"`
	Data    *schemas.ExtractionResult `json:"data,omitempty"`
}

// Orchestrator fans one query out over many URLs with bounded tab
// concurrency and a global navigation rate limit.
type Orchestrator struct {
	cfg       config.OrchestratorConfig
	open      PageOpener
	extractor *extract.Extractor
	limiter   *rate.Limiter
	sem       *semaphore.Weighted
	logger    *zap.Logger
}

// New creates an orchestrator around a page opener and an extractor.
func New(cfg config.OrchestratorConfig, open PageOpener, ex *extract.Extractor, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	maxTabs := cfg.MaxTabs
	if maxTabs <= 0 {
		maxTabs = 2
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	return &Orchestrator{
		cfg:       cfg,
		open:      open,
		extractor: ex,
		limiter:   rate.NewLimiter(limit, 1),
		sem:       semaphore.NewWeighted(int64(maxTabs)),
		logger:    logger.Named("orchestrator"),
	}
}

// ExtractAll runs the query against every URL. Results come back in input
// order, one per URL, with per-URL failures recorded in place. The only
// returned error is context cancellation.
func (o *Orchestrator) ExtractAll(ctx context.Context, urls []string, q schemas.Query) ([]Result, error) {
	results := make([]Result, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	for i, url := range urls {
		i, url := i, url
		g.Go(func() error {
			if err := o.sem.Acquire(gctx, 1); err != nil {
				results[i] = failure(url, err)
				return nil
			}
			defer o.sem.Release(1)

			results[i] = o.extractOne(gctx, url, q)
			return nil
		})
	}

	// Workers never return errors; Wait is a join.
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}

	var ok int
	for _, r := range results {
		if r.Success {
			ok++
		}
	}
	o.logger.Info("Batch extraction finished.",
		zap.Int("urls", len(urls)),
		zap.Int("succeeded", ok),
	)
	return results, nil
}

func (o *Orchestrator) extractOne(ctx context.Context, url string, q schemas.Query) Result {
	if err := o.limiter.Wait(ctx); err != nil {
		return failure(url, err)
	}

	page, err := o.open(ctx)
	if err != nil {
		return failure(url, fmt.Errorf("failed to open page: %w", err))
	}
	defer func() {
		if cerr := page.Close(ctx); cerr != nil {
			o.logger.Debug("Page close failed.", zap.String("url", url), zap.Error(cerr))
		}
	}()

	if err := page.Navigate(ctx, url); err != nil {
		return failure(url, fmt.Errorf("failed to navigate: %w", err))
	}

	data, err := o.extractor.ExtractQuery(ctx, page, q)
	if err != nil {
		return failure(url, err)
	}

	o.logger.Debug("URL extracted.", zap.String("url", url), zap.Int("fields", len(data.Fields)))
	return Result{URL: url, Success: true, Data: data}
}

func failure(url string, err error) Result {
	return Result{URL: url, Success: false, Error: err.Error()}
}

// internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lodestar/api/schemas"
	"github.com/xkilldash9x/lodestar/internal/config"
)

// Session is one live tab. It implements schemas.DocumentQuerier over CDP
// so the resolution core can run against rendered pages the same way it
// runs against static trees.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	cfg    config.BrowserConfig
	logger *zap.Logger

	onClose func(id string)

	mu       sync.Mutex
	isClosed bool
}

var _ schemas.DocumentQuerier = (*Session)(nil)

func newSession(
	ctx context.Context,
	cancel context.CancelFunc,
	cfg config.BrowserConfig,
	logger *zap.Logger,
	onClose func(id string),
) (*Session, error) {
	sessionID := uuid.New().String()
	s := &Session{
		id:      sessionID,
		ctx:     ctx,
		cancel:  cancel,
		cfg:     cfg,
		logger:  logger.With(zap.String("session_id", sessionID)),
		onClose: onClose,
	}

	if len(cfg.BlockResourceTypes) > 0 {
		if err := s.installRequestBlocking(); err != nil {
			return nil, fmt.Errorf("failed to install request blocking: %w", err)
		}
	}
	return s, nil
}

// ID returns the unique identifier for the session.
func (s *Session) ID() string {
	return s.id
}

// Navigate loads a URL and waits for the document to become ready, plus
// the configured post-load settle time for script-rendered content.
func (s *Session) Navigate(ctx context.Context, url string) error {
	navCtx := ctx
	if s.cfg.NavigationTimeout > 0 {
		var cancel context.CancelFunc
		navCtx, cancel = context.WithTimeout(ctx, s.cfg.NavigationTimeout)
		defer cancel()
	}

	if err := s.runActions(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}

	if s.cfg.PostLoadWait > 0 {
		select {
		case <-time.After(s.cfg.PostLoadWait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.logger.Debug("Navigation complete.", zap.String("url", url))
	return nil
}

// Close terminates the tab. Idempotent.
func (s *Session) Close(context.Context) error {
	s.mu.Lock()
	if s.isClosed {
		s.mu.Unlock()
		return nil
	}
	s.isClosed = true
	s.mu.Unlock()

	s.logger.Debug("Closing browser session.")
	if s.cancel != nil {
		s.cancel()
	}
	if s.onClose != nil {
		s.onClose(s.id)
	}
	return nil
}

// -- DocumentQuerier --

// MatchCount reports how many nodes the selector matches. Invalid
// selector syntax yields zero.
func (s *Session) MatchCount(ctx context.Context, selector string) (int, error) {
	var count int
	if err := s.evaluate(ctx, fmt.Sprintf(jsMatchCount, jsArg(selector)), &count); err != nil {
		return 0, err
	}
	return count, nil
}

// ResolveHandle returns a handle to the first matching node, or nil.
func (s *Session) ResolveHandle(ctx context.Context, selector string) (schemas.Element, error) {
	count, err := s.MatchCount(ctx, selector)
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, nil
	}
	return &pageElement{session: s, selector: selector}, nil
}

// FindByText locates the deepest, first-in-document element whose
// whitespace-normalized text equals the given text.
func (s *Session) FindByText(ctx context.Context, text string) (schemas.Element, error) {
	target := strings.Join(strings.Fields(text), " ")
	if target == "" {
		return nil, nil
	}

	var path string
	if err := s.evaluate(ctx, fmt.Sprintf(jsFindByText, jsArg(target)), &path); err != nil {
		return nil, err
	}
	if path == "" {
		return nil, nil
	}
	return &pageElement{session: s, selector: path}, nil
}

// ComputePathSelector derives the structural css path for a handle.
func (s *Session) ComputePathSelector(ctx context.Context, el schemas.Element) (string, error) {
	handle, ok := el.(*pageElement)
	if !ok {
		return "", fmt.Errorf("handle does not belong to this session")
	}
	var path string
	if err := s.evaluate(ctx, fmt.Sprintf(jsPathForSelector, jsArg(handle.selector)), &path); err != nil {
		return "", err
	}
	return path, nil
}

// SnapshotCandidates serializes up to max element nodes under body in
// document order.
func (s *Session) SnapshotCandidates(ctx context.Context, max int) ([]schemas.CandidateRecord, error) {
	if max <= 0 {
		max = 1800
	}
	var records []schemas.CandidateRecord
	if err := s.evaluate(ctx, fmt.Sprintf(jsSnapshotCandidates, max), &records); err != nil {
		return nil, fmt.Errorf("failed to snapshot candidates: %w", err)
	}
	return records, nil
}

// SnapshotContentBlocks serializes content-bearing nodes, skipping
// excluded subtrees.
func (s *Session) SnapshotContentBlocks(ctx context.Context, exclude []string, max int) ([]schemas.ContentBlock, error) {
	if max <= 0 {
		max = 800
	}
	if exclude == nil {
		exclude = []string{}
	}
	var blocks []schemas.ContentBlock
	if err := s.evaluate(ctx, fmt.Sprintf(jsContentBlocks, jsArg(exclude), max), &blocks); err != nil {
		return nil, fmt.Errorf("failed to snapshot content blocks: %w", err)
	}
	return blocks, nil
}

// DocumentIdentity returns the current page URL.
func (s *Session) DocumentIdentity(ctx context.Context) (string, error) {
	var url string
	if err := s.runActions(ctx, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

// -- Internals --

// installRequestBlocking intercepts requests via the fetch domain and
// fails everything whose resource type is on the block list. Keeps page
// loads cheap on constrained hosts.
func (s *Session) installRequestBlocking() error {
	blocked := make(map[network.ResourceType]struct{}, len(s.cfg.BlockResourceTypes))
	for _, name := range s.cfg.BlockResourceTypes {
		blocked[network.ResourceType(normalizeResourceType(name))] = struct{}{}
	}

	chromedp.ListenTarget(s.ctx, func(ev interface{}) {
		paused, ok := ev.(*fetch.EventRequestPaused)
		if !ok {
			return
		}
		go func() {
			target := chromedp.FromContext(s.ctx)
			if target == nil {
				return
			}
			ectx := cdp.WithExecutor(s.ctx, target.Target)

			if _, deny := blocked[paused.ResourceType]; deny {
				if err := fetch.FailRequest(paused.RequestID, network.ErrorReasonBlockedByClient).Do(ectx); err != nil {
					s.logger.Debug("Could not block request.", zap.Error(err))
				}
				return
			}
			if err := fetch.ContinueRequest(paused.RequestID).Do(ectx); err != nil {
				s.logger.Debug("Could not continue request.", zap.Error(err))
			}
		}()
	})

	return chromedp.Run(s.ctx, fetch.Enable())
}

// normalizeResourceType maps config names onto CDP resource type names,
// which are capitalized ("Image", "Media", "Font", "Stylesheet").
func normalizeResourceType(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return ""
	}
	if name == "xhr" {
		return "XHR"
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// evaluate runs a JS snippet in the page and unmarshals its result.
func (s *Session) evaluate(ctx context.Context, script string, out interface{}) error {
	return s.runActions(ctx, chromedp.Evaluate(script, out))
}

// runActions executes chromedp actions honoring both the session lifetime
// and the caller's context.
func (s *Session) runActions(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := combineContext(s.ctx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// combineContext derives a context from primary that is also cancelled
// when secondary ends.
func combineContext(primary, secondary context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(primary)
	stop := context.AfterFunc(secondary, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

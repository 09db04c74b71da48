// internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lodestar/internal/config"
)

// Manager owns the browser process allocator and the set of open tabs.
// Sessions are tabs in one shared browser; closing the manager tears the
// whole process down.
type Manager struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	cfg         config.BrowserConfig
	logger      *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

// NewManager builds the exec allocator for the configured browser. No
// process is launched until the first session is created.
func NewManager(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
	)
	if cfg.Headless {
		opts = append(opts, chromedp.Flag("headless", "new"))
	} else {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	for _, arg := range cfg.Args {
		name, value := splitArg(arg)
		if name != "" {
			opts = append(opts, chromedp.Flag(name, value))
		}
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)

	return &Manager{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		cfg:         cfg,
		logger:      logger.Named("browser"),
		sessions:    make(map[string]*Session),
	}
}

// NewSession opens a new tab and connects CDP to it.
func (m *Manager) NewSession(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, fmt.Errorf("browser manager is shut down")
	}
	m.mu.Unlock()

	tabCtx, tabCancel := chromedp.NewContext(m.allocCtx)

	// Force target creation so launch failures surface here, not on the
	// first query.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		return nil, fmt.Errorf("failed to open browser tab: %w", err)
	}

	session, err := newSession(tabCtx, tabCancel, m.cfg, m.logger, m.release)
	if err != nil {
		tabCancel()
		return nil, err
	}

	m.mu.Lock()
	m.sessions[session.ID()] = session
	m.mu.Unlock()

	m.logger.Debug("Opened browser session.", zap.String("session_id", session.ID()))
	return session, nil
}

func (m *Manager) release(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Shutdown closes every open session and the browser process.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	open := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.mu.Unlock()

	for _, s := range open {
		if err := s.Close(ctx); err != nil {
			m.logger.Debug("Session close failed during shutdown.", zap.Error(err))
		}
	}

	m.allocCancel()
	m.logger.Debug("Browser manager shut down.")
}

// splitArg turns "--flag=value" or "flag" into a chromedp flag pair.
func splitArg(arg string) (string, interface{}) {
	arg = strings.TrimLeft(strings.TrimSpace(arg), "-")
	if arg == "" {
		return "", nil
	}
	if name, value, ok := strings.Cut(arg, "="); ok {
		return name, value
	}
	return arg, true
}

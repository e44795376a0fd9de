// internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/autosign/internal/browser/stealth"
	"github.com/xkilldash9x/autosign/internal/config"
)

// Session is one Chrome process with a single tab, owned by one run.
type Session struct {
	id     string
	ctx    context.Context
	logger *zap.Logger
	cfg    config.BrowserConfig

	allocCancel context.CancelFunc
	tabCancel   context.CancelFunc

	// urlPoll is the interval between location checks in WaitURLContains.
	urlPoll time.Duration

	mu       sync.Mutex
	isClosed bool
}

// Launch starts Chrome and opens the tab every later call runs in. The
// process is detached from ctx and lives until Close.
func Launch(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Session, error) {
	sessionID := uuid.New().String()
	sessionLogger := logger.Named("browser").With(zap.String("session_id", sessionID))

	allocCtx, allocCancel := chromedp.NewExecAllocator(Detach(ctx), AllocatorOptions(cfg)...)

	var ctxOpts []chromedp.ContextOption
	if cfg.Debug {
		ctxOpts = append(ctxOpts, chromedp.WithDebugf(sessionLogger.Sugar().Debugf))
	}
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, ctxOpts...)

	s := &Session{
		id:          sessionID,
		ctx:         tabCtx,
		logger:      sessionLogger,
		cfg:         cfg,
		allocCancel: allocCancel,
		tabCancel:   tabCancel,
		urlPoll:     250 * time.Millisecond,
	}

	// The first Run starts the browser and attaches to the tab.
	var startup chromedp.Tasks
	if cfg.Stealth {
		startup = stealth.Apply(stealth.Persona{UserAgent: cfg.UserAgent, Locale: cfg.Locale}, sessionLogger)
	}
	startCtx, cancel := CombineContext(tabCtx, ctx)
	defer cancel()
	if err := chromedp.Run(startCtx, startup); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	sessionLogger.Info("Browser launched", zap.Bool("headless", cfg.Headless))
	return s, nil
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string { return s.id }

// Close terminates the tab and the browser process. It is safe to call more
// than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isClosed {
		return nil
	}
	s.isClosed = true

	s.logger.Debug("Closing browser session")
	s.tabCancel()
	s.allocCancel()
	return nil
}

// run executes actions in the tab, bounded by the operation context.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	s.mu.Lock()
	closed := s.isClosed
	s.mu.Unlock()
	if closed {
		return fmt.Errorf("browser session %s is closed", s.id)
	}

	opCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()

	if err := chromedp.Run(opCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// File: internal/orchestrator/orchestrator.go
// Description: Sequences one sign-up run. It is injected with a browser
// launcher and operator prompts so the whole flow runs against fakes in tests.

package orchestrator

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/xkilldash9x/autosign/internal/audit"
	"github.com/xkilldash9x/autosign/internal/browser"
	"github.com/xkilldash9x/autosign/internal/config"
	"github.com/xkilldash9x/autosign/internal/prompt"
	"github.com/xkilldash9x/autosign/internal/signup"
)

// Banner is printed at the start of every run.
const Banner = "== STGLAC Auto Sign =="

// Outcome is how a run ended. Every outcome except a setup failure exits 0.
type Outcome string

const (
	OutcomeCompleted         Outcome = "completed"
	OutcomeReachedInvitation Outcome = "reached_invitation"
	OutcomeDryRun            Outcome = "dry_run"
	OutcomePollTimeout       Outcome = "poll_timeout"
	OutcomeNoRows            Outcome = "no_rows"
	OutcomeNothingAvailable  Outcome = "nothing_available"
	OutcomeCancelled         Outcome = "cancelled"
	OutcomeAborted           Outcome = "aborted"
	OutcomeFailed            Outcome = "failed"
	OutcomeInterrupted       Outcome = "interrupted"
)

// Browser is the live tab a run drives and screenshots.
type Browser interface {
	signup.Page
	audit.Capturer
	Close() error
}

// Launcher starts a browser for one run.
type Launcher func(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (Browser, error)

// LaunchChrome is the default Launcher.
func LaunchChrome(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (Browser, error) {
	s, err := browser.Launch(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Prompter reads operator answers.
type Prompter interface {
	Ask(ctx context.Context, text string) (string, error)
	AskValid(ctx context.Context, text string, valid prompt.Validator) (string, error)
}

// Orchestrator runs the sign-up flow end to end.
type Orchestrator struct {
	cfg      *config.Config
	logger   *zap.Logger
	prompter Prompter
	out      io.Writer

	launch Launcher
	fs     afero.Fs
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithLauncher replaces the Chrome launcher.
func WithLauncher(l Launcher) Option {
	return func(o *Orchestrator) { o.launch = l }
}

// WithFs replaces the filesystem screenshots are written to.
func WithFs(fs afero.Fs) Option {
	return func(o *Orchestrator) { o.fs = fs }
}

// WithClock replaces the clock that names the screenshot directory.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithSleep replaces every wall-clock pause of the run.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Orchestrator) { o.sleep = sleep }
}

// New creates an Orchestrator. Operator-facing lines go to out.
func New(cfg *config.Config, logger *zap.Logger, prompter Prompter, out io.Writer, opts ...Option) (*Orchestrator, error) {
	if cfg == nil || logger == nil || prompter == nil || out == nil {
		return nil, fmt.Errorf("cannot initialize orchestrator with nil dependencies")
	}
	o := &Orchestrator{
		cfg:      cfg,
		logger:   logger.Named("orchestrator"),
		prompter: prompter,
		out:      out,
		launch:   LaunchChrome,
		fs:       afero.NewOsFs(),
		now:      time.Now,
		sleep:    signup.Sleep,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// File: internal/signup/page.go
package signup

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/autosign/internal/config"
	"github.com/xkilldash9x/autosign/internal/locator"
)

// Page is the live browser tab the flow drives.
type Page interface {
	locator.Driver
	Navigate(ctx context.Context, url string) error
	Reload(ctx context.Context) error
	CurrentURL(ctx context.Context) (string, error)
	WaitURLContains(ctx context.Context, fragment string) error
	// Checked reports the state of a checkbox, or locator.ErrNotFound.
	Checked(ctx context.Context, xpath string) (bool, error)
	// Evaluate stores the raw JSON result of script in out.
	Evaluate(ctx context.Context, script string, out *[]byte) error
}

// Recorder takes a labeled audit screenshot. It never fails.
type Recorder interface {
	Shot(ctx context.Context, label string) string
}

// Prompter reads one trimmed line from the operator.
type Prompter interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

// Env bundles what every step of the flow needs.
type Env struct {
	Page    Page
	Locator *locator.Locator
	Shots   Recorder
	Timing  config.TimingConfig
	// Out receives operator-facing progress lines.
	Out    io.Writer
	Logger *zap.Logger
	// Sleep pauses for d or until ctx is done. Defaults to a timer-based sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewEnv returns an Env with a locator over page and the default sleep.
func NewEnv(page Page, shots Recorder, timing config.TimingConfig, out io.Writer, logger *zap.Logger) *Env {
	return &Env{
		Page:    page,
		Locator: locator.New(page, logger),
		Shots:   shots,
		Timing:  timing,
		Out:     out,
		Logger:  logger,
		Sleep:   Sleep,
	}
}

// Sleep blocks for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (e *Env) sleep(ctx context.Context, d time.Duration) error {
	if e.Sleep == nil {
		return Sleep(ctx, d)
	}
	return e.Sleep(ctx, d)
}

// waitURL waits up to the long wait for the current URL to contain fragment.
func (e *Env) waitURL(ctx context.Context, fragment string) error {
	waitCtx, cancel := context.WithTimeout(ctx, e.Timing.Wait)
	defer cancel()
	return e.Page.WaitURLContains(waitCtx, fragment)
}

// File: internal/locator/locator.go
package locator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrNotFound is returned when no candidate satisfied its wait condition in time.
var ErrNotFound = errors.New("element not found")

// Condition is what a candidate must satisfy before it counts as found.
type Condition int

const (
	// Present means the node is attached to the DOM.
	Present Condition = iota
	// Clickable means the node is visible and enabled.
	Clickable
)

func (c Condition) String() string {
	switch c {
	case Present:
		return "present"
	case Clickable:
		return "clickable"
	default:
		return fmt.Sprintf("condition(%d)", int(c))
	}
}

// Driver performs single-selector operations against a live page. Selectors
// are XPath expressions. Wait methods block until the condition holds or ctx
// is done.
type Driver interface {
	Wait(ctx context.Context, xpath string, cond Condition) error
	WaitGone(ctx context.Context, xpath string) error
	ScrollIntoView(ctx context.Context, xpath string) error
	Click(ctx context.Context, xpath string) error
	// Type clears the field and sends text to it.
	Type(ctx context.Context, xpath string, text string) error
}

// Locator resolves ordered candidate lists against a Driver.
type Locator struct {
	drv    Driver
	logger *zap.Logger
}

// New returns a Locator over drv.
func New(drv Driver, logger *zap.Logger) *Locator {
	return &Locator{drv: drv, logger: logger.Named("locator")}
}

// Driver returns the underlying driver.
func (l *Locator) Driver() Driver { return l.drv }

// Find returns the first candidate that satisfies cond within timeout. Each
// candidate gets its own timeout. The match is scrolled into view before it is
// returned. Parent cancellation stops the search immediately.
func (l *Locator) Find(ctx context.Context, candidates []string, cond Condition, timeout time.Duration) (string, error) {
	for _, xp := range candidates {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := l.waitOne(ctx, xp, cond, timeout); err != nil {
			l.logger.Debug("Candidate did not resolve",
				zap.String("xpath", xp), zap.Stringer("condition", cond), zap.Error(err))
			continue
		}
		if err := l.drv.ScrollIntoView(ctx, xp); err != nil {
			l.logger.Debug("Scroll into view failed", zap.String("xpath", xp), zap.Error(err))
		}
		return xp, nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("%w: none of %d candidates %s within %s", ErrNotFound, len(candidates), cond, timeout)
}

func (l *Locator) waitOne(ctx context.Context, xp string, cond Condition, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return l.drv.Wait(waitCtx, xp, cond)
}

// Click waits for xpath to become clickable, scrolls it into view and clicks it.
func (l *Locator) Click(ctx context.Context, xpath string, timeout time.Duration) error {
	if _, err := l.Find(ctx, []string{xpath}, Clickable, timeout); err != nil {
		return err
	}
	if err := l.drv.Click(ctx, xpath); err != nil {
		return fmt.Errorf("click on %s failed: %w", xpath, err)
	}
	return nil
}

// Type waits for the first present candidate and replaces its value with text.
// It returns the candidate that was typed into.
func (l *Locator) Type(ctx context.Context, candidates []string, text string, timeout time.Duration) (string, error) {
	for _, xp := range candidates {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := l.waitOne(ctx, xp, Present, timeout); err != nil {
			continue
		}
		if err := l.drv.Type(ctx, xp, text); err != nil {
			l.logger.Debug("Typing failed", zap.String("xpath", xp), zap.Error(err))
			continue
		}
		return xp, nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("%w: no input among %d candidates", ErrNotFound, len(candidates))
}

// ClickAny clicks the first candidate that becomes clickable within timeout.
// It never fails; callers check the result.
func (l *Locator) ClickAny(ctx context.Context, candidates []string, timeout time.Duration) bool {
	for _, xp := range candidates {
		if ctx.Err() != nil {
			return false
		}
		if err := l.Click(ctx, xp, timeout); err == nil {
			return true
		}
	}
	return false
}

// ExistsAny reports whether any candidate becomes present within timeout.
func (l *Locator) ExistsAny(ctx context.Context, candidates []string, timeout time.Duration) bool {
	_, err := l.Find(ctx, candidates, Present, timeout)
	return err == nil
}

// WaitGone waits until xpath no longer matches anything.
func (l *Locator) WaitGone(ctx context.Context, xpath string, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := l.drv.WaitGone(waitCtx, xpath); err != nil {
		return fmt.Errorf("%s still present after %s: %w", xpath, timeout, err)
	}
	return nil
}

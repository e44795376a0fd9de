// internal/browser/context_utils.go
package browser

import (
	"context"
	"time"
)

// CombineContext returns a context derived from ctx1 (the tab context, which
// carries the CDP target) that is also cancelled when ctx2 (the operation
// context) is done. A deadline on ctx2 is copied onto the result so chromedp
// sees it.
func CombineContext(ctx1, ctx2 context.Context) (context.Context, context.CancelFunc) {
	base := ctx1
	cancelDeadline := context.CancelFunc(func() {})
	if dl, ok := ctx2.Deadline(); ok {
		base, cancelDeadline = context.WithDeadline(ctx1, dl)
	}
	combinedCtx, cancel := context.WithCancelCause(base)

	go func() {
		select {
		case <-ctx2.Done():
			cancel(context.Cause(ctx2))
		case <-combinedCtx.Done():
		}
	}()

	return combinedCtx, func() {
		cancel(context.Canceled)
		cancelDeadline()
	}
}

// valueOnlyContext keeps the values of its parent but drops its deadline and
// cancellation.
type valueOnlyContext struct {
	context.Context
}

func (valueOnlyContext) Deadline() (deadline time.Time, ok bool) { return }

func (valueOnlyContext) Done() <-chan struct{} { return nil }

func (valueOnlyContext) Err() error { return nil }

// Detach returns a context that inherits values from ctx but is not cancelled
// when ctx is. The browser process is started from a detached context so that
// an interrupted run can still close it cleanly.
func Detach(ctx context.Context) context.Context {
	return valueOnlyContext{ctx}
}

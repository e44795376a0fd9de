// File: internal/locator/probe.go
package locator

import "context"

// Probe is one capability check in a priority-ordered chain. It yields a value
// and true when the capability is present. Absence is a normal result.
type Probe[T any] func(ctx context.Context) (T, bool)

// First evaluates probes in order and stops at the first hit. It returns the
// value, the index of the probe that produced it, and whether any probe hit.
// A done context ends the chain as a miss.
func First[T any](ctx context.Context, probes ...Probe[T]) (T, int, bool) {
	var zero T
	for i, p := range probes {
		if ctx.Err() != nil {
			return zero, -1, false
		}
		if v, ok := p(ctx); ok {
			return v, i, true
		}
	}
	return zero, -1, false
}

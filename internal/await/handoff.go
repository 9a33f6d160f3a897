// Package await bridges callback-style native completion into blocking
// calls with a hard deadline.
package await

import (
	"fmt"
	"time"

	"github.com/bryanchriswhite/ScreenGrab/internal/caperr"
)

// Handoff carries a single result from a completion callback to one
// waiting goroutine. Complete may be called from any goroutine; only the
// first call wins, later calls are dropped. Await must be called at most
// once.
type Handoff[T any] struct {
	ch chan result[T]
}

type result[T any] struct {
	value T
	err   error
}

// New returns a Handoff ready to be completed.
func New[T any]() *Handoff[T] {
	// Buffered so a late Complete never blocks a native callback thread
	// after Await has already timed out.
	return &Handoff[T]{ch: make(chan result[T], 1)}
}

// Complete delivers the result. Safe to call after Await has given up;
// the value is simply discarded.
func (h *Handoff[T]) Complete(value T, err error) {
	select {
	case h.ch <- result[T]{value: value, err: err}:
	default:
	}
}

// Await blocks until Complete delivers or the deadline passes, in which
// case it returns caperr.ErrTimeout (wrapped with the operation name).
func (h *Handoff[T]) Await(op string, deadline time.Duration) (T, error) {
	timer := time.NewTimer(deadline)
	defer timer.Stop()

	select {
	case r := <-h.ch:
		return r.value, r.err
	case <-timer.C:
		var zero T
		return zero, fmt.Errorf("%s: %w after %s", op, caperr.ErrTimeout, deadline)
	}
}

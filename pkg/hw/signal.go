package hw

import (
	"context"
	"sync/atomic"
)

// FadeSignal carries fade completion notifications out of interrupt-like
// contexts: one bit per channel, set by the completion handler, drained by a
// single listener goroutine. Set never blocks and never allocates, so it is
// safe to call from a timer callback or an ISR trampoline. Wait blocks until
// at least one bit is set and clears the returned bits atomically.
type FadeSignal struct {
	bits atomic.Uint64
	wake chan struct{}
}

// NewFadeSignal creates an empty signal.
func NewFadeSignal() *FadeSignal {
	return &FadeSignal{wake: make(chan struct{}, 1)}
}

// Set marks the channel's completion bit and wakes the listener. Channels
// outside [0, MaxChannels) are ignored.
func (s *FadeSignal) Set(ch uint32) {
	if ch >= MaxChannels {
		return
	}
	s.bits.Or(1 << ch)
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Wait blocks until any channel bit is set, clears the set atomically and
// returns it. Returns ok=false when the context is cancelled.
func (s *FadeSignal) Wait(ctx context.Context) (bits uint64, ok bool) {
	for {
		if bits := s.bits.Swap(0); bits != 0 {
			return bits, true
		}
		select {
		case <-ctx.Done():
			return 0, false
		case <-s.wake:
		}
	}
}

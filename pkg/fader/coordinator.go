// Package fader serializes timed brightness transitions per hardware channel
// and delivers start/end notifications outside of interrupt context. The
// backend raises fade completion from an interrupt-like context by setting a
// bit in its FadeSignal; a dedicated listener goroutine owned by the
// Coordinator drains that signal and invokes the per-channel callbacks from
// ordinary goroutine context, where logging and further driver calls are
// safe.
package fader

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/lumend/pkg/hw"
)

// Event identifies a fade lifecycle notification.
type Event uint8

const (
	// FadeStart is delivered synchronously when a fade request is
	// accepted by the backend.
	FadeStart Event = iota
	// FadeEnd is delivered asynchronously once the backend signals that
	// the transition reached its target.
	FadeEnd
)

func (e Event) String() string {
	switch e {
	case FadeStart:
		return "fade_start"
	case FadeEnd:
		return "fade_end"
	default:
		return "unknown"
	}
}

// EngineKind selects the fade engine implementation for a channel.
type EngineKind uint8

const (
	// EngineNone installs no engine; fades on the channel degrade to an
	// immediate duty set.
	EngineNone EngineKind = iota
	// EngineHardware delegates fading to the backend's timed fade
	// primitive.
	EngineHardware
)

// Callback receives fade lifecycle events for a channel.
type Callback func(ch uint32, ev Event)

// Engine runs a single timed transition on one channel.
type Engine interface {
	// Fade starts a transition to the target duty and reports whether
	// the backend accepted it.
	Fade(target uint32, duration time.Duration) bool
	Kind() EngineKind
}

// hardwareEngine forwards to the PWM backend's fade primitive.
type hardwareEngine struct {
	pwm hw.PWM
	ch  uint32
}

func (e *hardwareEngine) Fade(target uint32, duration time.Duration) bool {
	return e.pwm.StartFade(e.ch, target, duration)
}

func (e *hardwareEngine) Kind() EngineKind { return EngineHardware }

// slot holds the per-channel fade state. Slot contents persist for the
// coordinator's lifetime. startPending is set while a fade request is in
// flight and its start notification has not been delivered yet; a completion
// bit arriving in that window is parked in endPending so the end event never
// overtakes the start event.
type slot struct {
	engine       Engine
	cb           Callback
	startPending bool
	endPending   bool
}

// Coordinator owns one fade engine and one completion callback per hardware
// channel. Channel slots are the single arbitration point for fade access to
// a channel; SetFader calls for the same channel are serialized by the
// coordinator's lock.
type Coordinator struct {
	logger *slog.Logger
	pwm    hw.PWM

	mu    sync.Mutex
	slots map[uint32]*slot

	cancel context.CancelFunc
	done   chan struct{}
}

// NewCoordinator creates a coordinator on the given backend and starts its
// completion listener goroutine. Stop must be called to release it.
func NewCoordinator(logger *slog.Logger, pwm hw.PWM) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		logger: logger,
		pwm:    pwm,
		slots:  make(map[uint32]*slot),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go c.listen(ctx)
	return c
}

// Stop terminates the completion listener. Pending completion bits set after
// Stop are not delivered.
func (c *Coordinator) Stop() {
	c.cancel()
	<-c.done
}

// listen blocks on the backend's fade signal and dispatches end events from
// normal goroutine context.
func (c *Coordinator) listen(ctx context.Context) {
	defer close(c.done)
	c.logger.Debug("fade event listener started")

	sig := c.pwm.FadeEvents()
	for {
		bits, ok := sig.Wait(ctx)
		if !ok {
			c.logger.Debug("fade event listener stopped")
			return
		}
		for ch := uint32(0); bits != 0; ch++ {
			if bits&1 != 0 {
				c.deliverEnd(ch)
			}
			bits >>= 1
		}
	}
}

// notify invokes the channel's callback without holding the lock.
func (c *Coordinator) notify(ch uint32, ev Event) {
	c.mu.Lock()
	var cb Callback
	if s, ok := c.slots[ch]; ok {
		cb = s.cb
	}
	c.mu.Unlock()

	if cb != nil {
		cb(ch, ev)
	}
}

// deliverEnd dispatches a completion event for a channel. The backend may
// raise the completion bit before the fade request even returns (an
// instantly-completing fade); when the channel's start notification is still
// pending the end event is parked and FadeByTime delivers it after the start.
func (c *Coordinator) deliverEnd(ch uint32) {
	c.mu.Lock()
	if s, ok := c.slots[ch]; ok && s.startPending {
		s.endPending = true
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.notify(ch, FadeEnd)
}

// SetFader installs a fade engine and completion callback for a channel.
// The engine is installed only once per channel (first writer wins); the
// callback is replaced on every call with a non-nil cb. Returns true when
// this call installed an engine.
func (c *Coordinator) SetFader(ch uint32, kind EngineKind, cb Callback) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.slots[ch]
	if !ok {
		s = &slot{}
		c.slots[ch] = s
	}
	if cb != nil {
		s.cb = cb
	}

	if s.engine != nil || kind == EngineNone {
		return false
	}
	s.engine = &hardwareEngine{pwm: c.pwm, ch: ch}
	c.logger.Debug("fade engine installed", "channel", ch, "kind", kind)
	return true
}

// FadeByTime transitions a channel to the target duty over the given
// duration. Without an engine the call degrades to an immediate duty set and
// returns that call's result. With an engine it returns whether the fade was
// accepted; on acceptance the start notification fires synchronously and the
// end notification arrives later through the listener.
func (c *Coordinator) FadeByTime(ch, duty uint32, duration time.Duration) bool {
	c.mu.Lock()
	s, ok := c.slots[ch]
	var engine Engine
	if ok {
		engine = s.engine
	}
	if engine != nil {
		s.startPending = true
	}
	c.mu.Unlock()

	if engine == nil {
		return c.nofade(ch, duty)
	}

	if !engine.Fade(duty, duration) {
		c.mu.Lock()
		s.startPending = false
		s.endPending = false
		c.mu.Unlock()
		c.logger.Debug("fade rejected", "channel", ch, "duty", duty)
		return false
	}
	c.notify(ch, FadeStart)

	c.mu.Lock()
	ended := s.endPending
	s.startPending = false
	s.endPending = false
	c.mu.Unlock()
	if ended {
		c.notify(ch, FadeEnd)
	}
	return true
}

func (c *Coordinator) nofade(ch, duty uint32) bool {
	c.logger.Debug("no fade engine, setting duty directly", "channel", ch, "duty", duty)
	return c.pwm.SetDuty(ch, duty) == nil
}

// Package hw defines the contracts a hardware backend must satisfy to drive
// lights: a PWM peripheral for dimmable sources and a plain digital output
// for on/off sources. The light core only ever talks to these interfaces;
// register programming lives behind them.
package hw

import "time"

// MaxChannels is the highest number of PWM channels a backend may expose.
// Bounded by the width of the fade completion bitset.
const MaxChannels = 64

// PWM is the contract required of any PWM-style backend. Duty values are
// bounded by [0, MaxDuty(ch)] where MaxDuty derives from the configured
// resolution (2^bits - 1). Configuration failures must leave the channel in
// a stopped state.
type PWM interface {
	// StartChannel claims and activates a channel on the given output pin.
	// Starting an already active channel is a no-op.
	StartChannel(ch uint32, pin int) error
	// StopChannel parks the channel at its idle level.
	StopChannel(ch uint32) error
	// SetDuty programs the channel duty, keeping the current phase offset.
	SetDuty(ch, duty uint32) error
	// SetDutyPhase programs duty and phase offset together. Backends may
	// reject the write while a fade is in flight on the channel.
	SetDutyPhase(ch, duty, phase uint32) error
	// Duty reports the channel's current duty value.
	Duty(ch uint32) uint32
	// Phase reports the channel's current phase offset.
	Phase(ch uint32) uint32
	// MaxDuty reports the top of the duty range for the channel's
	// configured resolution.
	MaxDuty(ch uint32) uint32
	// Configure sets resolution and frequency for the timer feeding the
	// channel.
	Configure(ch uint32, bits uint8, freqHz uint32) error
	// StartFade begins a timed hardware transition to the target duty and
	// returns whether the fade was accepted. Completion is reported
	// asynchronously through FadeEvents.
	StartFade(ch, target uint32, duration time.Duration) bool
	// FadeEvents returns the backend's fade completion signal.
	FadeEvents() *FadeSignal
}

// GPIO is the contract required of a binary output backend. Levels are
// physical; any active-level inversion is the caller's concern.
type GPIO interface {
	SetLevel(pin int, level bool) error
	Level(pin int) bool
}

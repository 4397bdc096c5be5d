// Package light is a brightness-control abstraction for lighting loads: PWM
// LEDs, binary relays and composite fixtures coordinating several physical
// outputs behind one logical control point. Application code talks to the
// Light interface; the concrete kinds (PWMLight, GPIOLight, Composite)
// translate the semantic commands into backend driver calls through the
// contracts in pkg/hw.
//
// Brightness commands are fire-and-forget: they normalize the request
// (perceptual curve mapping, default duration resolution), dispatch it to
// the driver and return. Failures are logged, not returned; callers needing
// confirmation observe state through State or an OnChangeAttach hook.
package light

import (
	"time"

	"github.com/jmylchreest/lumend/pkg/luma"
)

// Light is the capability contract every controllable light source
// implements.
//
// All Go* operations accept a duration: DurationDefault (or any negative
// value) selects the instance's default fade duration, zero means an
// immediate set, and a positive duration requests a timed fade.
type Light interface {
	// Kind reports the source kind, fixed at construction.
	Kind() SourceKind

	// Curve returns the active perceptual curve.
	Curve() luma.Curve
	// SetCurve replaces the perceptual curve and returns the curve in
	// effect afterwards. Constant lights ignore the request.
	SetCurve(c luma.Curve) luma.Curve

	// Value reports the current backend-native brightness value, always
	// within [0, MaxValue].
	Value() uint32
	// MaxValue reports the top of the backend-native value range.
	MaxValue() uint32
	// ValueScaled reports the current value unmapped into the given
	// presentation scale (<= 0 selects the default scale).
	ValueScaled(scale int32) uint32

	// MaxPower returns the rated power draw at full output.
	MaxPower() float64
	// SetMaxPower updates the rated power (negative clamps to zero) and
	// returns the stored value.
	SetMaxPower(p float64) float64
	// CurrentPower estimates the momentary power draw.
	CurrentPower() float64

	// ActiveLevel reports the active logic level (true = active-high).
	ActiveLevel() bool
	// SetActiveLevel sets the active logic level and returns it.
	SetActiveLevel(lvl bool) bool

	// State returns a snapshot of the observable state.
	State() State

	// GoValue curve-maps value into the native domain and sets or fades
	// to it.
	GoValue(value uint32, duration time.Duration)
	// GoValueScaled maps a value expressed against an arbitrary scale.
	// value >= scale always reaches the true maximum, value == 0 always
	// reaches the true off state.
	GoValueScaled(value uint32, scale int32, duration time.Duration)
	// GoStep adjusts the native value by a relative step.
	GoStep(step int32, duration time.Duration)
	// GoStepScaled adjusts the scaled value by a relative step, clamping
	// at off.
	GoStepScaled(step, scale int32, duration time.Duration)
	GoMax(duration time.Duration)
	GoMin(duration time.Duration)
	GoOn(duration time.Duration)
	GoOff(duration time.Duration)
	// GoToggle switches off when lit and on when dark.
	GoToggle(duration time.Duration)
	// GoIncr/GoDecr step the scaled value by the default step.
	GoIncr(duration time.Duration)
	GoDecr(duration time.Duration)
	// Power switches the light on or off.
	Power(on bool, duration time.Duration)

	// OnChangeAttach registers the single state-change notification sink,
	// replacing any previous one.
	OnChangeAttach(fn ChangeFunc)
	// OnChangeDetach clears the notification sink.
	OnChangeDetach()

	// Driver primitives, package-private: value is already in the native
	// domain and the duration is already resolved. Composite lights fan
	// these out to their children.
	setToValue(value uint32) error
	fadeToValue(value uint32, duration time.Duration) error
}

// PhaseShifter is implemented by dimmable sources whose backend supports a
// PWM phase (duty offset) adjustment. Composite lights in SharePhase mode
// require it of their children and degrade to ShareEqual without it.
type PhaseShifter interface {
	// SetDutyShift programs duty and phase offset together.
	SetDutyShift(duty, shift uint32) error
	// DutyShift reports the current phase offset.
	DutyShift() uint32
}

package light

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/lumend/pkg/luma"
)

// driver is the narrow contract the shared command logic needs from a
// concrete light kind. Value and MaxValue read hardware truth; the
// primitives receive values already mapped into the native domain with the
// duration already resolved.
type driver interface {
	Value() uint32
	MaxValue() uint32
	CurrentPower() float64
	setToValue(value uint32) error
	fadeToValue(value uint32, duration time.Duration) error
}

// base carries the state and command normalization shared by every light
// kind: perceptual curve handling, presentation defaults, rated power and
// the single-slot change notification. Concrete kinds embed it and register
// themselves as its driver.
type base struct {
	logger *slog.Logger
	kind   SourceKind
	drv    driver

	mu          sync.RWMutex
	curve       luma.Curve
	maxPower    float64
	fadeTime    time.Duration
	scale       int32
	step        int32
	activeLevel bool
	onChange    ChangeFunc
}

func newBase(logger *slog.Logger, kind SourceKind, curve luma.Curve) base {
	if logger == nil {
		logger = slog.Default()
	}
	return base{
		logger:      logger.With("kind", kind.String()),
		kind:        kind,
		curve:       curve,
		maxPower:    1.0,
		fadeTime:    DefaultFadeTime,
		scale:       DefaultScale,
		step:        DefaultStep,
		activeLevel: true,
	}
}

// Option adjusts construction-time settings of a light.
type Option func(*base)

// WithCurve overrides the initial perceptual curve.
func WithCurve(c luma.Curve) Option {
	return func(b *base) { b.curve = c }
}

// WithMaxPower sets the rated power draw at full output.
func WithMaxPower(p float64) Option {
	return func(b *base) {
		if p < 0 {
			p = 0
		}
		b.maxPower = p
	}
}

// WithFadeTime sets the default fade duration.
func WithFadeTime(d time.Duration) Option {
	return func(b *base) {
		if d >= 0 {
			b.fadeTime = d
		}
	}
}

// WithScale sets the default presentation scale.
func WithScale(scale int32) Option {
	return func(b *base) {
		if scale > 0 {
			b.scale = scale
		}
	}
}

// WithStep sets the default scaled increment step.
func WithStep(step int32) Option {
	return func(b *base) {
		if step != 0 {
			b.step = step
		}
	}
}

// WithActiveLevel sets the initial active logic level.
func WithActiveLevel(lvl bool) Option {
	return func(b *base) { b.activeLevel = lvl }
}

func (b *base) Kind() SourceKind { return b.kind }

func (b *base) Curve() luma.Curve {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.curve
}

func (b *base) SetCurve(c luma.Curve) luma.Curve {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.curve = c
	return b.curve
}

func (b *base) MaxPower() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.maxPower
}

func (b *base) SetMaxPower(p float64) float64 {
	if p < 0 {
		p = 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maxPower = p
	return b.maxPower
}

// CurrentPower linearly interpolates rated power over the output range.
// Kinds with a better estimate shadow it.
func (b *base) CurrentPower() float64 {
	max := b.drv.MaxValue()
	if max == 0 {
		return 0
	}
	return b.MaxPower() * float64(b.drv.Value()) / float64(max)
}

func (b *base) ActiveLevel() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.activeLevel
}

func (b *base) SetActiveLevel(lvl bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.activeLevel = lvl
	return b.activeLevel
}

// SetFadeTime updates the default fade duration used when a command passes
// DurationDefault.
func (b *base) SetFadeTime(d time.Duration) {
	if d < 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fadeTime = d
}

// SetScale updates the default presentation scale.
func (b *base) SetScale(scale int32) {
	if scale <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scale = scale
}

// SetStep updates the default scaled increment step.
func (b *base) SetStep(step int32) {
	if step == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.step = step
}

func (b *base) Value() uint32    { return b.drv.Value() }
func (b *base) MaxValue() uint32 { return b.drv.MaxValue() }

func (b *base) ValueScaled(scale int32) uint32 {
	if scale <= 0 {
		scale = b.defaultScale()
	}
	return luma.Unmap(b.Curve(), b.drv.Value(), b.drv.MaxValue(), uint32(scale))
}

func (b *base) State() State {
	b.mu.RLock()
	curve := b.curve
	fadeTime := b.fadeTime
	scale := b.scale
	step := b.step
	maxPower := b.maxPower
	active := b.activeLevel
	b.mu.RUnlock()

	value := b.drv.Value()
	max := b.drv.MaxValue()
	return State{
		Kind:        b.kind,
		Curve:       curve,
		FadeTime:    fadeTime,
		Scale:       scale,
		Step:        step,
		Value:       value,
		MaxValue:    max,
		ValueScaled: luma.Unmap(curve, value, max, uint32(scale)),
		Power:       b.drv.CurrentPower(),
		MaxPower:    maxPower,
		ActiveLevel: active,
	}
}

func (b *base) GoValue(value uint32, duration time.Duration) {
	if curve := b.Curve(); curve != luma.Linear {
		max := b.drv.MaxValue()
		value = luma.Map(curve, value, max, max)
	}
	duration = b.resolveDuration(duration)
	b.logger.Debug("goValue", "value", value, "duration", duration)
	b.dispatch(value, duration)
}

func (b *base) GoValueScaled(value uint32, scale int32, duration time.Duration) {
	if scale <= 0 {
		scale = b.defaultScale()
	}
	// Absorbing edge rules: "100%" and "0%" always hit the true extremes
	// regardless of curve rounding.
	if value >= uint32(scale) {
		b.GoMax(duration)
		return
	}
	if value == 0 {
		b.GoOff(duration)
		return
	}
	duty := luma.Map(b.Curve(), value, b.drv.MaxValue(), uint32(scale))
	b.logger.Debug("goValueScaled", "value", value, "scale", scale, "duty", duty, "duration", duration)
	b.dispatch(duty, b.resolveDuration(duration))
}

func (b *base) GoStep(step int32, duration time.Duration) {
	if step == 0 {
		return
	}
	next := int64(b.drv.Value()) + int64(step)
	if next < 0 {
		next = 0
	}
	b.GoValue(uint32(next), duration)
}

func (b *base) GoStepScaled(step, scale int32, duration time.Duration) {
	if step == 0 {
		return
	}
	if scale <= 0 {
		scale = b.defaultScale()
	}
	cur := b.ValueScaled(scale)
	if int64(cur)+int64(step) <= 0 {
		// Never step below off.
		b.GoOff(duration)
		return
	}
	b.logger.Debug("goStepScaled", "step", step, "scale", scale, "current", cur, "duration", duration)
	b.GoValueScaled(uint32(int64(cur)+int64(step)), scale, duration)
}

func (b *base) GoMax(duration time.Duration) { b.GoValue(b.drv.MaxValue(), duration) }
func (b *base) GoMin(duration time.Duration) { b.GoValue(1, duration) }
func (b *base) GoOn(duration time.Duration)  { b.GoMax(duration) }
func (b *base) GoOff(duration time.Duration) { b.GoValue(0, duration) }

func (b *base) GoToggle(duration time.Duration) {
	if b.drv.Value() != 0 {
		b.GoOff(duration)
	} else {
		b.GoOn(duration)
	}
}

func (b *base) GoIncr(duration time.Duration) {
	b.GoStepScaled(b.defaultStep(), 0, duration)
}

func (b *base) GoDecr(duration time.Duration) {
	b.GoStepScaled(-b.defaultStep(), 0, duration)
}

func (b *base) Power(on bool, duration time.Duration) {
	if on {
		b.GoOn(duration)
	} else {
		b.GoOff(duration)
	}
}

func (b *base) OnChangeAttach(fn ChangeFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onChange = fn
}

func (b *base) OnChangeDetach() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onChange = nil
}

// dispatch hands a native-domain value to the driver. Command semantics are
// fire-and-forget; a driver failure is logged and the observable value may
// stay stale until the next successful write.
func (b *base) dispatch(value uint32, duration time.Duration) {
	var err error
	if duration > 0 {
		err = b.drv.fadeToValue(value, duration)
	} else {
		err = b.drv.setToValue(value)
	}
	if err != nil {
		b.logger.Debug("driver write failed", "value", value, "duration", duration, "error", err)
	}
}

// notify invokes the attached change sink, outside of any lock.
func (b *base) notify() {
	b.mu.RLock()
	fn := b.onChange
	b.mu.RUnlock()
	if fn != nil {
		fn(b.State())
	}
}

func (b *base) resolveDuration(d time.Duration) time.Duration {
	if d >= 0 {
		return d
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.fadeTime
}

func (b *base) defaultScale() int32 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.scale
}

func (b *base) defaultStep() int32 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.step
}

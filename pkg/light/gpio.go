package light

import (
	"log/slog"
	"time"

	"github.com/jmylchreest/lumend/pkg/hw"
	"github.com/jmylchreest/lumend/pkg/luma"
)

// GPIOLight is an on/off light on a single digital output: relay loads,
// indicator LEDs and similar. Its value range is 0..1 and its curve is
// permanently binary. Wiring polarity is absorbed here: the observable value
// is always logical (1 = lit) regardless of the active level.
type GPIOLight struct {
	base
	gpio hw.GPIO
	pin  int
}

// NewGPIOLight claims a digital output pin and drives it to the logical off
// state.
func NewGPIOLight(logger *slog.Logger, gpio hw.GPIO, pin int, opts ...Option) (*GPIOLight, error) {
	l := &GPIOLight{
		gpio: gpio,
		pin:  pin,
	}
	l.base = newBase(logger, KindConstant, luma.Binary)
	for _, opt := range opts {
		opt(&l.base)
	}
	l.base.curve = luma.Binary
	l.base.logger = l.base.logger.With("pin", pin)
	l.base.drv = l

	if err := gpio.SetLevel(pin, l.physical(false)); err != nil {
		return nil, err
	}
	return l, nil
}

// Pin returns the claimed output pin.
func (l *GPIOLight) Pin() int { return l.pin }

// SetCurve is a no-op: a constant light has no meaningful curve.
func (l *GPIOLight) SetCurve(c luma.Curve) luma.Curve { return luma.Binary }

func (l *GPIOLight) Value() uint32 {
	if l.gpio.Level(l.pin) == l.ActiveLevel() {
		return 1
	}
	return 0
}

func (l *GPIOLight) MaxValue() uint32 { return 1 }

func (l *GPIOLight) CurrentPower() float64 {
	if l.Value() != 0 {
		return l.MaxPower()
	}
	return 0
}

// SetActiveLevel flips the wiring polarity while preserving the logical
// state of the output.
func (l *GPIOLight) SetActiveLevel(lvl bool) bool {
	lit := l.Value() != 0
	l.base.SetActiveLevel(lvl)
	if err := l.gpio.SetLevel(l.pin, l.physical(lit)); err != nil {
		l.logger.Debug("polarity rewrite failed", "error", err)
	}
	return lvl
}

func (l *GPIOLight) setToValue(value uint32) error {
	if err := l.gpio.SetLevel(l.pin, l.physical(value != 0)); err != nil {
		return err
	}
	l.notify()
	return nil
}

// fadeToValue degrades to an immediate set: a binary output cannot fade.
func (l *GPIOLight) fadeToValue(value uint32, duration time.Duration) error {
	return l.setToValue(value)
}

// physical translates a logical state into the wire level.
func (l *GPIOLight) physical(lit bool) bool {
	if l.ActiveLevel() {
		return lit
	}
	return !lit
}

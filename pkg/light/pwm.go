package light

import (
	"log/slog"
	"time"

	"github.com/jmylchreest/lumend/internal/errors"
	"github.com/jmylchreest/lumend/pkg/fader"
	"github.com/jmylchreest/lumend/pkg/hw"
	"github.com/jmylchreest/lumend/pkg/luma"
)

// PWMLight is a dimmable light driven through one PWM channel. Brightness
// and timed fades go through the backend; the channel is exclusively owned
// by this light for its lifetime.
//
// The fade coordinator is borrowed, not owned: it may be shared across
// lights and must outlive them. Without one, fades degrade to an immediate
// set.
type PWMLight struct {
	base
	pwm hw.PWM
	fc  *fader.Coordinator
	ch  uint32
	pin int
}

// NewPWMLight claims and starts a PWM channel on the given pin. fc may be
// nil. The default curve is CIE1931.
func NewPWMLight(logger *slog.Logger, pwm hw.PWM, ch uint32, pin int, fc *fader.Coordinator, opts ...Option) (*PWMLight, error) {
	l := &PWMLight{
		pwm: pwm,
		fc:  fc,
		ch:  ch,
		pin: pin,
	}
	l.base = newBase(logger, KindDimmable, luma.CIE1931)
	for _, opt := range opts {
		opt(&l.base)
	}
	l.base.logger = l.base.logger.With("channel", ch)
	l.base.drv = l

	if err := pwm.StartChannel(ch, pin); err != nil {
		return nil, errors.WrapErrorf(err, "starting pwm channel %d on pin %d", ch, pin)
	}
	if fc != nil {
		fc.SetFader(ch, fader.EngineHardware, l.onFadeEvent)
	}
	return l, nil
}

// Channel returns the claimed hardware channel.
func (l *PWMLight) Channel() uint32 { return l.ch }

func (l *PWMLight) Value() uint32    { return l.pwm.Duty(l.ch) }
func (l *PWMLight) MaxValue() uint32 { return l.pwm.MaxDuty(l.ch) }

// SetPWM reconfigures resolution and frequency of the timer feeding the
// channel. MaxValue changes with the resolution.
func (l *PWMLight) SetPWM(bits uint8, freqHz uint32) error {
	return l.pwm.Configure(l.ch, bits, freqHz)
}

// SetDutyShift programs duty and phase offset together, for phase-staggered
// composite dimming. Range of shift is [0, MaxValue].
func (l *PWMLight) SetDutyShift(duty, shift uint32) error {
	err := l.pwm.SetDutyPhase(l.ch, duty, shift)
	if err == nil {
		l.notify()
	}
	return err
}

// DutyShift reports the channel's current phase offset.
func (l *PWMLight) DutyShift() uint32 { return l.pwm.Phase(l.ch) }

func (l *PWMLight) setToValue(value uint32) error {
	if err := l.pwm.SetDuty(l.ch, value); err != nil {
		return err
	}
	l.notify()
	return nil
}

func (l *PWMLight) fadeToValue(value uint32, duration time.Duration) error {
	if duration <= 0 || l.fc == nil {
		return l.setToValue(value)
	}
	if !l.fc.FadeByTime(l.ch, value, duration) {
		return errors.ChannelBusyf("fade to %d rejected on channel %d", value, l.ch)
	}
	return nil
}

// onFadeEvent runs on the coordinator's listener goroutine once a hardware
// fade finishes.
func (l *PWMLight) onFadeEvent(ch uint32, ev fader.Event) {
	if ev == fader.FadeEnd {
		l.notify()
	}
}

// Package sim provides an in-memory hardware backend implementing the PWM and
// GPIO contracts. It mimics the behavior of an LEDC-style peripheral closely
// enough for the daemon to run on a development host: per-channel timers,
// timed fades with linear duty interpolation, and busy rejection of writes
// that would collide with a fade in flight.
package sim

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/lumend/internal/errors"
	"github.com/jmylchreest/lumend/pkg/hw"
)

const (
	// NumChannels is the number of PWM channels the simulator exposes.
	NumChannels = 16
	// NumPins is the number of addressable output pins.
	NumPins = 64

	// DefaultBits is the duty resolution a channel starts with.
	DefaultBits uint8 = 10
	// DefaultFreqHz is the PWM frequency a channel starts with.
	DefaultFreqHz uint32 = 2000

	// maxBits bounds the configurable duty resolution.
	maxBits uint8 = 20
)

type channel struct {
	started bool
	pin     int
	bits    uint8
	freq    uint32
	duty    uint32
	phase   uint32

	fading    bool
	fadeFrom  uint32
	fadeTo    uint32
	fadeStart time.Time
	fadeDur   time.Duration
	timer     *time.Timer
}

func (c *channel) maxDuty() uint32 { return 1<<c.bits - 1 }

// currentDuty interpolates linearly while a fade is in flight.
func (c *channel) currentDuty(now time.Time) uint32 {
	if !c.fading {
		return c.duty
	}
	elapsed := now.Sub(c.fadeStart)
	if elapsed >= c.fadeDur {
		return c.fadeTo
	}
	frac := float64(elapsed) / float64(c.fadeDur)
	from := float64(c.fadeFrom)
	to := float64(c.fadeTo)
	return uint32(from + (to-from)*frac)
}

// PWM is the simulated PWM peripheral. The zero value is not usable; create
// it with NewPWM. Fade completions are raised from timer goroutines through
// the fade signal, matching how a real backend reports them from interrupt
// context.
type PWM struct {
	logger *slog.Logger

	mu    sync.Mutex
	chans [NumChannels]channel
	sig   *hw.FadeSignal
}

var _ hw.PWM = (*PWM)(nil)

// NewPWM creates a simulator with all channels stopped at the default
// resolution and frequency.
func NewPWM(logger *slog.Logger) *PWM {
	if logger == nil {
		logger = slog.Default()
	}
	p := &PWM{
		logger: logger.With("component", "sim-pwm"),
		sig:    hw.NewFadeSignal(),
	}
	for i := range p.chans {
		p.chans[i].bits = DefaultBits
		p.chans[i].freq = DefaultFreqHz
		p.chans[i].pin = -1
	}
	return p
}

func (p *PWM) channel(ch uint32) (*channel, error) {
	if ch >= NumChannels {
		return nil, errors.InvalidInputf("channel %d out of range 0..%d", ch, NumChannels-1)
	}
	return &p.chans[ch], nil
}

// StartChannel claims a channel on the given pin. Restarting an active
// channel is a no-op; the pin binding does not change.
func (p *PWM) StartChannel(ch uint32, pin int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, err := p.channel(ch)
	if err != nil {
		return err
	}
	if pin < 0 || pin >= NumPins {
		return errors.InvalidInputf("pin %d out of range 0..%d", pin, NumPins-1)
	}
	if c.started {
		return nil
	}
	c.started = true
	c.pin = pin
	p.logger.Debug("channel started", "channel", ch, "pin", pin, "bits", c.bits, "freq_hz", c.freq)
	return nil
}

// StopChannel parks the channel at zero duty and cancels any fade in flight.
func (p *PWM) StopChannel(ch uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, err := p.channel(ch)
	if err != nil {
		return err
	}
	p.cancelFade(c)
	c.started = false
	c.duty = 0
	c.phase = 0
	p.logger.Debug("channel stopped", "channel", ch)
	return nil
}

func (p *PWM) SetDuty(ch, duty uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, err := p.channel(ch)
	if err != nil {
		return err
	}
	if !c.started {
		return errors.DeviceUnavailablef("channel %d is not started", ch)
	}
	if c.fading {
		return errors.ChannelBusyf("channel %d is fading", ch)
	}
	if max := c.maxDuty(); duty > max {
		duty = max
	}
	c.duty = duty
	return nil
}

func (p *PWM) SetDutyPhase(ch, duty, phase uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, err := p.channel(ch)
	if err != nil {
		return err
	}
	if !c.started {
		return errors.DeviceUnavailablef("channel %d is not started", ch)
	}
	if c.fading {
		return errors.ChannelBusyf("channel %d is fading", ch)
	}
	max := c.maxDuty()
	if duty > max {
		duty = max
	}
	if phase > max {
		phase = phase % (max + 1)
	}
	c.duty = duty
	c.phase = phase
	return nil
}

func (p *PWM) Duty(ch uint32) uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, err := p.channel(ch)
	if err != nil {
		return 0
	}
	return c.currentDuty(time.Now())
}

func (p *PWM) Phase(ch uint32) uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, err := p.channel(ch)
	if err != nil {
		return 0
	}
	return c.phase
}

func (p *PWM) MaxDuty(ch uint32) uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, err := p.channel(ch)
	if err != nil {
		return 0
	}
	return c.maxDuty()
}

// Configure sets resolution and frequency for the channel's timer. An invalid
// configuration stops the channel, matching hardware where a failed timer
// setup leaves the output dead rather than running with stale settings.
func (p *PWM) Configure(ch uint32, bits uint8, freqHz uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, err := p.channel(ch)
	if err != nil {
		return err
	}
	if bits == 0 || bits > maxBits || freqHz == 0 {
		p.cancelFade(c)
		c.started = false
		c.duty = 0
		c.phase = 0
		return errors.InvalidInputf("unsupported timer config: %d bit at %d Hz on channel %d", bits, freqHz, ch)
	}
	p.cancelFade(c)
	c.bits = bits
	c.freq = freqHz
	if max := c.maxDuty(); c.duty > max {
		c.duty = max
	}
	if max := c.maxDuty(); c.phase > max {
		c.phase = 0
	}
	p.logger.Debug("channel configured", "channel", ch, "bits", bits, "freq_hz", freqHz)
	return nil
}

// StartFade begins a timed transition. A second fade on a channel already
// fading is rejected rather than queued.
func (p *PWM) StartFade(ch, target uint32, duration time.Duration) bool {
	p.mu.Lock()

	c, err := p.channel(ch)
	if err != nil || !c.started || c.fading {
		p.mu.Unlock()
		return false
	}
	if max := c.maxDuty(); target > max {
		target = max
	}
	if duration <= 0 || c.duty == target {
		c.duty = target
		p.mu.Unlock()
		p.sig.Set(ch)
		return true
	}

	c.fading = true
	c.fadeFrom = c.duty
	c.fadeTo = target
	c.fadeStart = time.Now()
	c.fadeDur = duration
	c.timer = time.AfterFunc(duration, func() { p.completeFade(ch) })
	p.mu.Unlock()
	return true
}

func (p *PWM) completeFade(ch uint32) {
	p.mu.Lock()
	c := &p.chans[ch]
	if !c.fading {
		p.mu.Unlock()
		return
	}
	c.duty = c.fadeTo
	c.fading = false
	c.timer = nil
	p.mu.Unlock()

	p.sig.Set(ch)
}

// cancelFade stops a pending fade timer, freezing the duty at its current
// interpolated value. No completion is signalled. Caller holds the lock.
func (p *PWM) cancelFade(c *channel) {
	if !c.fading {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.duty = c.currentDuty(time.Now())
	c.fading = false
}

func (p *PWM) FadeEvents() *hw.FadeSignal { return p.sig }

// Close cancels all pending fade timers.
func (p *PWM) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.chans {
		p.cancelFade(&p.chans[i])
	}
}

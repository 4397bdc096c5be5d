package light

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/lumend/internal/errors"
	"github.com/jmylchreest/lumend/pkg/hw"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeChan struct {
	started bool
	pin     int
	duty    uint32
	phase   uint32
	max     uint32
}

// fakePWM is an in-memory PWM backend. Fades complete instantly: StartFade
// programs the target duty and raises the completion bit synchronously.
type fakePWM struct {
	mu    sync.Mutex
	chans map[uint32]*fakeChan
	sig   *hw.FadeSignal
	busy  map[uint32]bool
	log   []string
}

func newFakePWM() *fakePWM {
	return &fakePWM{
		chans: make(map[uint32]*fakeChan),
		busy:  make(map[uint32]bool),
		sig:   hw.NewFadeSignal(),
	}
}

func (f *fakePWM) channel(ch uint32) *fakeChan {
	c, ok := f.chans[ch]
	if !ok {
		c = &fakeChan{max: 1023}
		f.chans[ch] = c
	}
	return c
}

func (f *fakePWM) setMax(ch, max uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channel(ch).max = max
}

func (f *fakePWM) setBusy(ch uint32, busy bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy[ch] = busy
}

func (f *fakePWM) takeLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	log := f.log
	f.log = nil
	return log
}

func (f *fakePWM) StartChannel(ch uint32, pin int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.channel(ch)
	c.started = true
	c.pin = pin
	return nil
}

func (f *fakePWM) StopChannel(ch uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channel(ch).started = false
	return nil
}

func (f *fakePWM) SetDuty(ch, duty uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy[ch] {
		return errors.ChannelBusyf("channel %d", ch)
	}
	c := f.channel(ch)
	if duty > c.max {
		duty = c.max
	}
	c.duty = duty
	f.log = append(f.log, fmt.Sprintf("duty ch=%d duty=%d", ch, duty))
	return nil
}

func (f *fakePWM) SetDutyPhase(ch, duty, phase uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy[ch] {
		return errors.ChannelBusyf("channel %d", ch)
	}
	c := f.channel(ch)
	c.duty = duty
	c.phase = phase
	f.log = append(f.log, fmt.Sprintf("shift ch=%d duty=%d phase=%d", ch, duty, phase))
	return nil
}

func (f *fakePWM) Duty(ch uint32) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.channel(ch).duty
}

func (f *fakePWM) Phase(ch uint32) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.channel(ch).phase
}

func (f *fakePWM) MaxDuty(ch uint32) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.channel(ch).max
}

func (f *fakePWM) Configure(ch uint32, bits uint8, freqHz uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channel(ch).max = 1<<bits - 1
	return nil
}

func (f *fakePWM) StartFade(ch, target uint32, duration time.Duration) bool {
	f.mu.Lock()
	if f.busy[ch] {
		f.mu.Unlock()
		return false
	}
	c := f.channel(ch)
	c.duty = target
	f.log = append(f.log, fmt.Sprintf("fade ch=%d duty=%d", ch, target))
	f.mu.Unlock()
	f.sig.Set(ch)
	return true
}

func (f *fakePWM) FadeEvents() *hw.FadeSignal { return f.sig }

// fakeGPIO is an in-memory digital output backend.
type fakeGPIO struct {
	mu      sync.Mutex
	levels  map[int]bool
	failSet bool
}

func newFakeGPIO() *fakeGPIO {
	return &fakeGPIO{levels: make(map[int]bool)}
}

func (f *fakeGPIO) SetLevel(pin int, level bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSet {
		return errors.DeviceUnavailablef("pin %d", pin)
	}
	f.levels[pin] = level
	return nil
}

func (f *fakeGPIO) Level(pin int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.levels[pin]
}

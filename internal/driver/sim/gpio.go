package sim

import (
	"log/slog"
	"sync"

	"github.com/jmylchreest/lumend/internal/errors"
	"github.com/jmylchreest/lumend/pkg/hw"
)

// GPIO is the simulated digital output bank. Out-of-range pins reject writes
// and read low.
type GPIO struct {
	logger *slog.Logger

	mu     sync.Mutex
	levels [NumPins]bool
}

var _ hw.GPIO = (*GPIO)(nil)

// NewGPIO creates a simulator with all pins low.
func NewGPIO(logger *slog.Logger) *GPIO {
	if logger == nil {
		logger = slog.Default()
	}
	return &GPIO{logger: logger.With("component", "sim-gpio")}
}

func (g *GPIO) SetLevel(pin int, level bool) error {
	if pin < 0 || pin >= NumPins {
		return errors.InvalidInputf("pin %d out of range 0..%d", pin, NumPins-1)
	}
	g.mu.Lock()
	g.levels[pin] = level
	g.mu.Unlock()
	g.logger.Debug("pin written", "pin", pin, "level", level)
	return nil
}

func (g *GPIO) Level(pin int) bool {
	if pin < 0 || pin >= NumPins {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.levels[pin]
}

package light

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/lumend/internal/errors"
	"github.com/jmylchreest/lumend/pkg/luma"
)

// Composite aggregates several child lights behind one Light control point.
// All children share one source kind and the share mode is fixed at
// construction. Children are exclusively owned by the composite once added.
//
// The combined value range depends on the share mode: the sum of the
// children's ranges for incremental stacking, the first child's range for
// equal and phase-staggered distribution.
type Composite struct {
	base
	subKind SourceKind
	share   ShareMode

	cmu      sync.RWMutex
	sources  []compositeSource
	combined uint32
}

type compositeSource struct {
	id    string
	light Light
}

// NewComposite creates an empty composite for children of the given kind.
// The default curve is linear; rated power accumulates as children are
// added.
func NewComposite(logger *slog.Logger, subKind SourceKind, share ShareMode, opts ...Option) *Composite {
	c := &Composite{
		subKind: subKind,
		share:   share,
	}
	c.base = newBase(logger, KindComposite, luma.Linear)
	for _, opt := range opts {
		opt(&c.base)
	}
	c.base.maxPower = 0
	c.base.logger = c.base.logger.With("share", share.String())
	c.base.drv = c
	return c
}

// NewCompositeOf creates a composite seeded with a first child, adopting the
// child's kind and curve.
func NewCompositeOf(logger *slog.Logger, first Light, id string, share ShareMode, opts ...Option) (*Composite, error) {
	c := NewComposite(logger, first.Kind(), share, opts...)
	c.base.curve = first.Curve()
	if err := c.AddLight(first, id); err != nil {
		return nil, err
	}
	return c, nil
}

// ShareMode reports the composite's distribution algorithm.
func (c *Composite) ShareMode() ShareMode { return c.share }

// SubKind reports the source kind all children must share.
func (c *Composite) SubKind() SourceKind { return c.subKind }

// Len reports the number of children.
func (c *Composite) Len() int {
	c.cmu.RLock()
	defer c.cmu.RUnlock()
	return len(c.sources)
}

// IDs returns the children's external ids in insertion order.
func (c *Composite) IDs() []string {
	c.cmu.RLock()
	defer c.cmu.RUnlock()
	ids := make([]string, len(c.sources))
	for i, s := range c.sources {
		ids[i] = s.id
	}
	return ids
}

// AddLight transfers ownership of a child into the composite under a unique
// external id. The insert is all-or-nothing: on any rejection the composite
// is unchanged.
//
// Rejected: a duplicate id, a kind mismatch against SubKind, and, for the
// equal and phase share modes, a child whose value range differs from the
// first child's. Those modes assume equal capacity on every child.
func (c *Composite) AddLight(l Light, id string) error {
	c.cmu.Lock()
	defer c.cmu.Unlock()

	for _, s := range c.sources {
		if s.id == id {
			return errors.InvalidInputf("light id %q already present", id)
		}
	}
	if l.Kind() != c.subKind {
		return errors.InvalidInputf("cannot mix source kinds: composite holds %s, light is %s", c.subKind, l.Kind())
	}

	switch c.share {
	case ShareEqual, SharePhase:
		if len(c.sources) == 0 {
			// First child defines the range for all.
			c.combined = l.MaxValue()
		} else if l.MaxValue() != c.combined {
			return errors.InvalidInputf("share mode %s requires equal ranges: composite max %d, light max %d", c.share, c.combined, l.MaxValue())
		}
	default: // ShareIncremental
		c.combined += l.MaxValue()
		if l.Curve() == luma.Binary {
			// Stacked constant lights dim in unit steps, so the
			// composite curve mutates to linear.
			c.base.SetCurve(luma.Linear)
		}
	}

	c.sources = append(c.sources, compositeSource{id: id, light: l})
	c.base.SetMaxPower(c.base.MaxPower() + l.MaxPower())
	c.logger.Debug("light added", "id", id, "count", len(c.sources), "combined_max", c.combined)
	return nil
}

// GetLight returns the child registered under id, or nil.
func (c *Composite) GetLight(id string) Light {
	c.cmu.RLock()
	defer c.cmu.RUnlock()
	for _, s := range c.sources {
		if s.id == id {
			return s.light
		}
	}
	return nil
}

func (c *Composite) MaxValue() uint32 {
	c.cmu.RLock()
	defer c.cmu.RUnlock()
	return c.combined
}

func (c *Composite) Value() uint32 {
	c.cmu.RLock()
	defer c.cmu.RUnlock()

	switch c.share {
	case ShareEqual, SharePhase:
		// All children are equal; the first one speaks for the unit.
		if len(c.sources) > 0 {
			return c.sources[0].light.Value()
		}
		return 0
	default:
		var v uint32
		for _, s := range c.sources {
			v += s.light.Value()
		}
		return v
	}
}

func (c *Composite) CurrentPower() float64 {
	c.cmu.RLock()
	defer c.cmu.RUnlock()

	switch c.share {
	case ShareEqual:
		if len(c.sources) > 0 {
			return c.sources[0].light.CurrentPower() * float64(len(c.sources))
		}
		return 0
	default:
		var p float64
		for _, s := range c.sources {
			p += s.light.CurrentPower()
		}
		return p
	}
}

// SetCurve propagates the curve to all children. Constant children have no
// meaningful curve, so a constant-kind composite ignores the request.
func (c *Composite) SetCurve(curve luma.Curve) luma.Curve {
	if c.subKind == KindConstant {
		return c.Curve()
	}
	c.base.SetCurve(curve)

	c.cmu.RLock()
	defer c.cmu.RUnlock()
	for _, s := range c.sources {
		s.light.SetCurve(curve)
	}
	return curve
}

func (c *Composite) setToValue(value uint32) error {
	return c.fadeToValue(value, 0)
}

func (c *Composite) fadeToValue(value uint32, duration time.Duration) error {
	// Snapshot outside the child dispatch: notify re-reads Value and
	// MaxValue, which take the child lock themselves.
	c.cmu.RLock()
	sources := make([]compositeSource, len(c.sources))
	copy(sources, c.sources)
	c.cmu.RUnlock()

	if len(sources) == 0 {
		return nil
	}

	switch c.share {
	case ShareEqual:
		c.goValueEqual(sources, value, duration)
	case SharePhase:
		c.goValuePhase(sources, value, duration)
	default:
		c.goValueIncremental(sources, value, duration)
	}
	c.notify()
	return nil
}

// goValueIncremental fills children in insertion order: each child receives
// up to its max, the remainder flows to the next one.
func (c *Composite) goValueIncremental(sources []compositeSource, value uint32, duration time.Duration) {
	for _, s := range sources {
		m := s.light.MaxValue()
		if value >= m {
			c.driveChild(s, m, duration)
			value -= m
			continue
		}
		c.driveChild(s, value, duration)
		value = 0
	}
}

// goValueEqual drives every child to the identical target.
func (c *Composite) goValueEqual(sources []compositeSource, value uint32, duration time.Duration) {
	for _, s := range sources {
		c.driveChild(s, value, duration)
	}
}

// goValuePhase drives every child to the identical target with a
// per-channel duty offset of value*index mod max, spreading the PWM
// transition edges across the cycle. Offsets must not be programmed on a
// channel that rejected the fade, and a mid-fade channel may refuse an
// offset write, so the sequencing is: adjust offsets that would overflow
// first, then issue all fades, then apply the remaining offsets only for
// accepted fades.
func (c *Composite) goValuePhase(sources []compositeSource, value uint32, duration time.Duration) {
	if c.subKind != KindDimmable {
		c.goValueEqual(sources, value, duration)
		return
	}
	if _, ok := sources[0].light.(PhaseShifter); !ok {
		c.goValueEqual(sources, value, duration)
		return
	}

	var accepted uint64
	for i, s := range sources {
		ps, ok := s.light.(PhaseShifter)
		if !ok {
			c.driveChild(s, value, duration)
			continue
		}
		shift := uint32(0)
		if m := s.light.MaxValue(); m > 0 {
			shift = value * uint32(i) % m
		}

		if duration <= 0 {
			if err := ps.SetDutyShift(value, shift); err != nil {
				c.logger.Debug("duty shift write failed", "id", s.id, "error", err)
			}
			continue
		}

		if ps.DutyShift()+value > s.light.MaxValue() {
			// The new duty cannot fit at the current offset; shift
			// down before fading.
			if err := ps.SetDutyShift(s.light.Value(), shift); err != nil {
				c.logger.Debug("duty down-shift failed", "id", s.id, "error", err)
			}
			c.driveChild(s, value, duration)
			continue
		}

		if err := s.light.fadeToValue(value, duration); err != nil {
			c.logger.Debug("child fade rejected", "id", s.id, "error", err)
		} else if i < 64 {
			accepted |= 1 << i
		}
	}

	if accepted == 0 {
		return
	}
	// Deferred offsets for the channels whose fade was accepted.
	for i, s := range sources {
		if i >= 64 || accepted&(1<<i) == 0 {
			continue
		}
		ps := s.light.(PhaseShifter)
		shift := uint32(0)
		if m := s.light.MaxValue(); m > 0 {
			shift = value * uint32(i) % m
		}
		if err := ps.SetDutyShift(value, shift); err != nil {
			c.logger.Debug("deferred duty shift failed", "id", s.id, "error", err)
		}
	}
}

func (c *Composite) driveChild(s compositeSource, value uint32, duration time.Duration) {
	if err := s.light.fadeToValue(value, duration); err != nil {
		c.logger.Debug("child write failed", "id", s.id, "value", value, "error", err)
	}
}

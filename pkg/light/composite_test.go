package light

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/lumend/internal/errors"
	"github.com/jmylchreest/lumend/pkg/luma"
)

func newDimChild(t *testing.T, pwm *fakePWM, ch, max uint32) *PWMLight {
	t.Helper()
	pwm.setMax(ch, max)
	l, err := NewPWMLight(testLogger(), pwm, ch, int(ch), nil, WithCurve(luma.Linear))
	require.NoError(t, err)
	return l
}

func newRelayChild(t *testing.T, gpio *fakeGPIO, pin int) *GPIOLight {
	t.Helper()
	l, err := NewGPIOLight(testLogger(), gpio, pin)
	require.NoError(t, err)
	return l
}

func TestCompositeEmpty(t *testing.T) {
	c := NewComposite(testLogger(), KindDimmable, ShareIncremental)

	assert.Equal(t, KindComposite, c.Kind())
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, uint32(0), c.Value())
	assert.Equal(t, uint32(0), c.MaxValue())
	assert.Nil(t, c.GetLight("nope"))

	// Commands against an empty composite are harmless no-ops.
	c.GoValue(100, 0)
	c.GoOn(0)
	assert.Equal(t, uint32(0), c.Value())
}

func TestCompositeIncrementalFill(t *testing.T) {
	pwm := newFakePWM()
	c := NewComposite(testLogger(), KindDimmable, ShareIncremental)

	for ch := uint32(0); ch < 3; ch++ {
		require.NoError(t, c.AddLight(newDimChild(t, pwm, ch, 10), string(rune('a'+ch))))
	}
	require.Equal(t, uint32(30), c.MaxValue())

	c.GoValue(15, 0)
	assert.Equal(t, uint32(10), pwm.Duty(0))
	assert.Equal(t, uint32(5), pwm.Duty(1))
	assert.Equal(t, uint32(0), pwm.Duty(2))
	assert.Equal(t, uint32(15), c.Value())

	// Overdrive clamps every child at its own max.
	c.GoValue(50, 0)
	assert.Equal(t, uint32(10), pwm.Duty(0))
	assert.Equal(t, uint32(10), pwm.Duty(1))
	assert.Equal(t, uint32(10), pwm.Duty(2))
	assert.Equal(t, uint32(30), c.Value())

	c.GoOff(0)
	assert.Equal(t, uint32(0), c.Value())
}

func TestCompositeIncrementalRelays(t *testing.T) {
	gpio := newFakeGPIO()
	c := NewComposite(testLogger(), KindConstant, ShareIncremental, WithCurve(luma.CIE1931))

	for pin := 0; pin < 3; pin++ {
		require.NoError(t, c.AddLight(newRelayChild(t, gpio, pin), string(rune('a'+pin))))
	}

	// Stacking binary children turns the composite into a unit-step dimmer.
	assert.Equal(t, luma.Linear, c.Curve())
	assert.Equal(t, uint32(3), c.MaxValue())

	c.GoValue(2, 0)
	assert.Equal(t, uint32(1), c.GetLight("a").Value())
	assert.Equal(t, uint32(1), c.GetLight("b").Value())
	assert.Equal(t, uint32(0), c.GetLight("c").Value())
	assert.Equal(t, uint32(2), c.Value())

	// 67% of three relays rounds down to two.
	c.GoOff(0)
	c.GoValueScaled(67, 100, 0)
	assert.Equal(t, uint32(2), c.Value())
}

func TestCompositeEqual(t *testing.T) {
	pwm := newFakePWM()
	c := NewComposite(testLogger(), KindDimmable, ShareEqual)

	require.NoError(t, c.AddLight(newDimChild(t, pwm, 0, 1023), "a"))
	require.NoError(t, c.AddLight(newDimChild(t, pwm, 1, 1023), "b"))

	assert.Equal(t, uint32(1023), c.MaxValue(), "equal mode range is one child's range")

	c.GoValue(7, 0)
	assert.Equal(t, uint32(7), pwm.Duty(0))
	assert.Equal(t, uint32(7), pwm.Duty(1))
	assert.Equal(t, uint32(7), c.Value())

	c.GoMax(0)
	assert.Equal(t, uint32(1023), c.Value())
}

func TestCompositeEqualPower(t *testing.T) {
	pwm := newFakePWM()
	c := NewComposite(testLogger(), KindDimmable, ShareEqual)

	for ch := uint32(0); ch < 3; ch++ {
		pwm.setMax(ch, 1023)
		l, err := NewPWMLight(testLogger(), pwm, ch, int(ch), nil, WithCurve(luma.Linear), WithMaxPower(2.0))
		require.NoError(t, err)
		require.NoError(t, c.AddLight(l, string(rune('a'+ch))))
	}

	assert.Equal(t, 6.0, c.MaxPower())

	c.GoMax(0)
	assert.InDelta(t, 6.0, c.CurrentPower(), 0.001)

	c.GoOff(0)
	assert.Equal(t, 0.0, c.CurrentPower())
}

func TestCompositeAddLightRejections(t *testing.T) {
	pwm := newFakePWM()
	gpio := newFakeGPIO()

	c := NewComposite(testLogger(), KindDimmable, ShareEqual)
	require.NoError(t, c.AddLight(newDimChild(t, pwm, 0, 1023), "a"))

	err := c.AddLight(newDimChild(t, pwm, 1, 1023), "a")
	assert.True(t, errors.IsInvalidInput(err), "duplicate id must be rejected")

	err = c.AddLight(newRelayChild(t, gpio, 0), "b")
	assert.True(t, errors.IsInvalidInput(err), "kind mismatch must be rejected")

	err = c.AddLight(newDimChild(t, pwm, 2, 255), "c")
	assert.True(t, errors.IsInvalidInput(err), "equal mode requires matching ranges")

	assert.Equal(t, 1, c.Len(), "rejections must leave the composite unchanged")
	assert.Equal(t, uint32(1023), c.MaxValue())
	assert.Equal(t, []string{"a"}, c.IDs())
}

func TestCompositePhaseImmediate(t *testing.T) {
	pwm := newFakePWM()
	c := NewComposite(testLogger(), KindDimmable, SharePhase)

	for ch := uint32(0); ch < 3; ch++ {
		require.NoError(t, c.AddLight(newDimChild(t, pwm, ch, 1023), string(rune('a'+ch))))
	}

	c.GoValue(600, 0)

	assert.Equal(t, uint32(600), pwm.Duty(0))
	assert.Equal(t, uint32(600), pwm.Duty(1))
	assert.Equal(t, uint32(600), pwm.Duty(2))
	assert.Equal(t, uint32(0), pwm.Phase(0))
	assert.Equal(t, uint32(600), pwm.Phase(1))
	assert.Equal(t, uint32(177), pwm.Phase(2), "1200 mod 1023")
	assert.Equal(t, uint32(600), c.Value())
}

func TestCompositePhaseDeferredShifts(t *testing.T) {
	pwm := newFakePWM()
	c := NewComposite(testLogger(), KindDimmable, SharePhase)

	for ch := uint32(0); ch < 2; ch++ {
		require.NoError(t, c.AddLight(newDimChild(t, pwm, ch, 1023), string(rune('a'+ch))))
	}
	pwm.takeLog()

	c.GoValue(400, 100*time.Millisecond)

	assert.Equal(t, uint32(400), pwm.Duty(0))
	assert.Equal(t, uint32(400), pwm.Duty(1))
	assert.Equal(t, uint32(0), pwm.Phase(0))
	assert.Equal(t, uint32(400), pwm.Phase(1))

	// Offsets apply only after every value write went out.
	log := pwm.takeLog()
	require.Len(t, log, 4)
	assert.Equal(t, "duty ch=0 duty=400", log[0])
	assert.Equal(t, "duty ch=1 duty=400", log[1])
	assert.Equal(t, "shift ch=0 duty=400 phase=0", log[2])
	assert.Equal(t, "shift ch=1 duty=400 phase=400", log[3])
}

func TestCompositePhaseOverflowShiftsFirst(t *testing.T) {
	pwm := newFakePWM()
	c := NewComposite(testLogger(), KindDimmable, SharePhase)

	for ch := uint32(0); ch < 2; ch++ {
		require.NoError(t, c.AddLight(newDimChild(t, pwm, ch, 1023), string(rune('a'+ch))))
	}
	// Park the second channel at an offset the new duty cannot fit behind.
	require.NoError(t, pwm.SetDutyPhase(1, 0, 900))
	pwm.takeLog()

	c.GoValue(600, 100*time.Millisecond)

	log := pwm.takeLog()
	require.NotEmpty(t, log)
	assert.Equal(t, "shift ch=1 duty=0 phase=600", log[1], "overflowing offset must move before the value write")
	assert.Equal(t, uint32(600), pwm.Duty(1))
	assert.Equal(t, uint32(600), pwm.Phase(1))
}

func TestCompositePhaseDegradesForConstantChildren(t *testing.T) {
	gpio := newFakeGPIO()
	c := NewComposite(testLogger(), KindConstant, SharePhase)

	require.NoError(t, c.AddLight(newRelayChild(t, gpio, 0), "a"))
	require.NoError(t, c.AddLight(newRelayChild(t, gpio, 1), "b"))

	c.GoValue(1, 0)
	assert.Equal(t, uint32(1), c.GetLight("a").Value())
	assert.Equal(t, uint32(1), c.GetLight("b").Value())
	assert.Equal(t, uint32(1), c.Value())
}

func TestCompositeSetCurvePropagates(t *testing.T) {
	pwm := newFakePWM()
	c := NewComposite(testLogger(), KindDimmable, ShareEqual)

	a := newDimChild(t, pwm, 0, 1023)
	b := newDimChild(t, pwm, 1, 1023)
	require.NoError(t, c.AddLight(a, "a"))
	require.NoError(t, c.AddLight(b, "b"))

	c.SetCurve(luma.Exponent)
	assert.Equal(t, luma.Exponent, c.Curve())
	assert.Equal(t, luma.Exponent, a.Curve())
	assert.Equal(t, luma.Exponent, b.Curve())
}

func TestCompositeConstantIgnoresSetCurve(t *testing.T) {
	gpio := newFakeGPIO()
	c := NewComposite(testLogger(), KindConstant, ShareEqual)
	require.NoError(t, c.AddLight(newRelayChild(t, gpio, 0), "a"))

	before := c.Curve()
	assert.Equal(t, before, c.SetCurve(luma.CIE1931))
	assert.Equal(t, before, c.Curve())
}

func TestCompositeOfSeedsFromFirstChild(t *testing.T) {
	pwm := newFakePWM()
	first := newDimChild(t, pwm, 0, 1023)

	c, err := NewCompositeOf(testLogger(), first, "a", ShareEqual)
	require.NoError(t, err)

	assert.Equal(t, KindDimmable, c.SubKind())
	assert.Equal(t, luma.Linear, c.Curve())
	assert.Equal(t, 1, c.Len())
	assert.Same(t, first, c.GetLight("a"))
}

func TestCompositeChangeNotification(t *testing.T) {
	pwm := newFakePWM()
	c := NewComposite(testLogger(), KindDimmable, ShareEqual)
	require.NoError(t, c.AddLight(newDimChild(t, pwm, 0, 1023), "a"))

	var states []State
	c.OnChangeAttach(func(s State) { states = append(states, s) })

	c.GoValue(300, 0)
	require.Len(t, states, 1)
	assert.Equal(t, uint32(300), states[0].Value)
	assert.Equal(t, KindComposite, states[0].Kind)
}

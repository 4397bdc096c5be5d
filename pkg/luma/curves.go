// Package luma converts between linear brightness control values and the
// backend-native duty values a PWM output expects. Human brightness
// perception is non-linear, so driving a LED with a linear duty ramp looks
// wrong; the curves here compress low values and expand high ones to make
// fades appear smooth.
//
// Mapped values truncate the fractional part, unmapped values round. For the
// binary, linear and cie1931 curves Map and Unmap are mutual inverses within
// ±1 across the whole scale, as long as the duty range is at least as wide as
// the luma scale. The exponent, sine and square curves keep that contract
// from the midrange up but lose deep-dim steps to truncation.
//
// Curve math based on:
//   - https://diarmuid.ie/blog/pwm-exponential-led-fading-on-arduino-or-other-platforms
//   - https://tigoe.github.io/LightProjects/fading.html
//   - https://www.photonstophotos.net/GeneralTopics/Exposure/Psychometric_Lightness_and_Gamma.htm
package luma

import (
	"fmt"
	"math"
	"strings"
)

// Curve identifies a perceptual brightness mapping function.
type Curve uint8

const (
	// Binary maps any non-zero value to full duty. Used by on/off-only
	// light sources such as relays.
	Binary Curve = iota
	// Linear is the identity mapping, scaled between the two ranges.
	Linear
	// CIE1931 follows the CIE 1931 psychometric lightness formula and is
	// the default perceptual curve for dimmable sources.
	CIE1931
	// Exponent doubles perceived brightness for each equal luma step.
	Exponent
	// Sine eases in and out of the extremes.
	Sine
	// Square is a cheap gamma-2 approximation.
	Square
)

// cieThreshold splits the CIE1931 formula into its linear toe and cubic
// segment; lightness values at or below it use the toe (L*/902.3).
const cieThreshold = 8.0

// curveNames is the canonical name set used for config files and CLI flags.
var curveNames = map[Curve]string{
	Binary:   "binary",
	Linear:   "linear",
	CIE1931:  "cie1931",
	Exponent: "exponent",
	Sine:     "sine",
	Square:   "square",
}

// Curves returns all supported curves in declaration order.
func Curves() []Curve {
	return []Curve{Binary, Linear, CIE1931, Exponent, Sine, Square}
}

func (c Curve) String() string {
	if name, ok := curveNames[c]; ok {
		return name
	}
	return fmt.Sprintf("curve(%d)", uint8(c))
}

// ParseCurve converts a curve name into a Curve. Matching is
// case-insensitive.
func ParseCurve(s string) (Curve, error) {
	for c, name := range curveNames {
		if strings.EqualFold(s, name) {
			return c, nil
		}
	}
	return Linear, fmt.Errorf("unknown luma curve %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (c Curve) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Curve) UnmarshalText(text []byte) error {
	parsed, err := ParseCurve(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Map scales a linear luma value into the duty range of a curve.
//
// value is the unscaled luma level, maxLuma the top of the luma scale (100
// for a percent scale) and maxDuty the top of the duty range, e.g. 1023 for
// 10-bit PWM. Zero endpoints are exact: Map(c, 0, ...) == 0 and
// Map(c, maxLuma, maxDuty, maxLuma) == maxDuty for every curve.
func Map(c Curve, value, maxDuty, maxLuma uint32) uint32 {
	if maxDuty == 0 || maxLuma == 0 {
		return 0
	}
	switch c {
	case Binary:
		return mapBinary(value, maxDuty)
	case CIE1931:
		return mapCIE1931(value, maxDuty, maxLuma)
	case Exponent:
		return mapExponent(value, maxDuty, maxLuma)
	case Sine:
		return mapSine(value, maxDuty, maxLuma)
	case Square:
		return mapSquare(value, maxDuty, maxLuma)
	default:
		return mapLinear(value, maxDuty, maxLuma)
	}
}

// Unmap is the inverse of Map: it converts a duty value back into the luma
// scale. Saturated duty always unmaps to maxLuma, zero duty to 0.
func Unmap(c Curve, duty, maxDuty, maxLuma uint32) uint32 {
	if maxDuty == 0 || maxLuma == 0 {
		return 0
	}
	switch c {
	case Binary:
		return unmapBinary(duty, maxLuma)
	case CIE1931:
		return unmapCIE1931(duty, maxDuty, maxLuma)
	case Exponent:
		return unmapExponent(duty, maxDuty, maxLuma)
	case Sine:
		return unmapSine(duty, maxDuty, maxLuma)
	case Square:
		return unmapSquare(duty, maxDuty, maxLuma)
	default:
		return unmapLinear(duty, maxDuty, maxLuma)
	}
}

func mapBinary(value, maxDuty uint32) uint32 {
	if value == 0 {
		return 0
	}
	return maxDuty
}

func unmapBinary(duty, maxLuma uint32) uint32 {
	if duty == 0 {
		return 0
	}
	return maxLuma
}

func mapLinear(value, maxDuty, maxLuma uint32) uint32 {
	if value == 0 {
		return 0
	}
	if value >= maxLuma {
		return maxDuty
	}
	return uint32(uint64(maxDuty) * uint64(value) / uint64(maxLuma))
}

func unmapLinear(duty, maxDuty, maxLuma uint32) uint32 {
	if duty >= maxDuty {
		return maxLuma
	}
	return uint32(math.Round(float64(duty) * float64(maxLuma) / float64(maxDuty)))
}

func mapCIE1931(value, maxDuty, maxLuma uint32) uint32 {
	if value >= maxLuma {
		return maxDuty
	}
	if value == 0 {
		return 0
	}
	// CIE 1931 expects perceived lightness L* between 0 and 100.
	l := float64(value) / float64(maxLuma) * 100
	if l > cieThreshold {
		return uint32(math.Pow((l+16.0)/116.0, 3) * float64(maxDuty))
	}
	return uint32(l / 902.3 * float64(maxDuty))
}

func unmapCIE1931(duty, maxDuty, maxLuma uint32) uint32 {
	if duty >= maxDuty {
		return maxLuma
	}
	if duty == 0 {
		return 0
	}
	x := float64(duty) / float64(maxDuty)
	if x*902.3 <= cieThreshold {
		return uint32(math.Round(x * 902.3 * float64(maxLuma) / 100))
	}
	return uint32(math.Round((math.Cbrt(x)*116.0 - 16.0) * float64(maxLuma) / 100))
}

func mapExponent(value, maxDuty, maxLuma uint32) uint32 {
	if value >= maxLuma {
		return maxDuty
	}
	if value == 0 {
		return 0
	}
	sf := float64(maxLuma) * math.Log10(2) / math.Log10(float64(maxDuty))
	return uint32(math.Pow(2, float64(value)/sf) - 1)
}

func unmapExponent(duty, maxDuty, maxLuma uint32) uint32 {
	if duty >= maxDuty {
		return maxLuma
	}
	if duty == 0 {
		return 0
	}
	sf := float64(maxLuma) * math.Log10(2) / math.Log10(float64(maxDuty))
	return uint32(math.Round(sf * math.Log2(float64(duty)+1)))
}

func mapSine(value, maxDuty, maxLuma uint32) uint32 {
	if value >= maxLuma {
		return maxDuty
	}
	if value == 0 {
		return 0
	}
	duty := float64(value) * float64(maxDuty) / float64(maxLuma)
	return uint32((math.Sin(duty*math.Pi/float64(maxDuty)-math.Pi/2) + 1) * float64(maxDuty) / 2)
}

func unmapSine(duty, maxDuty, maxLuma uint32) uint32 {
	if duty >= maxDuty {
		return maxLuma
	}
	if duty == 0 {
		return 0
	}
	uduty := (math.Asin(float64(duty)*2/float64(maxDuty)-1) + math.Pi/2) * float64(maxDuty) / math.Pi
	return uint32(math.Round(uduty * float64(maxLuma) / float64(maxDuty)))
}

func mapSquare(value, maxDuty, maxLuma uint32) uint32 {
	if value >= maxLuma {
		return maxDuty
	}
	if value == 0 {
		return 0
	}
	duty := uint64(value) * uint64(maxDuty) / uint64(maxLuma)
	return uint32(duty * duty / uint64(maxDuty))
}

func unmapSquare(duty, maxDuty, maxLuma uint32) uint32 {
	if duty >= maxDuty {
		return maxLuma
	}
	if duty == 0 {
		return 0
	}
	uduty := math.Sqrt(float64(duty) * float64(maxDuty))
	return uint32(math.Round(uduty * float64(maxLuma) / float64(maxDuty)))
}

package light

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmylchreest/lumend/pkg/luma"
)

// SourceKind classifies a light source. It is fixed at construction.
type SourceKind uint8

const (
	// KindGeneric is any unspecific light source.
	KindGeneric SourceKind = iota
	// KindConstant is an on/off only source, e.g. a relay-switched lamp.
	KindConstant
	// KindDimmable is a continuously dimmable source.
	KindDimmable
	// KindRGB covers rgb/rgbw/rgbww sources.
	KindRGB
	// KindDynamic covers addressable LED sources.
	KindDynamic
	// KindComposite is a unit aggregating more than one light source.
	KindComposite
)

var kindNames = map[SourceKind]string{
	KindGeneric:   "generic",
	KindConstant:  "constant",
	KindDimmable:  "dimmable",
	KindRGB:       "rgb",
	KindDynamic:   "dynamic",
	KindComposite: "composite",
}

func (k SourceKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseSourceKind converts a kind name into a SourceKind.
func ParseSourceKind(s string) (SourceKind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(s, name) {
			return k, nil
		}
	}
	return KindGeneric, fmt.Errorf("unknown source kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k SourceKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ShareMode is the algorithm a composite uses to distribute one target value
// across its children.
type ShareMode uint8

const (
	// ShareIncremental stacks children: each child fills up to its max
	// before the next one receives anything.
	ShareIncremental ShareMode = iota
	// ShareEqual drives every child to the identical value.
	ShareEqual
	// SharePhase drives every child to the identical value with
	// staggered PWM phase offsets to spread transition edges across the
	// cycle.
	SharePhase
)

var shareNames = map[ShareMode]string{
	ShareIncremental: "incremental",
	ShareEqual:       "equal",
	SharePhase:       "phase",
}

func (m ShareMode) String() string {
	if name, ok := shareNames[m]; ok {
		return name
	}
	return fmt.Sprintf("share(%d)", uint8(m))
}

// ParseShareMode converts a share mode name into a ShareMode.
func ParseShareMode(s string) (ShareMode, error) {
	for m, name := range shareNames {
		if strings.EqualFold(s, name) {
			return m, nil
		}
	}
	return ShareIncremental, fmt.Errorf("unknown share mode %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m ShareMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Presentation defaults applied when a caller passes the zero/sentinel
// override.
const (
	// DefaultFadeTime is the fade duration used when none is configured.
	DefaultFadeTime = time.Second
	// DefaultScale is the brightness scale used by the scaled operations
	// when no scale is given (a percent scale).
	DefaultScale int32 = 100
	// DefaultStep is the scaled step used by GoIncr/GoDecr.
	DefaultStep int32 = 10
)

// DurationDefault tells a brightness operation to use the light's own
// default fade duration. A zero duration means an immediate, non-fading set.
const DurationDefault time.Duration = -1

// State is a point-in-time report of a light's observable state.
type State struct {
	Kind        SourceKind    `json:"kind"`
	Curve       luma.Curve    `json:"curve"`
	FadeTime    time.Duration `json:"fade_time"`
	Scale       int32         `json:"scale"`
	Step        int32         `json:"step"`
	Value       uint32        `json:"value"`
	MaxValue    uint32        `json:"max_value"`
	ValueScaled uint32        `json:"value_scaled"`
	Power       float64       `json:"power"`
	MaxPower    float64       `json:"max_power"`
	ActiveLevel bool          `json:"active_level"`
}

// ChangeFunc is the single-slot state change notification sink. It is
// invoked whenever the light's observable output value changes, including as
// a result of an asynchronous fade completion.
type ChangeFunc func(State)

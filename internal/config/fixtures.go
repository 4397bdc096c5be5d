package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/lumend/pkg/light"
	"github.com/jmylchreest/lumend/pkg/luma"
)

// Fixture describes one light to build at daemon startup. Channel and Pin are
// pointers so that "unset" is distinguishable from zero.
type Fixture struct {
	ID        string  `yaml:"id"`
	Kind      string  `yaml:"kind"`
	Channel   *uint32 `yaml:"channel,omitempty"`
	Pin       *int    `yaml:"pin,omitempty"`
	Curve     string  `yaml:"curve,omitempty"`
	MaxPower  float64 `yaml:"max_power,omitempty"`
	FadeMs    int64   `yaml:"fade_ms,omitempty"`
	ActiveLow bool    `yaml:"active_low,omitempty"`

	// Composite-only fields
	Share   string    `yaml:"share,omitempty"`
	Members []Fixture `yaml:"members,omitempty"`
}

// FixtureFile is the on-disk fixture definition format.
type FixtureFile struct {
	Lights []Fixture `yaml:"lights"`
}

// LoadFixtures reads and validates a fixture definition file. A missing file
// is not an error; the daemon simply starts with no lights.
func LoadFixtures(path string) (*FixtureFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &FixtureFile{}, nil
		}
		return nil, fmt.Errorf("reading fixtures file %s: %w", path, err)
	}

	var ff FixtureFile
	if err := yaml.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("parsing fixtures file %s: %w", path, err)
	}

	seen := make(map[string]bool)
	for i := range ff.Lights {
		if err := ff.Lights[i].validate(seen, true); err != nil {
			return nil, fmt.Errorf("fixtures file %s: %w", path, err)
		}
	}
	return &ff, nil
}

// validate checks one fixture and records its ID. Composites are only allowed
// at the top level.
func (f *Fixture) validate(seen map[string]bool, allowComposite bool) error {
	if f.ID == "" {
		return fmt.Errorf("fixture without id")
	}
	if seen[f.ID] {
		return fmt.Errorf("duplicate fixture id %q", f.ID)
	}
	seen[f.ID] = true

	kind, err := light.ParseSourceKind(f.Kind)
	if err != nil {
		return fmt.Errorf("fixture %q: %w", f.ID, err)
	}
	if f.Curve != "" {
		if _, err := luma.ParseCurve(f.Curve); err != nil {
			return fmt.Errorf("fixture %q: %w", f.ID, err)
		}
	}
	if f.FadeMs < 0 {
		return fmt.Errorf("fixture %q: fade_ms must not be negative", f.ID)
	}

	switch kind {
	case light.KindDimmable:
		if f.Channel == nil {
			return fmt.Errorf("fixture %q: dimmable light needs a channel", f.ID)
		}
		if f.Pin == nil {
			return fmt.Errorf("fixture %q: dimmable light needs a pin", f.ID)
		}
	case light.KindConstant:
		if f.Pin == nil {
			return fmt.Errorf("fixture %q: constant light needs a pin", f.ID)
		}
	case light.KindComposite:
		if !allowComposite {
			return fmt.Errorf("fixture %q: composites cannot nest", f.ID)
		}
		if _, err := light.ParseShareMode(f.Share); err != nil {
			return fmt.Errorf("fixture %q: %w", f.ID, err)
		}
		if len(f.Members) == 0 {
			return fmt.Errorf("fixture %q: composite needs at least one member", f.ID)
		}
		for i := range f.Members {
			if err := f.Members[i].validate(seen, false); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("fixture %q: kind %s is not buildable", f.ID, kind)
	}
	return nil
}

package main

import (
	"log/slog"
	"time"

	"github.com/jmylchreest/lumend/internal/config"
	"github.com/jmylchreest/lumend/internal/errors"
	"github.com/jmylchreest/lumend/internal/lightmgr"
	"github.com/jmylchreest/lumend/pkg/fader"
	"github.com/jmylchreest/lumend/pkg/hw"
	"github.com/jmylchreest/lumend/pkg/light"
	"github.com/jmylchreest/lumend/pkg/luma"
)

// buildLights constructs every fixture and registers it with the manager.
// Channel timers are configured to the hardware defaults before the lights
// claim them.
func buildLights(logger *slog.Logger, cfg *config.Config, ff *config.FixtureFile, pwm hw.PWM, gpio hw.GPIO, fc *fader.Coordinator, mgr *lightmgr.Manager) error {
	for _, f := range ff.Lights {
		l, err := buildLight(logger, cfg, f, pwm, gpio, fc)
		if err != nil {
			return errors.WrapErrorf(err, "building fixture %s", f.ID)
		}
		if err := mgr.AddLight(f.ID, l); err != nil {
			return err
		}
	}
	return nil
}

func buildLight(logger *slog.Logger, cfg *config.Config, f config.Fixture, pwm hw.PWM, gpio hw.GPIO, fc *fader.Coordinator) (light.Light, error) {
	opts := fixtureOptions(f)
	kind, err := light.ParseSourceKind(f.Kind)
	if err != nil {
		return nil, err
	}

	switch kind {
	case light.KindDimmable:
		if err := pwm.Configure(*f.Channel, uint8(cfg.Hardware.Bits), uint32(cfg.Hardware.FreqHz)); err != nil {
			return nil, err
		}
		return light.NewPWMLight(logger, pwm, *f.Channel, *f.Pin, fc, opts...)

	case light.KindConstant:
		return light.NewGPIOLight(logger, gpio, *f.Pin, opts...)

	case light.KindComposite:
		share, err := light.ParseShareMode(f.Share)
		if err != nil {
			return nil, err
		}
		subKind, err := light.ParseSourceKind(f.Members[0].Kind)
		if err != nil {
			return nil, err
		}
		c := light.NewComposite(logger, subKind, share, opts...)
		for _, m := range f.Members {
			member, err := buildLight(logger, cfg, m, pwm, gpio, fc)
			if err != nil {
				return nil, errors.WrapErrorf(err, "building member %s", m.ID)
			}
			if err := c.AddLight(member, m.ID); err != nil {
				return nil, err
			}
		}
		return c, nil

	default:
		return nil, errors.InvalidInputf("fixture kind %s is not buildable", kind)
	}
}

func fixtureOptions(f config.Fixture) []light.Option {
	var opts []light.Option
	if f.Curve != "" {
		if c, err := luma.ParseCurve(f.Curve); err == nil {
			opts = append(opts, light.WithCurve(c))
		}
	}
	if f.MaxPower > 0 {
		opts = append(opts, light.WithMaxPower(f.MaxPower))
	}
	fadeMs := f.FadeMs
	if fadeMs <= 0 {
		fadeMs = config.DefaultFadeMs
	}
	opts = append(opts, light.WithFadeTime(time.Duration(fadeMs)*time.Millisecond))
	if f.ActiveLow {
		opts = append(opts, light.WithActiveLevel(false))
	}
	return opts
}

package commands

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/lumend/internal/driver/sim"
	"github.com/jmylchreest/lumend/internal/events"
	"github.com/jmylchreest/lumend/internal/lightmgr"
	"github.com/jmylchreest/lumend/pkg/fader"
	"github.com/jmylchreest/lumend/pkg/light"
	"github.com/jmylchreest/lumend/pkg/luma"
)

// NewDemoCommand creates the demo command. It runs a short scripted scene on
// the simulated backend and prints every state change as it happens, which is
// the quickest way to see the share modes and fade engine in action.
func NewDemoCommand(logger *slog.Logger) *cobra.Command {
	var members int
	var shareName string
	var fadeMs int
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a scripted scene on the simulated backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			share, err := light.ParseShareMode(shareName)
			if err != nil {
				return err
			}
			if members < 1 || members > sim.NumChannels {
				return fmt.Errorf("members must be between 1 and %d", sim.NumChannels)
			}

			pwm := sim.NewPWM(logger)
			defer pwm.Close()
			gpio := sim.NewGPIO(logger)

			fc := fader.NewCoordinator(logger, pwm)
			defer fc.Stop()

			bus := events.NewBus()
			mgr := lightmgr.NewManager(logger, bus)
			defer mgr.Close()

			unsub := bus.Subscribe(func(e events.Event) {
				if e.Type != events.LightStateChanged {
					return
				}
				var se lightmgr.StateEvent
				if err := e.Decode(&se); err != nil {
					return
				}
				fmt.Printf("%-8s value=%-5d (%d%%) power=%.1fW\n",
					se.LightID, se.State.Value, se.State.ValueScaled, se.State.Power)
			})
			defer unsub()

			// One composite of dimmable channels plus a single relay.
			comp := light.NewComposite(logger, light.KindDimmable, share)
			for i := 0; i < members; i++ {
				member, err := light.NewPWMLight(logger, pwm, uint32(i), i, fc,
					light.WithCurve(luma.CIE1931), light.WithMaxPower(9.0))
				if err != nil {
					return err
				}
				if err := comp.AddLight(member, fmt.Sprintf("bank-%d", i)); err != nil {
					return err
				}
			}
			if err := mgr.AddLight("bank", comp); err != nil {
				return err
			}

			relay, err := light.NewGPIOLight(logger, gpio, sim.NumPins-1, light.WithMaxPower(60))
			if err != nil {
				return err
			}
			if err := mgr.AddLight("relay", relay); err != nil {
				return err
			}

			fade := time.Duration(fadeMs) * time.Millisecond
			wait := func() { time.Sleep(fade + 50*time.Millisecond) }

			pterm.DefaultSection.Printf("share mode %s, %d members, %s fades", share, members, fade)

			script := []struct {
				title string
				cmd   lightmgr.Command
			}{
				{"relay on", lightmgr.Command{LightID: "relay", Op: lightmgr.OpOn}},
				{"bank to 50%", lightmgr.Command{LightID: "bank", Op: lightmgr.OpValueScaled, Value: 50, Scale: 100}},
				{"bank to full", lightmgr.Command{LightID: "bank", Op: lightmgr.OpMax}},
				{"bank step down", lightmgr.Command{LightID: "bank", Op: lightmgr.OpDecr}},
				{"everything off", lightmgr.Command{LightID: "bank", Op: lightmgr.OpOff}},
			}
			ms := int64(fadeMs)
			for _, step := range script {
				pterm.Println(pterm.Bold.Sprint(step.title))
				step.cmd.FadeMs = &ms
				bus.Publish(events.NewEvent(events.LightCommand, step.cmd))
				wait()
			}
			bus.Publish(events.NewEvent(events.LightCommand, lightmgr.Command{LightID: "relay", Op: lightmgr.OpOff}))

			pterm.Success.Println("scene finished")
			return nil
		},
	}
	cmd.Flags().IntVar(&members, "members", 3, "Number of dimmable channels in the composite")
	cmd.Flags().StringVar(&shareName, "share", "phase", "Share mode (incremental, equal, phase)")
	cmd.Flags().IntVar(&fadeMs, "fade-ms", 200, "Fade duration per step in milliseconds")
	return cmd
}

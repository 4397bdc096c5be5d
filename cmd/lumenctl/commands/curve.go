package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/lumend/pkg/luma"
)

// NewCurveCommand creates the curve command
func NewCurveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "curve",
		Short: "Inspect perceptual brightness curves",
	}

	cmd.AddCommand(
		newCurveListCommand(),
		newCurveTableCommand(),
	)

	return cmd
}

// newCurveListCommand creates the curve list command
func newCurveListCommand() *cobra.Command {
	var parseable bool
	var maxDuty uint32
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List supported curves with sample duty values",
		RunE: func(cmd *cobra.Command, args []string) error {
			if parseable {
				for _, c := range luma.Curves() {
					fmt.Printf("curve=%q duty25=%d duty50=%d duty75=%d\n",
						c.String(),
						luma.Map(c, 25, maxDuty, 100),
						luma.Map(c, 50, maxDuty, 100),
						luma.Map(c, 75, maxDuty, 100))
				}
				return nil
			}

			table := pterm.TableData{
				[]string{"Curve", "25%", "50%", "75%"},
			}
			for _, c := range luma.Curves() {
				table = append(table, []string{
					pterm.Bold.Sprint(c.String()),
					fmt.Sprintf("%d", luma.Map(c, 25, maxDuty, 100)),
					fmt.Sprintf("%d", luma.Map(c, 50, maxDuty, 100)),
					fmt.Sprintf("%d", luma.Map(c, 75, maxDuty, 100)),
				})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(table).Render()
		},
	}
	cmd.Flags().BoolVarP(&parseable, "parseable", "p", false, "Output in parseable format (key=value)")
	cmd.Flags().Uint32Var(&maxDuty, "max-duty", 1023, "Top of the duty range")
	return cmd
}

// newCurveTableCommand creates the curve table command
func newCurveTableCommand() *cobra.Command {
	var parseable bool
	var curveName string
	var maxDuty, scale, step uint32
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Print the full luma to duty mapping of one curve",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := luma.ParseCurve(curveName)
			if err != nil {
				return err
			}
			if step == 0 || scale == 0 {
				return fmt.Errorf("step and scale must be non-zero")
			}

			if parseable {
				for v := uint32(0); ; v += step {
					if v > scale {
						v = scale
					}
					duty := luma.Map(c, v, maxDuty, scale)
					fmt.Printf("luma=%d duty=%d back=%d\n", v, duty, luma.Unmap(c, duty, maxDuty, scale))
					if v == scale {
						break
					}
				}
				return nil
			}

			table := pterm.TableData{
				[]string{"Luma", "Duty", "Round trip"},
			}
			for v := uint32(0); ; v += step {
				if v > scale {
					v = scale
				}
				duty := luma.Map(c, v, maxDuty, scale)
				table = append(table, []string{
					fmt.Sprintf("%d", v),
					fmt.Sprintf("%d", duty),
					fmt.Sprintf("%d", luma.Unmap(c, duty, maxDuty, scale)),
				})
				if v == scale {
					break
				}
			}
			pterm.Info.Printf("curve %s, duty range 0..%d, luma scale 0..%d\n", c, maxDuty, scale)
			return pterm.DefaultTable.WithHasHeader().WithData(table).Render()
		},
	}
	cmd.Flags().BoolVarP(&parseable, "parseable", "p", false, "Output in parseable format (key=value)")
	cmd.Flags().StringVar(&curveName, "curve", "cie1931", "Curve name")
	cmd.Flags().Uint32Var(&maxDuty, "max-duty", 1023, "Top of the duty range")
	cmd.Flags().Uint32Var(&scale, "scale", 100, "Top of the luma scale")
	cmd.Flags().Uint32Var(&step, "step", 5, "Luma step between rows")
	return cmd
}

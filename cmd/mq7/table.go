package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/envmon/mq7/pkg/config"
	"github.com/envmon/mq7/pkg/mq7"
	"github.com/envmon/mq7/pkg/types"
)

// tableRows maps every step-th reading of the ADC domain. The upper bound of
// the domain is always included.
func tableRows(cal mq7.Calibration, threshold float64, step int) []types.MapResult {
	lo, hi := int(cal.ADCMin), int(cal.ADCMax)

	var rows []types.MapResult
	for adc := lo; adc < hi; adc += step {
		rows = append(rows, mapLocal(cal, threshold, adc))
	}
	return append(rows, mapLocal(cal, threshold, hi))
}

func NewTableCommand() *cobra.Command {
	var step int

	cmd := &cobra.Command{
		Use:     "table",
		Short:   "Print the mapping table of the configured calibration",
		GroupID: gBasic,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if step <= 0 {
				return fmt.Errorf("step must be positive, got %d", step)
			}

			conf, err := config.NewFile(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cal := conf.Calibration()

			cmd.Println(bold("Calibration:"))
			cmd.Printf("  ADC range: [%g, %g]\n", cal.ADCMin, cal.ADCMax)
			cmd.Printf("  Gas range: [%g, %g]\n", cal.UnitMin, cal.UnitMax)
			cmd.Printf("  Gas threshold: %g\n", conf.GasThreshold())
			cmd.Println()

			cmd.Println(bold("%6s  %7s  %s", "ADC", "Gas", "Level"))
			for _, row := range tableRows(cal, conf.GasThreshold(), step) {
				cmd.Printf("%6d  %7.2f  %s\n", row.ADC, row.Gas, levelText(row.Level))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&step, "step", 256, "ADC step between rows")

	return cmd
}

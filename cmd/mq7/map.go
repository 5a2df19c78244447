package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/envmon/mq7/pkg/config"
	"github.com/envmon/mq7/pkg/mq7"
	"github.com/envmon/mq7/pkg/types"
)

func NewMapCommand() *cobra.Command {
	var (
		remote    bool
		threshold float64
	)

	cmd := &cobra.Command{
		Use:     "map ADC...",
		Short:   "Map ADC readings to gas units",
		GroupID: gBasic,
		Long: `Map one or more 12-bit ADC readings to gas units.

By default the calibration is read from the config file. Use --remote to map
with the calibration of the running daemon instead. --threshold overrides the
configured or daemon threshold in both modes. Readings are not recorded.`,
		Example: `  mq7 map 0 2048 4095
  mq7 map --remote 3100`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adcs, err := parseIntArgs(args, "adc reading")
			if err != nil {
				return err
			}

			var results []types.MapResult
			if remote {
				c := newAPIClient()
				for _, adc := range adcs {
					res, err := c.Map(adc)
					if err != nil {
						return fmt.Errorf("failed to map %d: %w", adc, err)
					}
					if cmd.Flags().Changed("threshold") {
						res.Threshold = threshold
						res.Level = mq7.Classify(res.Gas, threshold)
					}
					results = append(results, *res)
				}
			} else {
				conf, err := config.NewFile(configPath)
				if err != nil {
					return fmt.Errorf("failed to load config: %w", err)
				}
				if !cmd.Flags().Changed("threshold") {
					threshold = conf.GasThreshold()
				}
				cal := conf.Calibration()
				for _, adc := range adcs {
					results = append(results, mapLocal(cal, threshold, adc))
				}
			}

			for _, res := range results {
				cmd.Printf("%6d -> %s  %s\n", res.ADC, bold("%7.2f", res.Gas), levelText(res.Level))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVar(&remote, "remote", false, "map with the calibration of the running daemon")
	f.Float64Var(&threshold, "threshold", 0, "gas threshold for elevated readings (defaults to the configured one)")

	return cmd
}

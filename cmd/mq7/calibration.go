package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func NewCalibrationCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "calibration",
		Aliases: []string{"cal"},
		Short:   "Show or change the calibration of the mq7 daemon",
		GroupID: gDaemon,
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current calibration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cal, err := newAPIClient().GetCalibration()
			if err != nil {
				return err
			}
			cmd.Printf("ADC range: %s\n", bold("[%g, %g]", cal.ADCMin, cal.ADCMax))
			cmd.Printf("Gas range: %s\n", bold("[%g, %g]", cal.UnitMin, cal.UnitMax))
			return nil
		},
	}

	var adcMin, adcMax, unitMin, unitMax float64
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Change the calibration. Bounds that are not given keep their current value",
		Example: `  mq7 calibration set --unit-min 120 --unit-max 800
  mq7 calibration set --adc-min 100 --adc-max 4000`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := newAPIClient()
			cal, err := c.GetCalibration()
			if err != nil {
				return err
			}

			f := cmd.Flags()
			if !f.Changed("adc-min") && !f.Changed("adc-max") && !f.Changed("unit-min") && !f.Changed("unit-max") {
				return fmt.Errorf("nothing to change, pass at least one of --adc-min, --adc-max, --unit-min, --unit-max")
			}
			if f.Changed("adc-min") {
				cal.ADCMin = adcMin
			}
			if f.Changed("adc-max") {
				cal.ADCMax = adcMax
			}
			if f.Changed("unit-min") {
				cal.UnitMin = unitMin
			}
			if f.Changed("unit-max") {
				cal.UnitMax = unitMax
			}

			// Catch obvious mistakes before asking the daemon.
			if err := cal.Validate(); err != nil {
				return err
			}

			ret, err := c.SetCalibration(cal)
			if err != nil {
				return fmt.Errorf("failed to set calibration: %w", err)
			}
			if ret != "" {
				logrus.Infof("daemon responded: %s", ret)
			}
			return nil
		},
	}

	sf := setCmd.Flags()
	sf.Float64Var(&adcMin, "adc-min", 0, "lowest ADC reading")
	sf.Float64Var(&adcMax, "adc-max", 0, "highest ADC reading")
	sf.Float64Var(&unitMin, "unit-min", 0, "gas units at the lowest ADC reading")
	sf.Float64Var(&unitMax, "unit-max", 0, "gas units at the highest ADC reading")

	cmd.AddCommand(showCmd, setCmd)

	return cmd
}

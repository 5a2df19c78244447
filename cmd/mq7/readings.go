package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func NewPostCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "post DEVICE ADC",
		Short:   "Send a reading to the mq7 daemon, as a sensor would",
		GroupID: gDaemon,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			adc, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid adc reading: %v", err)
			}

			res, err := newAPIClient().PostReading(args[0], adc)
			if err != nil {
				return err
			}

			r := res.Reading
			cmd.Printf("%s %s: %d -> %s  %s (rate %+.2f/sample)\n",
				r.Time.Format(time.Kitchen), r.DeviceID, r.ADC, bold("%.2f", r.Gas), levelText(r.Level), res.GasRate5)
			return nil
		},
	}
}

func NewSummaryCommand() *cobra.Command {
	var (
		last int
		skip bool
	)

	cmd := &cobra.Command{
		Use:     "summary",
		Short:   "Show a summary of the readings recorded by the mq7 daemon",
		GroupID: gDaemon,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := newAPIClient()
			if skip {
				st, err := c.SkipSummary()
				if err != nil {
					return err
				}
				cmd.Printf("Next summary report: %s\n", bold("%s", st.NextRun.Local().Format(time.DateTime)))
				return nil
			}

			s, err := c.GetSummary()
			if err != nil {
				return err
			}

			cmd.Println(bold("Readings:"))
			if s.Count == 0 {
				cmd.Println("  No readings recorded yet.")
				return nil
			}
			cmd.Printf("  Count: %s\n", bold("%d", s.Count))
			cmd.Printf("  Gas min/mean/max: %s\n", bold("%.2f / %.2f / %.2f", s.Min, s.Mean, s.Max))
			cmd.Printf("  Elevated: %s\n", bold("%d", s.Elevated))

			if last <= 0 {
				return nil
			}

			rs, err := c.GetReadings(last)
			if err != nil {
				return err
			}
			cmd.Println()
			cmd.Println(bold("Latest readings:"))
			for _, r := range rs {
				cmd.Printf("  %s %-12s %6d -> %7.2f  %s\n", r.Time.Format(time.Kitchen), r.DeviceID, r.ADC, r.Gas, levelText(r.Level))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&last, "last", 0, "also list the newest N readings")
	cmd.Flags().BoolVar(&skip, "skip", false, "skip the next scheduled summary report")

	return cmd
}

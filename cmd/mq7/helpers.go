package main

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"

	"github.com/envmon/mq7/pkg/mq7"
	"github.com/envmon/mq7/pkg/types"
)

func parseIntArgs(args []string, valueName string) ([]int, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("at least one %s is required", valueName)
	}

	values := make([]int, 0, len(args))
	for _, arg := range args {
		v, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %v", valueName, err)
		}
		values = append(values, v)
	}

	return values, nil
}

func mapLocal(cal mq7.Calibration, threshold float64, adc int) types.MapResult {
	gas := cal.Map(adc)
	return types.MapResult{
		ADC:       adc,
		Gas:       gas,
		Level:     mq7.Classify(gas, threshold),
		Threshold: threshold,
	}
}

func levelText(l mq7.Level) string {
	if l == mq7.LevelElevated {
		return color.New(color.Bold, color.FgRed).Sprint(l)
	}
	return color.New(color.Bold, color.FgGreen).Sprint(l)
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}

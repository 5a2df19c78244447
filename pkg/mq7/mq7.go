package mq7

import (
	"errors"
	"math"

	pkgerrors "github.com/pkg/errors"
)

// Default calibration of a 12-bit ADC channel. Adjust UnitMin/UnitMax if the
// sensor calibration differs.
const (
	ADCMin  = 0.0
	ADCMax  = 4095.0
	UnitMin = 150.0
	UnitMax = 700.0
)

// ErrInvalidCalibration is returned by Validate when the calibration cannot
// produce a monotonic mapping.
var ErrInvalidCalibration = errors.New("invalid calibration")

// DefaultCalibration maps [0, 4095] to [150, 700].
var DefaultCalibration = Calibration{
	ADCMin:  ADCMin,
	ADCMax:  ADCMax,
	UnitMin: UnitMin,
	UnitMax: UnitMax,
}

// Calibration is the input domain and output range of the mapping.
type Calibration struct {
	ADCMin  float64 `json:"adcMin"`
	ADCMax  float64 `json:"adcMax"`
	UnitMin float64 `json:"unitMin"`
	UnitMax float64 `json:"unitMax"`
}

// MapADCToGas maps an ADC sample to gas units using DefaultCalibration.
func MapADCToGas(adc int) float64 {
	return DefaultCalibration.Map(adc)
}

// Map linearly maps adc from [ADCMin, ADCMax] to [UnitMin, UnitMax]. Samples
// outside the domain are clamped.
//
// A degenerate domain (ADCMin == ADCMax) behaves as a step at ADCMin.
func (c Calibration) Map(adc int) float64 {
	v := float64(adc)
	span := c.ADCMax - c.ADCMin

	var t float64
	if span == 0 {
		if v >= c.ADCMin {
			t = 1
		}
	} else {
		t = (v - c.ADCMin) / span
	}

	if math.IsNaN(t) || t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}

	return c.UnitMin + t*(c.UnitMax-c.UnitMin)
}

// Validate checks that both bounds are finite and strictly increasing.
func (c Calibration) Validate() error {
	bounds := []struct {
		name  string
		value float64
	}{
		{"adcMin", c.ADCMin},
		{"adcMax", c.ADCMax},
		{"unitMin", c.UnitMin},
		{"unitMax", c.UnitMax},
	}
	for _, b := range bounds {
		if math.IsNaN(b.value) || math.IsInf(b.value, 0) {
			return pkgerrors.Wrapf(ErrInvalidCalibration, "%s is not a finite number", b.name)
		}
	}

	if c.ADCMin >= c.ADCMax {
		return pkgerrors.Wrapf(ErrInvalidCalibration, "adcMin (%g) must be less than adcMax (%g)", c.ADCMin, c.ADCMax)
	}
	if c.UnitMin >= c.UnitMax {
		return pkgerrors.Wrapf(ErrInvalidCalibration, "unitMin (%g) must be less than unitMax (%g)", c.UnitMin, c.UnitMax)
	}

	return nil
}

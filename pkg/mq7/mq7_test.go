package mq7

import (
	"errors"
	"math"
	"sync"
	"testing"
)

const tolerance = 1e-9

func TestMapADCToGas(t *testing.T) {
	tests := []struct {
		name string
		adc  int
		want float64
		tol  float64
	}{
		{name: "lower bound", adc: 0, want: 150, tol: tolerance},
		{name: "upper bound", adc: 4095, want: 700, tol: tolerance},
		{name: "midpoint low", adc: 2047, want: 425, tol: 0.1},
		{name: "midpoint high", adc: 2048, want: 425, tol: 0.1},
		{name: "quarter", adc: 1023, want: 150 + 1023.0/4095.0*550, tol: tolerance},
		{name: "negative clamps", adc: -100, want: 150, tol: tolerance},
		{name: "above range clamps", adc: 10000, want: 700, tol: tolerance},
		{name: "min int clamps", adc: math.MinInt32, want: 150, tol: tolerance},
		{name: "max int clamps", adc: math.MaxInt32, want: 700, tol: tolerance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MapADCToGas(tt.adc); math.Abs(got-tt.want) > tt.tol {
				t.Errorf("MapADCToGas(%d) = %v, want %v", tt.adc, got, tt.want)
			}
		})
	}
}

func TestMapADCToGasRangeAndMonotonic(t *testing.T) {
	prev := math.Inf(-1)
	for adc := -50; adc <= 4200; adc++ {
		got := MapADCToGas(adc)
		if got < UnitMin || got > UnitMax {
			t.Fatalf("MapADCToGas(%d) = %v, out of [%v, %v]", adc, got, UnitMin, UnitMax)
		}
		if got < prev {
			t.Fatalf("MapADCToGas(%d) = %v is less than previous value %v", adc, got, prev)
		}
		prev = got
	}
}

func TestMapADCToGasDeterministic(t *testing.T) {
	want := MapADCToGas(1234)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if got := MapADCToGas(1234); got != want {
					t.Errorf("MapADCToGas(1234) = %v, want %v", got, want)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestCalibrationMap(t *testing.T) {
	tests := []struct {
		name string
		c    Calibration
		adc  int
		want float64
	}{
		{
			name: "custom range",
			c:    Calibration{ADCMin: 100, ADCMax: 1100, UnitMin: 0, UnitMax: 10},
			adc:  600,
			want: 5,
		},
		{
			name: "custom range below domain",
			c:    Calibration{ADCMin: 100, ADCMax: 1100, UnitMin: 0, UnitMax: 10},
			adc:  50,
			want: 0,
		},
		{
			name: "degenerate domain below step",
			c:    Calibration{ADCMin: 500, ADCMax: 500, UnitMin: 150, UnitMax: 700},
			adc:  499,
			want: 150,
		},
		{
			name: "degenerate domain at step",
			c:    Calibration{ADCMin: 500, ADCMax: 500, UnitMin: 150, UnitMax: 700},
			adc:  500,
			want: 700,
		},
		{
			name: "nan bound falls back to unit min",
			c:    Calibration{ADCMin: math.NaN(), ADCMax: 4095, UnitMin: 150, UnitMax: 700},
			adc:  2000,
			want: 150,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Map(tt.adc); math.Abs(got-tt.want) > tolerance {
				t.Errorf("Map(%d) = %v, want %v", tt.adc, got, tt.want)
			}
		})
	}
}

func TestCalibrationValidate(t *testing.T) {
	tests := []struct {
		name    string
		c       Calibration
		wantErr bool
	}{
		{name: "default", c: DefaultCalibration, wantErr: false},
		{name: "equal adc bounds", c: Calibration{ADCMin: 10, ADCMax: 10, UnitMin: 1, UnitMax: 2}, wantErr: true},
		{name: "inverted adc bounds", c: Calibration{ADCMin: 4095, ADCMax: 0, UnitMin: 1, UnitMax: 2}, wantErr: true},
		{name: "inverted unit bounds", c: Calibration{ADCMin: 0, ADCMax: 4095, UnitMin: 700, UnitMax: 150}, wantErr: true},
		{name: "infinite bound", c: Calibration{ADCMin: 0, ADCMax: math.Inf(1), UnitMin: 1, UnitMax: 2}, wantErr: true},
		{name: "nan bound", c: Calibration{ADCMin: 0, ADCMax: 4095, UnitMin: math.NaN(), UnitMax: 2}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidCalibration) {
				t.Errorf("Validate() error = %v, want it to wrap ErrInvalidCalibration", err)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		gas  float64
		want Level
	}{
		{gas: 150, want: LevelNormal},
		{gas: 400, want: LevelNormal},
		{gas: 400.01, want: LevelElevated},
		{gas: 700, want: LevelElevated},
	}
	for _, tt := range tests {
		if got := Classify(tt.gas, DefaultGasThreshold); got != tt.want {
			t.Errorf("Classify(%v) = %v, want %v", tt.gas, got, tt.want)
		}
	}
}

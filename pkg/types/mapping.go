package types

import (
	"time"

	"github.com/envmon/mq7/pkg/mq7"
	"github.com/envmon/mq7/pkg/readings"
)

// MapResult is a single ADC sample mapped to gas units.
// This struct is shared between the daemon and client packages.
type MapResult struct {
	ADC       int       `json:"adc"`
	Gas       float64   `json:"gas"`
	Level     mq7.Level `json:"level"`
	Threshold float64   `json:"threshold"`
}

// ReadingRequest is the body a sensor posts to the daemon.
type ReadingRequest struct {
	DeviceID string `json:"deviceId"`
	ADC      *int   `json:"adc"`
}

// ReadingResponse is the recorded reading plus features derived from the
// recent history.
type ReadingResponse struct {
	Reading  readings.Reading `json:"reading"`
	GasRate5 float64          `json:"gasRate5"`
}

// ScheduleStatus reports when the next summary report runs.
type ScheduleStatus struct {
	NextRun time.Time `json:"nextRun"`
}

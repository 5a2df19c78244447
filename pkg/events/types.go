package events

import "encoding/json"

// Event name constants
const (
	ReadingMapped      = "reading.mapped"
	ReadingElevated    = "reading.elevated"
	ReadingsSummary    = "readings.summary"
	CalibrationChanged = "calibration.changed"
)

// Event is a generic SSE event from daemon.
type Event struct {
	Name string          // SSE event name
	Data json.RawMessage // Raw JSON payload
}

// CalibrationChangedEvent is the typed payload for calibration.changed.
type CalibrationChangedEvent struct {
	ADCMin  float64 `json:"adcMin"`
	ADCMax  float64 `json:"adcMax"`
	UnitMin float64 `json:"unitMin"`
	UnitMax float64 `json:"unitMax"`
	Ts      int64   `json:"ts"`
}

// DecodeAs decodes the event payload into the caller-specified generic type T.
// It ignores the event name and simply unmarshals Data into T. If Data is empty,
// it returns the zero value of T with a nil error.
//
// Example:
//
//	r, err := events.DecodeAs[readings.Reading](ev)
//	if err != nil { /* handle */ }
//	fmt.Println(r.DeviceID, r.Gas)
func DecodeAs[T any](e Event) (T, error) {
	var zero T
	if len(e.Data) == 0 {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return zero, err
	}
	return v, nil
}

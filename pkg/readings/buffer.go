package readings

import (
	"math"
	"sync"
	"time"

	"github.com/envmon/mq7/pkg/mq7"
)

// DefaultBufferSize is the number of readings kept when no size is configured.
const DefaultBufferSize = 5000

// Reading is a single mapped sensor sample.
type Reading struct {
	DeviceID string    `json:"deviceId"`
	ADC      int       `json:"adc"`
	Gas      float64   `json:"gas"`
	Level    mq7.Level `json:"level"`
	Time     time.Time `json:"time"`
}

// Summary aggregates the gas values of the buffered readings.
type Summary struct {
	Count    int     `json:"count"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Mean     float64 `json:"mean"`
	Elevated int     `json:"elevated"`
}

// Buffer keeps the last MaxRecordCount readings, oldest first.
type Buffer struct {
	MaxRecordCount int
	records        []Reading
	mu             *sync.Mutex
}

// NewBuffer returns a new Buffer. A non-positive size uses DefaultBufferSize.
func NewBuffer(maxRecordCount int) *Buffer {
	if maxRecordCount <= 0 {
		maxRecordCount = DefaultBufferSize
	}
	return &Buffer{
		MaxRecordCount: maxRecordCount,
		records:        make([]Reading, 0),
		mu:             &sync.Mutex{},
	}
}

// Add appends r, evicting the oldest reading when the buffer is full.
func (b *Buffer) Add(r Reading) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Strip monotonic clock reading.
	r.Time = r.Time.Round(0)

	if len(b.records) >= b.MaxRecordCount {
		b.records = b.records[len(b.records)-b.MaxRecordCount+1:]
	}
	b.records = append(b.records, r)
}

// Len returns the number of buffered readings.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.records)
}

// Clear removes all readings.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.records = make([]Reading, 0)
}

// Last returns a copy of the newest n readings, oldest first. A non-positive
// n returns every reading.
func (b *Buffer) Last(n int) []Reading {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n <= 0 || n > len(b.records) {
		n = len(b.records)
	}
	out := make([]Reading, n)
	copy(out, b.records[len(b.records)-n:])
	return out
}

// GasRate returns (gas[t] - gas[t-n]) / n for the newest reading t. It is 0
// until more than n readings are buffered.
func (b *Buffer) GasRate(n int) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n <= 0 || len(b.records) <= n {
		return 0
	}
	last := len(b.records) - 1
	return (b.records[last].Gas - b.records[last-n].Gas) / float64(n)
}

// Summary aggregates every buffered reading.
func (b *Buffer) Summary() Summary {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.records) == 0 {
		return Summary{}
	}

	s := Summary{
		Count: len(b.records),
		Min:   math.Inf(1),
		Max:   math.Inf(-1),
	}
	var sum float64
	for _, r := range b.records {
		sum += r.Gas
		s.Min = math.Min(s.Min, r.Gas)
		s.Max = math.Max(s.Max, r.Gas)
		if r.Level == mq7.LevelElevated {
			s.Elevated++
		}
	}
	s.Mean = sum / float64(s.Count)

	return s
}

package readings

import (
	"encoding/csv"
	"os"
	"strconv"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
)

var logHeader = []string{"time", "deviceId", "adc", "gas", "level"}

// Log appends readings to a CSV file. The header row is written when the
// file is created or empty.
type Log struct {
	path string
	mu   *sync.Mutex
}

func NewLog(path string) *Log {
	return &Log{
		path: path,
		mu:   &sync.Mutex{},
	}
}

func (l *Log) Path() string {
	return l.path
}

func (l *Log) Append(r Reading) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	fp, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open reading log %s", l.path)
	}
	defer fp.Close()

	info, err := fp.Stat()
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to stat reading log %s", l.path)
	}

	w := csv.NewWriter(fp)
	if info.Size() == 0 {
		if err := w.Write(logHeader); err != nil {
			return pkgerrors.Wrapf(err, "failed to write header to %s", l.path)
		}
	}
	err = w.Write([]string{
		r.Time.Format(time.RFC3339),
		r.DeviceID,
		strconv.Itoa(r.ADC),
		strconv.FormatFloat(r.Gas, 'f', -1, 64),
		string(r.Level),
	})
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to write reading to %s", l.path)
	}
	w.Flush()

	return pkgerrors.Wrapf(w.Error(), "failed to flush reading log %s", l.path)
}

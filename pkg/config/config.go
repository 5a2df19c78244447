package config

import (
	"github.com/sirupsen/logrus"

	"github.com/envmon/mq7/pkg/mq7"
)

type Config interface {
	Calibration() mq7.Calibration
	GasThreshold() float64
	BufferSize() int
	SummarySchedule() string
	ReadingLog() string
	AllowNonRootAccess() bool

	SetCalibration(mq7.Calibration) error
	SetGasThreshold(float64)
	SetSummarySchedule(string) error
	SetReadingLog(string)
	SetAllowNonRootAccess(bool)

	LogrusFields() logrus.Fields

	// Load reads the configuration from the source.
	Load() error
	// Save saves the configuration to the source.
	Save() error
}

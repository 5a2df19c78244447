package config

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/envmon/mq7/pkg/mq7"
	"github.com/envmon/mq7/pkg/readings"
	"github.com/envmon/mq7/pkg/utils/ptr"
)

var (
	defaultFileConfig = &RawFileConfig{
		ADCMin:          ptr.To(mq7.ADCMin),
		ADCMax:          ptr.To(mq7.ADCMax),
		UnitMin:         ptr.To(mq7.UnitMin),
		UnitMax:         ptr.To(mq7.UnitMax),
		GasThreshold:    ptr.To(mq7.DefaultGasThreshold),
		BufferSize:      ptr.To(readings.DefaultBufferSize),
		SummarySchedule: ptr.To("@every 1m"),
		// Readings are only kept in memory unless a log path is set.
		ReadingLog: ptr.To(""),
		// The daemon socket is root-only unless explicitly allowed.
		AllowNonRootAccess: ptr.To(false),
	}
)

// ScheduleParser parses summary schedules: standard cron with optional
// seconds and descriptors such as "@every 1m".
var ScheduleParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

var _ Config = &File{}

type File struct {
	c        *RawFileConfig
	mu       *sync.RWMutex
	filepath string
}

func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
	}
	err := f.Load()
	if err != nil {
		return nil, err
	}

	return f, nil
}

func NewFileFromConfig(c *RawFileConfig, configPath string) *File {
	if c == nil {
		c = &RawFileConfig{}
	}

	f := &File{
		c:        c,
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}

	return f
}

type RawFileConfig struct {
	ADCMin             *float64 `json:"adcMin,omitempty"`
	ADCMax             *float64 `json:"adcMax,omitempty"`
	UnitMin            *float64 `json:"unitMin,omitempty"`
	UnitMax            *float64 `json:"unitMax,omitempty"`
	GasThreshold       *float64 `json:"gasThreshold,omitempty"`
	BufferSize         *int     `json:"bufferSize,omitempty"`
	SummarySchedule    *string  `json:"summarySchedule,omitempty"`
	ReadingLog         *string  `json:"readingLog,omitempty"`
	AllowNonRootAccess *bool    `json:"allowNonRootAccess,omitempty"`
}

func NewRawFileConfigFromConfig(c Config) (*RawFileConfig, error) {
	if c == nil {
		return nil, pkgerrors.New("config is nil")
	}

	cal := c.Calibration()
	rawConfig := &RawFileConfig{
		ADCMin:             ptr.To(cal.ADCMin),
		ADCMax:             ptr.To(cal.ADCMax),
		UnitMin:            ptr.To(cal.UnitMin),
		UnitMax:            ptr.To(cal.UnitMax),
		GasThreshold:       ptr.To(c.GasThreshold()),
		BufferSize:         ptr.To(c.BufferSize()),
		SummarySchedule:    ptr.To(c.SummarySchedule()),
		ReadingLog:         ptr.To(c.ReadingLog()),
		AllowNonRootAccess: ptr.To(c.AllowNonRootAccess()),
	}

	return rawConfig, nil
}

func valueOr[T any](v, def *T) T {
	if v != nil {
		return *v
	}
	return *def
}

// calibration must be called with f.mu held.
func (c *RawFileConfig) calibration() mq7.Calibration {
	return mq7.Calibration{
		ADCMin:  valueOr(c.ADCMin, defaultFileConfig.ADCMin),
		ADCMax:  valueOr(c.ADCMax, defaultFileConfig.ADCMax),
		UnitMin: valueOr(c.UnitMin, defaultFileConfig.UnitMin),
		UnitMax: valueOr(c.UnitMax, defaultFileConfig.UnitMax),
	}
}

func (f *File) Calibration() mq7.Calibration {
	f.mu.RLock()
	defer f.mu.RUnlock()
	f.mustHaveConfig()

	return f.c.calibration()
}

func (f *File) GasThreshold() float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	f.mustHaveConfig()

	return valueOr(f.c.GasThreshold, defaultFileConfig.GasThreshold)
}

// bufferSize must be called with f.mu held.
func (c *RawFileConfig) bufferSize() int {
	size := valueOr(c.BufferSize, defaultFileConfig.BufferSize)
	if size <= 0 {
		size = *defaultFileConfig.BufferSize
	}
	return size
}

func (f *File) BufferSize() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	f.mustHaveConfig()

	return f.c.bufferSize()
}

func (f *File) SummarySchedule() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	f.mustHaveConfig()

	return valueOr(f.c.SummarySchedule, defaultFileConfig.SummarySchedule)
}

func (f *File) ReadingLog() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	f.mustHaveConfig()

	return valueOr(f.c.ReadingLog, defaultFileConfig.ReadingLog)
}

func (f *File) AllowNonRootAccess() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	f.mustHaveConfig()

	return valueOr(f.c.AllowNonRootAccess, defaultFileConfig.AllowNonRootAccess)
}

// SetCalibration replaces all four bounds. Calibrations that cannot produce a
// monotonic mapping are rejected and leave the config untouched.
func (f *File) SetCalibration(cal mq7.Calibration) error {
	if err := cal.Validate(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.mustHaveConfig()

	f.c.ADCMin = &cal.ADCMin
	f.c.ADCMax = &cal.ADCMax
	f.c.UnitMin = &cal.UnitMin
	f.c.UnitMax = &cal.UnitMax

	return nil
}

func (f *File) SetGasThreshold(v float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mustHaveConfig()

	f.c.GasThreshold = &v
}

// SetSummarySchedule rejects expressions the summary scheduler cannot parse.
func (f *File) SetSummarySchedule(s string) error {
	if _, err := ScheduleParser.Parse(s); err != nil {
		return pkgerrors.Wrapf(err, "invalid summary schedule %q", s)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.mustHaveConfig()

	f.c.SummarySchedule = &s
	return nil
}

func (f *File) SetReadingLog(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mustHaveConfig()

	f.c.ReadingLog = &path
}

func (f *File) SetAllowNonRootAccess(b bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mustHaveConfig()

	f.c.AllowNonRootAccess = &b
}

// mustHaveConfig must be called with f.mu held.
func (f *File) mustHaveConfig() {
	if f.c == nil {
		panic("config is nil")
	}
}

// validate checks the fields the daemon cannot run with.
func (c *RawFileConfig) validate() error {
	if err := c.calibration().Validate(); err != nil {
		return pkgerrors.Wrap(err, "bad calibration")
	}
	schedule := valueOr(c.SummarySchedule, defaultFileConfig.SummarySchedule)
	if _, err := ScheduleParser.Parse(schedule); err != nil {
		return pkgerrors.Wrapf(err, "bad summary schedule %q", schedule)
	}
	return nil
}

func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fp, err := os.Open(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			// If the file does not exist, return the empty config.
			// Do not make f.c a nil.
			f.c = &RawFileConfig{}
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	// Since we want to tell if the file is empty, using json.Decoder will
	// not work.
	b, err := io.ReadAll(fp)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}
	configString := string(b)

	if strings.TrimSpace(configString) == "" {
		// If the file is empty, return the empty config.
		// Do not make f.c a nil.
		f.c = &RawFileConfig{}
		return nil
	}

	conf := RawFileConfig{}
	err = json.Unmarshal(b, &conf)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}

	// Keep the previous config if the new one is unusable.
	if err := conf.validate(); err != nil {
		return pkgerrors.Wrapf(err, "invalid config in file %s", f.filepath)
	}
	f.c = &conf

	return nil
}

func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return pkgerrors.New("config is nil")
	}

	fp, err := os.OpenFile(f.filepath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	enc := json.NewEncoder(fp)
	enc.SetIndent("", "  ")
	err = enc.Encode(f.c)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config to file %s", f.filepath)
	}

	return nil
}

func (f *File) LogrusFields() logrus.Fields {
	f.mu.RLock()
	defer f.mu.RUnlock()
	f.mustHaveConfig()

	cal := f.c.calibration()
	return logrus.Fields{
		"adcMin":             cal.ADCMin,
		"adcMax":             cal.ADCMax,
		"unitMin":            cal.UnitMin,
		"unitMax":            cal.UnitMax,
		"gasThreshold":       valueOr(f.c.GasThreshold, defaultFileConfig.GasThreshold),
		"bufferSize":         f.c.bufferSize(),
		"summarySchedule":    valueOr(f.c.SummarySchedule, defaultFileConfig.SummarySchedule),
		"readingLog":         valueOr(f.c.ReadingLog, defaultFileConfig.ReadingLog),
		"allowNonRootAccess": valueOr(f.c.AllowNonRootAccess, defaultFileConfig.AllowNonRootAccess),
	}
}

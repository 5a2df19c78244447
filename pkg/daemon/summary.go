package daemon

import (
	"github.com/sirupsen/logrus"

	"github.com/envmon/mq7/pkg/events"
)

// reportSummary logs the buffered readings summary and publishes it to
// subscribers. It is run by the summary scheduler.
func reportSummary() error {
	s := buffer.Summary()
	if s.Count == 0 {
		logrus.Debug("no readings to summarize")
		return nil
	}

	logrus.WithFields(logrus.Fields{
		"count":    s.Count,
		"min":      s.Min,
		"max":      s.Max,
		"mean":     s.Mean,
		"elevated": s.Elevated,
		"gasRate5": buffer.GasRate(gasRateWindow),
	}).Info("readings summary")

	sseHub.Publish(events.ReadingsSummary, s)
	return nil
}

func startSummaryScheduler(cronExpr string) (*Scheduler, error) {
	s := NewScheduler(reportSummary, func(data any) {
		logrus.Errorf("summary report failed: %v", data)
	})
	if err := s.Schedule(cronExpr); err != nil {
		return nil, err
	}
	s.Start()

	next, _ := s.Status()
	logrus.WithField("nextRun", next).Debug("summary scheduler started")

	return s, nil
}

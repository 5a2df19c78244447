package daemon

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/envmon/mq7/pkg/config"
	"github.com/envmon/mq7/pkg/events"
	"github.com/envmon/mq7/pkg/mq7"
	"github.com/envmon/mq7/pkg/readings"
	"github.com/envmon/mq7/pkg/types"
	"github.com/envmon/mq7/pkg/version"
)

const gasRateWindow = 5

func getConfig(c *gin.Context) {
	fc, err := config.NewRawFileConfigFromConfig(conf)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.IndentedJSON(http.StatusOK, fc)
}

func getCalibration(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, conf.Calibration())
}

func setCalibration(c *gin.Context) {
	var cal mq7.Calibration
	if err := c.BindJSON(&cal); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	prev := conf.Calibration()
	if err := conf.SetCalibration(cal); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	if err := conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		// The previous calibration was valid when it was applied.
		_ = conf.SetCalibration(prev)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"adcMin":  cal.ADCMin,
		"adcMax":  cal.ADCMax,
		"unitMin": cal.UnitMin,
		"unitMax": cal.UnitMax,
	}).Info("calibration updated")

	sseHub.Publish(events.CalibrationChanged, events.CalibrationChangedEvent{
		ADCMin:  cal.ADCMin,
		ADCMax:  cal.ADCMax,
		UnitMin: cal.UnitMin,
		UnitMax: cal.UnitMax,
		Ts:      time.Now().Unix(),
	})

	c.IndentedJSON(http.StatusCreated, fmt.Sprintf("set calibration to ADC [%g, %g] -> gas [%g, %g]",
		cal.ADCMin, cal.ADCMax, cal.UnitMin, cal.UnitMax))
}

func mapSample(adc int) types.MapResult {
	threshold := conf.GasThreshold()
	gas := conf.Calibration().Map(adc)
	return types.MapResult{
		ADC:       adc,
		Gas:       gas,
		Level:     mq7.Classify(gas, threshold),
		Threshold: threshold,
	}
}

func getMap(c *gin.Context) {
	adc, err := strconv.Atoi(c.Query("adc"))
	if err != nil {
		err = fmt.Errorf("invalid adc %q: %w", c.Query("adc"), err)
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	c.IndentedJSON(http.StatusOK, mapSample(adc))
}

func postReading(c *gin.Context) {
	var req types.ReadingRequest
	if err := c.BindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	if req.ADC == nil {
		err := errors.New("missing adc")
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	if req.DeviceID == "" {
		req.DeviceID = "unknown"
	}

	res := mapSample(*req.ADC)
	r := readings.Reading{
		DeviceID: req.DeviceID,
		ADC:      res.ADC,
		Gas:      res.Gas,
		Level:    res.Level,
		Time:     time.Now(),
	}
	buffer.Add(r)
	if l := readingLog.Load(); l != nil {
		if err := l.Append(r); err != nil {
			logrus.Errorf("failed to log reading: %v", err)
		}
	}

	sseHub.Publish(events.ReadingMapped, r)
	if r.Level == mq7.LevelElevated {
		logrus.WithFields(logrus.Fields{
			"deviceId":  r.DeviceID,
			"adc":       r.ADC,
			"gas":       r.Gas,
			"threshold": res.Threshold,
		}).Warn("gas level above threshold")
		sseHub.Publish(events.ReadingElevated, r)
	}

	c.IndentedJSON(http.StatusCreated, types.ReadingResponse{
		Reading:  r,
		GasRate5: buffer.GasRate(gasRateWindow),
	})
}

func getReadings(c *gin.Context) {
	last := 0
	if s := c.Query("last"); s != "" {
		var err error
		last, err = strconv.Atoi(s)
		if err != nil {
			err = fmt.Errorf("invalid last %q: %w", s, err)
			c.IndentedJSON(http.StatusBadRequest, err.Error())
			_ = c.AbortWithError(http.StatusBadRequest, err)
			return
		}
	}

	c.IndentedJSON(http.StatusOK, buffer.Last(last))
}

func getSummary(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, buffer.Summary())
}

func skipSummary(c *gin.Context) {
	if summaryScheduler == nil {
		err := errors.New("summary scheduler is not running")
		c.IndentedJSON(http.StatusServiceUnavailable, err.Error())
		_ = c.AbortWithError(http.StatusServiceUnavailable, err)
		return
	}

	if err := summaryScheduler.Skip(); err != nil {
		c.IndentedJSON(http.StatusConflict, err.Error())
		_ = c.AbortWithError(http.StatusConflict, err)
		return
	}

	next, _ := summaryScheduler.Status()
	logrus.WithField("nextRun", next).Info("next summary report skipped")
	c.IndentedJSON(http.StatusCreated, types.ScheduleStatus{NextRun: next})
}

func getEvents(c *gin.Context) {
	ch := sseHub.Subscribe()
	defer sseHub.Unsubscribe(ch)
	logrus.WithField("subscribers", sseHub.Subscribers()).Debug("event stream opened")

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(_ io.Writer) bool {
		select {
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, string(ev.Data))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, version.Version)
}

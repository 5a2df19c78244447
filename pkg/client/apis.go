package client

import (
	"encoding/json"
	"net/url"
	"strconv"

	pkgerrors "github.com/pkg/errors"

	"github.com/envmon/mq7/pkg/config"
	"github.com/envmon/mq7/pkg/mq7"
	"github.com/envmon/mq7/pkg/readings"
	"github.com/envmon/mq7/pkg/types"
)

func (c *Client) GetConfig() (*config.RawFileConfig, error) {
	ret, err := c.Get("/config")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get config")
	}

	var conf config.RawFileConfig
	if err := json.Unmarshal([]byte(ret), &conf); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal config")
	}

	return &conf, nil
}

func (c *Client) GetCalibration() (mq7.Calibration, error) {
	ret, err := c.Get("/calibration")
	if err != nil {
		return mq7.Calibration{}, pkgerrors.Wrapf(err, "failed to get calibration")
	}

	var cal mq7.Calibration
	if err := json.Unmarshal([]byte(ret), &cal); err != nil {
		return mq7.Calibration{}, pkgerrors.Wrapf(err, "failed to unmarshal calibration")
	}

	return cal, nil
}

// SetCalibration asks the daemon to replace its calibration and returns the
// daemon's message.
func (c *Client) SetCalibration(cal mq7.Calibration) (string, error) {
	payload, err := json.Marshal(cal)
	if err != nil {
		return "", err
	}
	ret, err := c.Put("/calibration", string(payload))
	if err != nil {
		return "", err
	}
	return parseStringResponse(ret)
}

// Map maps a single sample with the daemon's calibration without recording it.
func (c *Client) Map(adc int) (*types.MapResult, error) {
	ret, err := c.Get("/map?adc=" + url.QueryEscape(strconv.Itoa(adc)))
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to map adc %d", adc)
	}

	var res types.MapResult
	if err := json.Unmarshal([]byte(ret), &res); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal map result")
	}

	return &res, nil
}

func (c *Client) PostReading(deviceID string, adc int) (*types.ReadingResponse, error) {
	payload, err := json.Marshal(types.ReadingRequest{DeviceID: deviceID, ADC: &adc})
	if err != nil {
		return nil, err
	}

	ret, err := c.Post("/readings", string(payload))
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to post reading")
	}

	var res types.ReadingResponse
	if err := json.Unmarshal([]byte(ret), &res); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal reading")
	}

	return &res, nil
}

// GetReadings returns the newest n readings. A non-positive n returns all.
func (c *Client) GetReadings(n int) ([]readings.Reading, error) {
	ret, err := c.Get("/readings?last=" + strconv.Itoa(n))
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get readings")
	}

	var rs []readings.Reading
	if err := json.Unmarshal([]byte(ret), &rs); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal readings")
	}

	return rs, nil
}

func (c *Client) GetSummary() (*readings.Summary, error) {
	ret, err := c.Get("/summary")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get summary")
	}

	var s readings.Summary
	if err := json.Unmarshal([]byte(ret), &s); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal summary")
	}

	return &s, nil
}

// SkipSummary skips the daemon's next scheduled summary report.
func (c *Client) SkipSummary() (*types.ScheduleStatus, error) {
	ret, err := c.Post("/summary/skip", "")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to skip summary")
	}

	var st types.ScheduleStatus
	if err := json.Unmarshal([]byte(ret), &st); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal schedule status")
	}

	return &st, nil
}

func (c *Client) GetVersion() (string, error) {
	ret, err := c.Get("/version")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to get version")
	}
	return parseStringResponse(ret)
}

func parseStringResponse(ret string) (string, error) {
	var s string
	if err := json.Unmarshal([]byte(ret), &s); err != nil {
		return "", pkgerrors.Wrapf(err, "failed to unmarshal response %q", ret)
	}
	return s, nil
}

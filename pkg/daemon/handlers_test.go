package daemon

import (
	"bufio"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
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

func setupTestDaemon(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	logrus.SetOutput(io.Discard)

	configPath := filepath.Join(t.TempDir(), "mq7.json")
	conf = config.NewFileFromConfig(nil, configPath)
	buffer = readings.NewBuffer(10)
	sseHub = events.NewEventHub()
	summaryScheduler = nil
	readingLog.Store(nil)

	return setupRoutes(), configPath
}

func do(t *testing.T, router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode %q: %v", w.Body.String(), err)
	}
	return v
}

func TestGetMap(t *testing.T) {
	router, _ := setupTestDaemon(t)

	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantGas   float64
		wantLevel mq7.Level
	}{
		{name: "lower bound", query: "adc=0", wantCode: http.StatusOK, wantGas: 150, wantLevel: mq7.LevelNormal},
		{name: "upper bound", query: "adc=4095", wantCode: http.StatusOK, wantGas: 700, wantLevel: mq7.LevelElevated},
		{name: "negative clamps", query: "adc=-100", wantCode: http.StatusOK, wantGas: 150, wantLevel: mq7.LevelNormal},
		{name: "above range clamps", query: "adc=10000", wantCode: http.StatusOK, wantGas: 700, wantLevel: mq7.LevelElevated},
		{name: "not a number", query: "adc=abc", wantCode: http.StatusBadRequest},
		{name: "missing", query: "", wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, http.MethodGet, "/map?"+tt.query, "")
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			res := decode[types.MapResult](t, w)
			if math.Abs(res.Gas-tt.wantGas) > 1e-9 {
				t.Errorf("gas = %v, want %v", res.Gas, tt.wantGas)
			}
			if res.Level != tt.wantLevel {
				t.Errorf("level = %v, want %v", res.Level, tt.wantLevel)
			}
			if res.Threshold != mq7.DefaultGasThreshold {
				t.Errorf("threshold = %v, want %v", res.Threshold, mq7.DefaultGasThreshold)
			}
		})
	}

	if buffer.Len() != 0 {
		t.Errorf("GET /map must not record readings, buffer has %d", buffer.Len())
	}
}

func TestSetCalibration(t *testing.T) {
	router, configPath := setupTestDaemon(t)
	ch := sseHub.Subscribe()
	defer sseHub.Unsubscribe(ch)

	w := do(t, router, http.MethodPut, "/calibration", `{"adcMin": 100, "adcMax": 100, "unitMin": 150, "unitMax": 700}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid calibration status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	w = do(t, router, http.MethodPut, "/calibration", `not json`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("malformed body status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	want := mq7.Calibration{ADCMin: 0, ADCMax: 1000, UnitMin: 0, UnitMax: 100}
	w = do(t, router, http.MethodPut, "/calibration", `{"adcMin": 0, "adcMax": 1000, "unitMin": 0, "unitMax": 100}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (%s)", w.Code, http.StatusCreated, w.Body.String())
	}

	w = do(t, router, http.MethodGet, "/calibration", "")
	if got := decode[mq7.Calibration](t, w); got != want {
		t.Errorf("GET /calibration = %+v, want %+v", got, want)
	}

	w = do(t, router, http.MethodGet, "/map?adc=500", "")
	if got := decode[types.MapResult](t, w); math.Abs(got.Gas-50) > 1e-9 {
		t.Errorf("gas after recalibration = %v, want 50", got.Gas)
	}

	saved, err := config.NewFile(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if got := saved.Calibration(); got != want {
		t.Errorf("saved calibration = %+v, want %+v", got, want)
	}

	select {
	case ev := <-ch:
		if ev.Name != events.CalibrationChanged {
			t.Errorf("event = %q, want %q", ev.Name, events.CalibrationChanged)
		}
	case <-time.After(time.Second):
		t.Fatalf("no calibration event published")
	}
}

func TestPostReading(t *testing.T) {
	router, _ := setupTestDaemon(t)
	ch := sseHub.Subscribe()
	defer sseHub.Unsubscribe(ch)

	w := do(t, router, http.MethodPost, "/readings", `{"deviceId": "esp32"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing adc status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	var last types.ReadingResponse
	for _, adc := range []int{0, 0, 0, 0, 0, 4095} {
		w = do(t, router, http.MethodPost, "/readings", `{"deviceId": "esp32", "adc": `+strconv.Itoa(adc)+`}`)
		if w.Code != http.StatusCreated {
			t.Fatalf("status = %d, want %d (%s)", w.Code, http.StatusCreated, w.Body.String())
		}
		last = decode[types.ReadingResponse](t, w)
	}

	if last.Reading.Gas != 700 || last.Reading.Level != mq7.LevelElevated {
		t.Errorf("last reading = %+v", last.Reading)
	}
	if math.Abs(last.GasRate5-110) > 1e-9 {
		t.Errorf("gasRate5 = %v, want 110", last.GasRate5)
	}

	w = do(t, router, http.MethodGet, "/readings?last=2", "")
	got := decode[[]readings.Reading](t, w)
	if len(got) != 2 || got[0].ADC != 0 || got[1].ADC != 4095 {
		t.Errorf("GET /readings?last=2 = %+v", got)
	}

	w = do(t, router, http.MethodGet, "/readings?last=x", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid last status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	w = do(t, router, http.MethodGet, "/summary", "")
	s := decode[readings.Summary](t, w)
	if s.Count != 6 || s.Elevated != 1 || s.Min != 150 || s.Max != 700 {
		t.Errorf("GET /summary = %+v", s)
	}

	var mapped, elevated int
	for len(ch) > 0 {
		switch ev := <-ch; ev.Name {
		case events.ReadingMapped:
			mapped++
		case events.ReadingElevated:
			elevated++
		}
	}
	if mapped != 6 || elevated != 1 {
		t.Errorf("events mapped/elevated = %d/%d, want 6/1", mapped, elevated)
	}
}

func TestReportSummary(t *testing.T) {
	setupTestDaemon(t)
	ch := sseHub.Subscribe()
	defer sseHub.Unsubscribe(ch)

	if err := reportSummary(); err != nil {
		t.Fatalf("reportSummary() error = %v", err)
	}
	if len(ch) != 0 {
		t.Fatalf("empty buffer must not publish a summary")
	}

	buffer.Add(readings.Reading{ADC: 0, Gas: 150, Level: mq7.LevelNormal})
	if err := reportSummary(); err != nil {
		t.Fatalf("reportSummary() error = %v", err)
	}

	ev := <-ch
	s, err := events.DecodeAs[readings.Summary](ev)
	if err != nil {
		t.Fatalf("DecodeAs() error = %v", err)
	}
	if ev.Name != events.ReadingsSummary || s.Count != 1 {
		t.Errorf("summary event = %s %+v", ev.Name, s)
	}
}

func TestGetConfigAndVersion(t *testing.T) {
	router, _ := setupTestDaemon(t)

	w := do(t, router, http.MethodGet, "/config", "")
	raw := decode[config.RawFileConfig](t, w)
	if raw.UnitMax == nil || *raw.UnitMax != mq7.UnitMax {
		t.Errorf("GET /config unitMax = %v, want %v", raw.UnitMax, mq7.UnitMax)
	}

	w = do(t, router, http.MethodGet, "/version", "")
	if got := decode[string](t, w); got != version.Version {
		t.Errorf("GET /version = %q, want %q", got, version.Version)
	}
}

func TestSetCalibrationRollsBackOnSaveFailure(t *testing.T) {
	router, _ := setupTestDaemon(t)
	conf = config.NewFileFromConfig(nil, filepath.Join(t.TempDir(), "missing", "mq7.json"))

	w := do(t, router, http.MethodPut, "/calibration", `{"adcMin": 0, "adcMax": 1000, "unitMin": 0, "unitMax": 100}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d (%s)", w.Code, http.StatusInternalServerError, w.Body.String())
	}

	w = do(t, router, http.MethodGet, "/calibration", "")
	if got := decode[mq7.Calibration](t, w); got != mq7.DefaultCalibration {
		t.Errorf("calibration after failed save = %+v, want %+v", got, mq7.DefaultCalibration)
	}
}

func TestSkipSummary(t *testing.T) {
	router, _ := setupTestDaemon(t)

	w := do(t, router, http.MethodPost, "/summary/skip", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("skip without scheduler status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}

	summaryScheduler = NewScheduler(reportSummary, nil)
	w = do(t, router, http.MethodPost, "/summary/skip", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("skip without schedule status = %d, want %d", w.Code, http.StatusConflict)
	}

	if err := summaryScheduler.Schedule("@every 1h"); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	before, _ := summaryScheduler.Status()

	w = do(t, router, http.MethodPost, "/summary/skip", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (%s)", w.Code, http.StatusCreated, w.Body.String())
	}
	got := decode[types.ScheduleStatus](t, w)
	if want := before.Add(time.Hour); !got.NextRun.Equal(want) {
		t.Errorf("nextRun = %v, want %v", got.NextRun, want)
	}
	if next, _ := summaryScheduler.Status(); !next.Equal(got.NextRun) {
		t.Errorf("scheduler nextRun = %v, response says %v", next, got.NextRun)
	}
}

func TestPostReadingWritesLog(t *testing.T) {
	router, _ := setupTestDaemon(t)
	logPath := filepath.Join(t.TempDir(), "readings.csv")
	setReadingLog(logPath)

	w := do(t, router, http.MethodPost, "/readings", `{"deviceId": "esp32", "adc": 4095}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (%s)", w.Code, http.StatusCreated, w.Body.String())
	}

	b, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read reading log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 2 || !strings.HasSuffix(lines[1], ",esp32,4095,700,Elevated") {
		t.Errorf("reading log = %q", string(b))
	}

	setReadingLog("")
	do(t, router, http.MethodPost, "/readings", `{"deviceId": "esp32", "adc": 0}`)
	if b2, _ := os.ReadFile(logPath); len(b2) != len(b) {
		t.Errorf("reading logged after the log was disabled")
	}
}

func TestGetEvents(t *testing.T) {
	router, _ := setupTestDaemon(t)
	srv := httptest.NewServer(router)
	defer srv.Close()

	want := readings.Reading{DeviceID: "esp32", ADC: 4095, Gas: 700, Level: mq7.LevelElevated}
	go func() {
		deadline := time.Now().Add(5 * time.Second)
		for sseHub.Subscribers() == 0 && time.Now().Before(deadline) {
			time.Sleep(10 * time.Millisecond)
		}
		sseHub.Publish(events.ReadingElevated, want)
	}()

	c := &http.Client{Timeout: 5 * time.Second}
	resp, err := c.Get(srv.URL + "/events")
	if err != nil {
		t.Fatalf("GET /events error = %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}

	var name, data string
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line := sc.Text()
		if v, ok := strings.CutPrefix(line, "event:"); ok {
			name = v
		}
		if v, ok := strings.CutPrefix(line, "data:"); ok {
			data = v
			break
		}
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("failed to read event stream: %v", err)
	}

	if name != events.ReadingElevated {
		t.Errorf("event = %q, want %q", name, events.ReadingElevated)
	}
	var got readings.Reading
	if err := json.Unmarshal([]byte(data), &got); err != nil {
		t.Fatalf("failed to decode event data %q: %v", data, err)
	}
	if got.DeviceID != want.DeviceID || got.Gas != want.Gas || got.Level != want.Level {
		t.Errorf("event data = %+v, want %+v", got, want)
	}
}

package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/envmon/mq7/pkg/config"
	"github.com/envmon/mq7/pkg/events"
	"github.com/envmon/mq7/pkg/readings"
)

var (
	conf             config.Config
	buffer           = readings.NewBuffer(readings.DefaultBufferSize)
	sseHub           = events.NewEventHub()
	summaryScheduler *Scheduler
	readingLog       atomic.Pointer[readings.Log] // nil when no log path is configured
)

func setupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.StandardLogger()))
	router.GET("/config", getConfig)
	router.GET("/calibration", getCalibration)
	router.PUT("/calibration", setCalibration)
	router.GET("/map", getMap)
	router.POST("/readings", postReading)
	router.GET("/readings", getReadings)
	router.GET("/summary", getSummary)
	router.POST("/summary/skip", skipSummary)
	router.GET("/events", getEvents)
	router.GET("/version", getVersion)

	return router
}

func setReadingLog(path string) {
	if path == "" {
		readingLog.Store(nil)
		return
	}
	logrus.WithField("path", path).Info("logging readings")
	readingLog.Store(readings.NewLog(path))
}

func Run(configPath string, unixSocketPath string, allowNonRoot bool) error {
	router := setupRoutes()

	var err error
	conf, err = config.NewFile(configPath)
	if err != nil {
		logrus.Fatalf("failed to parse config during startup: %v", err)
	}
	logrus.WithFields(conf.LogrusFields()).Infof("config loaded")

	buffer = readings.NewBuffer(conf.BufferSize())

	setReadingLog(conf.ReadingLog())

	summaryScheduler, err = startSummaryScheduler(conf.SummarySchedule())
	if err != nil {
		logrus.Fatalf("invalid summary schedule %q: %v", conf.SummarySchedule(), err)
	}

	// Receive SIGHUP to reload config
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGHUP)
		for range sigc {
			err := conf.Load()
			if err != nil {
				logrus.Errorf("failed to reload config: %v", err)
				continue
			}
			if err := summaryScheduler.Schedule(conf.SummarySchedule()); err != nil {
				logrus.Errorf("failed to reschedule summary report: %v", err)
			}
			setReadingLog(conf.ReadingLog())
			logrus.WithFields(conf.LogrusFields()).Infof("config reloaded")
		}
	}()

	srv := &http.Server{
		Handler: router,
	}

	// Remove a stale socket left by an unclean shutdown.
	if err := os.Remove(unixSocketPath); err != nil && !os.IsNotExist(err) {
		logrus.Fatal(err)
	}

	// Create the socket to listen on:
	l, err := net.Listen("unix", unixSocketPath)
	if err != nil {
		logrus.Fatal(err)
	}

	if conf.AllowNonRootAccess() || allowNonRoot {
		logrus.Infof("non-root access is allowed, changing permissions of %s to 0777", unixSocketPath)
		err = os.Chmod(unixSocketPath, 0777)
		if err != nil {
			logrus.Fatal(err)
		}
	}

	// Serve HTTP on unix socket
	go func() {
		logrus.Infof("http server listening on %s", l.Addr().String())
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatal(err)
		}
	}()

	// Handle common process-killing signals, so we can gracefully shut down:
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	// Wait for a SIGINT or SIGTERM:
	sig := <-sigc
	logrus.Infof("caught signal \"%s\": shutting down.", sig)

	logrus.Info("stopping summary scheduler")
	summaryScheduler.Stop()

	logrus.Info("shutting down http server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = srv.Shutdown(ctx)
	if err != nil {
		logrus.Errorf("failed to shutdown http server: %v", err)
	}
	cancel()

	logrus.Info("exiting")
	return nil
}

package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/envmon/mq7/pkg/client"
)

var (
	logLevel       = "info"
	unixSocketPath = "/var/run/mq7.sock"
	configPath     = "/etc/mq7.json"
)

var (
	gBasic        = "Basic:"
	gDaemon       = "Daemon:"
	commandGroups = []string{
		gBasic,
		gDaemon,
	}
)

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.Kitchen,
		})
	}

	return nil
}

func handleCmdError(err error) {
	switch {
	case errors.Is(err, client.ErrDaemonNotRunning):
		fmt.Fprintln(os.Stderr, "\nError: mq7 daemon is not running")
		fmt.Fprintf(os.Stderr, "Start it with 'mq7 daemon' or check --daemon-socket (currently %s)\n", unixSocketPath)
	case errors.Is(err, client.ErrPermissionDenied):
		fmt.Fprintln(os.Stderr, "\nError: Permission Denied")
		fmt.Fprintln(os.Stderr, "  - Try running the command again with 'sudo'")
		fmt.Fprintln(os.Stderr, "  - Or set \"allowNonRootAccess\": true in the daemon config")
	case errors.Is(err, client.ErrBadRequest):
		fmt.Fprintln(os.Stderr, "\nError: the daemon rejected the request, check the values you passed")
	}
}

func main() {
	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		handleCmdError(err)
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mq7",
		Short: "mq7 maps MQ7 gas sensor ADC readings to calibrated gas units",
		Long: `mq7 maps 12-bit ADC readings of an MQ7 gas sensor to calibrated gas units.

Readings outside the ADC range are clamped to the bounds of the gas unit range.
The mapping can run locally or through the mq7 daemon, which also records
readings posted by sensors and flags readings above the gas threshold.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return setupLogger()
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.StringVar(&configPath, "config", configPath, "config file path")
	globalFlags.StringVar(&unixSocketPath, "daemon-socket", unixSocketPath, "mq7 daemon unix socket path")

	for _, i := range commandGroups {
		cmd.AddGroup(&cobra.Group{
			ID:    i,
			Title: i,
		})
	}

	cmd.AddCommand(
		NewDaemonCommand(),
		NewVersionCommand(),
		NewMapCommand(),
		NewTableCommand(),
		NewCalibrationCommand(),
		NewPostCommand(),
		NewSummaryCommand(),
		NewInstallCommand(),
		NewUninstallCommand(),
	)

	return cmd
}

func newAPIClient() *client.Client {
	return client.NewClient(unixSocketPath)
}

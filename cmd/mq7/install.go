package main

import (
	"fmt"
	"os"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/envmon/mq7/pkg/config"
	daemonutils "github.com/envmon/mq7/pkg/utils/daemon"
)

var gInstallation = "Installation:"

func init() {
	commandGroups = append(commandGroups, gInstallation)
}

// NewInstallCommand .
func NewInstallCommand() *cobra.Command {
	allowNonRootAccess := false
	readingLogPath := ""

	cmd := &cobra.Command{
		Use:     "install",
		Short:   "Install mq7 daemon (system-wide)",
		GroupID: gInstallation,
		Long: `Install mq7 daemon as a systemd service.

This makes the daemon run in the background and automatically start on boot. You must run this command as root.

By default, only root user is allowed to access the mq7 daemon. Use --allow-non-root-access to let other users post readings and change the calibration without sudo.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := config.NewFile(configPath)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("reading-log") {
				conf.SetReadingLog(readingLogPath)
			}

			conf.SetAllowNonRootAccess(allowNonRootAccess)
			if allowNonRootAccess {
				logrus.Info("non-root users are allowed to access the mq7 daemon.")
			} else {
				logrus.Info("only root user is allowed to access the mq7 daemon.")
			}

			err = conf.Save()
			if err != nil {
				return pkgerrors.Wrapf(err, "failed to save config")
			}

			err = daemonutils.Install(configPath, unixSocketPath)
			if err != nil {
				// check if current user is root
				if os.Geteuid() != 0 {
					logrus.Errorf("you must run this command as root")
				}
				return fmt.Errorf("failed to install daemon: %v. Are you root?", err)
			}

			logrus.Info("installation succeeded")
			return nil
		},
	}

	cmd.Flags().BoolVar(&allowNonRootAccess, "allow-non-root-access", false, "Allow non-root users to access the mq7 daemon.")
	cmd.Flags().StringVar(&readingLogPath, "reading-log", "", "Append every posted reading to this CSV file. An empty path disables the log.")

	return cmd
}

// NewUninstallCommand .
func NewUninstallCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "uninstall",
		Short:   "Uninstall mq7 daemon (system-wide)",
		GroupID: gInstallation,
		Long: `Uninstall mq7 daemon from systemd.

The config file is kept. You must run this command as root.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			err := daemonutils.Uninstall()
			if err != nil {
				return fmt.Errorf("failed to uninstall daemon: %v", err)
			}

			logrus.Info("mq7 daemon uninstalled")
			return nil
		},
	}
}

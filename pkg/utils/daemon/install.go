package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

const unitName = "mq7.service"

var (
	unitDir    = "/etc/systemd/system"
	systemctl  = "/bin/systemctl"
	runCommand = func(name string, args ...string) error {
		return exec.Command(name, args...).Run()
	}
)

const unitTemplate = `[Unit]
Description=mq7 gas sensor daemon
After=network.target

[Service]
Type=simple
ExecStart=/path/to/mq7 daemon --config {{config}} --daemon-socket {{socket}}
ExecReload=/bin/kill -HUP $MAINPID
Restart=on-failure

[Install]
WantedBy=multi-user.target
`

func unitPath() string {
	return filepath.Join(unitDir, unitName)
}

// RenderUnit returns the systemd unit that runs exePath as the mq7 daemon.
func RenderUnit(exePath, configPath, socketPath string) string {
	return strings.NewReplacer(
		"/path/to/mq7", exePath,
		"{{config}}", configPath,
		"{{socket}}", socketPath,
	).Replace(unitTemplate)
}

// Install writes the systemd unit for the current executable, then enables
// and starts it.
func Install(configPath, socketPath string) error {
	// Get the path to the current executable
	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get the path to the current executable: %w", err)
	}
	exePath, err = filepath.Abs(exePath)
	if err != nil {
		return fmt.Errorf("failed to get the absolute path to the current executable: %w", err)
	}

	err = os.Chmod(exePath, 0755)
	if err != nil {
		return fmt.Errorf("failed to chmod the current executable to 0755: %w", err)
	}

	logrus.Infof("current executable path: %s", exePath)

	logrus.Infof("writing systemd unit to %s", unitDir)

	// mkdir -p
	err = os.MkdirAll(unitDir, 0755)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", unitDir, err)
	}

	// warn if the file already exists
	_, err = os.Stat(unitPath())
	if err == nil {
		logrus.Warnf("%s already exists, overwriting", unitPath())
	}

	err = os.WriteFile(unitPath(), []byte(RenderUnit(exePath, configPath, socketPath)), 0644)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", unitPath(), err)
	}

	logrus.Infof("starting mq7")

	err = runCommand(systemctl, "daemon-reload")
	if err != nil {
		return fmt.Errorf("failed to reload systemd: %w", err)
	}

	err = runCommand(systemctl, "enable", "--now", unitName)
	if err != nil {
		return fmt.Errorf("failed to enable %s: %w", unitName, err)
	}

	return nil
}

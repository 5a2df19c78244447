package client

import "errors"

var (
	// ErrDaemonNotRunning is returned when the daemon socket does not exist or refuses connections
	ErrDaemonNotRunning = errors.New("daemon not running")

	// ErrPermissionDenied is returned when the user may not access the daemon socket
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned when 404 is returned from the daemon
	ErrNotFound = errors.New("404 not found")

	// ErrBadRequest is returned when the daemon rejects the request payload
	ErrBadRequest = errors.New("rejected by daemon")
)

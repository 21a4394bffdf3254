package capture

import "errors"

var (
	// ErrAlreadyRunning is returned when Start is called on a running scheduler.
	ErrAlreadyRunning = errors.New("scheduler is already running")

	// ErrNotRunning is returned when Stop is called on a stopped scheduler.
	ErrNotRunning = errors.New("scheduler is not running")

	// ErrClosed is returned by Start after Close, and delivered to the
	// failure callback of every request abandoned or submitted after Close.
	ErrClosed = errors.New("scheduler is closed")

	// ErrCaptureFailed marks a device-side capture failure.
	ErrCaptureFailed = errors.New("capture failed")

	// ErrNilPayload is delivered when an operation returns neither a payload nor an error.
	ErrNilPayload = errors.New("capture returned no payload")

	// ErrCapturePanic is delivered when an operation panics.
	ErrCapturePanic = errors.New("capture panicked")
)

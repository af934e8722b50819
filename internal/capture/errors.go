package capture

import (
	"errors"
	"fmt"
)

// ErrNoDevice is returned by Start when enumeration finds no video input
// device. No stream acquisition is attempted in that case.
var ErrNoDevice = errors.New("no camera found")

// Kind classifies a device-access failure for user-facing messaging.
type Kind int

const (
	KindOther Kind = iota
	KindPermission
	KindNotFound
	KindBusy
)

// DeviceError wraps an underlying device or decoder failure with its
// classified kind. All device errors are terminal for the session that
// raised them.
type DeviceError struct {
	Kind Kind
	Err  error
}

func (e *DeviceError) Error() string {
	switch e.Kind {
	case KindPermission:
		return fmt.Sprintf("camera permission denied: %v", e.Err)
	case KindNotFound:
		return fmt.Sprintf("camera not found: %v", e.Err)
	case KindBusy:
		return fmt.Sprintf("camera busy: %v", e.Err)
	default:
		return fmt.Sprintf("camera failure: %v", e.Err)
	}
}

func (e *DeviceError) Unwrap() error { return e.Err }

// UserMessage maps a session failure to the message shown to the operator.
func UserMessage(err error) string {
	if errors.Is(err, ErrNoDevice) {
		return "No camera found on this device"
	}
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		switch devErr.Kind {
		case KindPermission:
			return "Camera permission denied"
		case KindNotFound:
			return "No camera found"
		case KindBusy:
			return "Camera is already in use"
		}
	}
	return "Failed to access camera: " + err.Error()
}

// asDeviceError normalizes any failure into a DeviceError so callers see a
// uniform taxonomy. Already-classified errors pass through unchanged.
func asDeviceError(err error) error {
	if err == nil {
		return nil
	}
	var devErr *DeviceError
	if errors.As(err, &devErr) || errors.Is(err, ErrNoDevice) {
		return err
	}
	return &DeviceError{Kind: KindOther, Err: err}
}

//go:build !linux || !cgo

package v4l2

import (
	"context"
	"errors"
	"log/slog"

	"github.com/returnloop/kiosk/internal/capture"
)

// Enumerator is a stub on non-Linux platforms: enumeration finds nothing,
// so a capture session fails with the no-device message.
type Enumerator struct{}

var _ capture.Enumerator = (*Enumerator)(nil)

func NewEnumerator(*slog.Logger) *Enumerator { return &Enumerator{} }

func (*Enumerator) List(context.Context) ([]capture.DeviceInfo, error) {
	return nil, nil
}

func (*Enumerator) Open(context.Context, string, int) (capture.Stream, error) {
	return nil, &capture.DeviceError{
		Kind: capture.KindNotFound,
		Err:  errors.New("camera capture is only supported on linux"),
	}
}

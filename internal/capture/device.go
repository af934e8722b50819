package capture

import (
	"context"
	"errors"
	"image"
	"strings"
)

// DeviceInfo identifies one enumerated video input device.
type DeviceInfo struct {
	ID    string // platform identifier, e.g. /dev/video0
	Label string // human-readable device name
}

// Enumerator lists and opens video input devices. Implemented by the v4l2
// backend; faked in tests.
type Enumerator interface {
	// List returns the available video input devices, possibly empty.
	List(ctx context.Context) ([]DeviceInfo, error)
	// Open acquires the device and starts its stream. frameRate is a hint
	// for the capture cadence; backends may ignore it.
	Open(ctx context.Context, id string, frameRate int) (Stream, error)
}

// Track is one live track of an open stream.
type Track interface {
	Kind() string
	Stop() error
}

// Stream is an open camera stream. It is owned exclusively by the one
// Session that acquired it; once its tracks are stopped it must not be
// reused.
type Stream interface {
	Tracks() []Track
	// ReadFrame blocks until the next frame is available or ctx is done.
	ReadFrame(ctx context.Context) (image.Image, error)
}

// Sink is the rendering target the stream is bound to while scanning. The
// TUI scanner view implements it to surface liveness to the operator; a
// headless scan uses NopSink. Implementations must not call back into the
// Session.
type Sink interface {
	Bind(stream Stream) error
	Unbind()
	Pause()
	Clear()
}

// NopSink discards all sink operations.
type NopSink struct{}

func (NopSink) Bind(Stream) error { return nil }
func (NopSink) Unbind()           {}
func (NopSink) Pause()            {}
func (NopSink) Clear()            {}

// ErrNoCode is returned by a Decoder when the frame contains no readable
// barcode or QR payload. It is the one decode outcome that is not an error
// condition: the loop simply moves on to the next frame.
var ErrNoCode = errors.New("no code in frame")

// Decoder turns video frames into barcode/QR payload strings.
type Decoder interface {
	Decode(img image.Image) (string, error)
	Close() error
}

// pickDevice applies the selection policy: an explicitly pinned device ID
// wins when present in the list; otherwise the first device whose label
// contains "back" or "rear" (case-insensitive), approximating a rear-facing
// camera; otherwise the first enumerated device.
func pickDevice(devices []DeviceInfo, pinned string) DeviceInfo {
	if pinned != "" {
		for _, d := range devices {
			if d.ID == pinned {
				return d
			}
		}
	}
	for _, d := range devices {
		label := strings.ToLower(d.Label)
		if strings.Contains(label, "back") || strings.Contains(label, "rear") {
			return d
		}
	}
	return devices[0]
}

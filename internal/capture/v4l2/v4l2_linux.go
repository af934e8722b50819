//go:build linux && cgo

// Package v4l2 is the Linux camera backend for the capture package, built
// on go4vl. Devices are enumerated from /dev/video* with labels read from
// sysfs, and frames are delivered as MJPEG (decoded to RGB) or YUYV
// (reduced to luma, which is all barcode decoding needs).
package v4l2

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"

	"github.com/vladimirvivien/go4vl/device"
	gov4l2 "github.com/vladimirvivien/go4vl/v4l2"

	"github.com/returnloop/kiosk/internal/capture"
)

const (
	captureWidth  = 1280
	captureHeight = 720
)

// Enumerator lists and opens V4L2 capture devices.
type Enumerator struct {
	log *slog.Logger
}

var _ capture.Enumerator = (*Enumerator)(nil)

func NewEnumerator(logger *slog.Logger) *Enumerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enumerator{log: logger}
}

// List returns every /dev/video* node in stable order. Labels come from
// the sysfs device name when readable, falling back to the node name.
func (e *Enumerator) List(ctx context.Context) ([]capture.DeviceInfo, error) {
	paths, err := filepath.Glob("/dev/video*")
	if err != nil {
		return nil, fmt.Errorf("glob video devices: %w", err)
	}
	sort.Strings(paths)

	devices := make([]capture.DeviceInfo, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		devices = append(devices, capture.DeviceInfo{
			ID:    path,
			Label: deviceLabel(path),
		})
	}
	return devices, nil
}

func deviceLabel(path string) string {
	node := filepath.Base(path)
	raw, err := os.ReadFile(filepath.Join("/sys/class/video4linux", node, "name"))
	if err != nil {
		return node
	}
	label := strings.TrimSpace(string(raw))
	if label == "" {
		return node
	}
	return label
}

// Open acquires the device and starts streaming. MJPEG is requested; if
// the driver negotiates a different format the stream falls back to YUYV,
// and anything else is rejected.
func (e *Enumerator) Open(ctx context.Context, id string, frameRate int) (capture.Stream, error) {
	dev, err := device.Open(id,
		device.WithPixFormat(gov4l2.PixFormat{
			PixelFormat: gov4l2.PixelFmtMJPEG,
			Width:       captureWidth,
			Height:      captureHeight,
		}),
		device.WithFPS(uint32(frameRate)),
	)
	if err != nil {
		return nil, classify(fmt.Errorf("open %s: %w", id, err))
	}

	pix, err := dev.GetPixFormat()
	if err != nil {
		dev.Close()
		return nil, classify(fmt.Errorf("query pixel format for %s: %w", id, err))
	}
	if pix.PixelFormat != gov4l2.PixelFmtMJPEG && pix.PixelFormat != gov4l2.PixelFmtYUYV {
		dev.Close()
		return nil, &capture.DeviceError{
			Kind: capture.KindOther,
			Err:  fmt.Errorf("device %s negotiated unsupported pixel format %#x", id, pix.PixelFormat),
		}
	}

	if err := dev.Start(ctx); err != nil {
		dev.Close()
		return nil, classify(fmt.Errorf("start %s: %w", id, err))
	}

	e.log.Debug("camera streaming",
		"device", id,
		"format", gov4l2.PixelFormats[pix.PixelFormat],
		"width", pix.Width,
		"height", pix.Height)

	return &stream{
		frames: dev.GetOutput(),
		mjpeg:  pix.PixelFormat == gov4l2.PixelFmtMJPEG,
		width:  int(pix.Width),
		height: int(pix.Height),
		track:  &track{dev: dev},
	}, nil
}

type stream struct {
	frames <-chan []byte
	mjpeg  bool
	width  int
	height int
	track  *track
}

func (s *stream) Tracks() []capture.Track { return []capture.Track{s.track} }

func (s *stream) ReadFrame(ctx context.Context) (image.Image, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case data, ok := <-s.frames:
		if !ok {
			return nil, classify(errors.New("camera stream closed"))
		}
		return s.decodeFrame(data)
	}
}

func (s *stream) decodeFrame(data []byte) (image.Image, error) {
	if s.mjpeg {
		img, err := jpeg.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode mjpeg frame: %w", err)
		}
		return img, nil
	}
	return yuyvToGray(data, s.width, s.height)
}

// yuyvToGray keeps only the luma bytes of a packed YUYV frame.
func yuyvToGray(data []byte, width, height int) (image.Image, error) {
	if len(data) < width*height*2 {
		return nil, fmt.Errorf("short yuyv frame: %d bytes for %dx%d", len(data), width, height)
	}
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i := 0; i < width*height; i++ {
		img.Pix[i] = data[i*2]
	}
	return img, nil
}

// track wraps the go4vl device handle. Stopping the track closes the
// device, which also ends the frame stream.
type track struct {
	dev  *device.Device
	once sync.Once
	err  error
}

func (t *track) Kind() string { return "video" }

func (t *track) Stop() error {
	t.once.Do(func() {
		t.err = t.dev.Close()
	})
	return t.err
}

// classify maps kernel errnos onto the capture error taxonomy.
func classify(err error) error {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EACCES, syscall.EPERM:
			return &capture.DeviceError{Kind: capture.KindPermission, Err: err}
		case syscall.EBUSY:
			return &capture.DeviceError{Kind: capture.KindBusy, Err: err}
		case syscall.ENODEV, syscall.ENOENT, syscall.ENXIO:
			return &capture.DeviceError{Kind: capture.KindNotFound, Err: err}
		}
	}
	switch {
	case errors.Is(err, os.ErrPermission):
		return &capture.DeviceError{Kind: capture.KindPermission, Err: err}
	case errors.Is(err, os.ErrNotExist):
		return &capture.DeviceError{Kind: capture.KindNotFound, Err: err}
	}
	return &capture.DeviceError{Kind: capture.KindOther, Err: err}
}

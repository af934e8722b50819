// Package zxing adapts the gozxing barcode readers to the capture.Decoder
// interface. A single decoder tries QR plus the common retail 1D formats
// against each frame.
package zxing

import (
	"errors"
	"fmt"
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/returnloop/kiosk/internal/capture"
)

// Decoder decodes barcode and QR payloads from camera frames. It is not
// safe for concurrent use; each capture session owns its own decoder.
type Decoder struct {
	readers []gozxing.Reader
}

var _ capture.Decoder = (*Decoder)(nil)

// New builds a decoder covering QR codes and the 1D formats found on
// product packaging.
func New() *Decoder {
	return &Decoder{
		readers: []gozxing.Reader{
			qrcode.NewQRCodeReader(),
			oned.NewCode128Reader(),
			oned.NewCode39Reader(),
			oned.NewEAN13Reader(),
			oned.NewEAN8Reader(),
			oned.NewUPCAReader(),
			oned.NewITFReader(),
		},
	}
}

// Decode returns the first payload any reader finds in the frame. A frame
// in which no reader finds a code yields capture.ErrNoCode; any other
// reader failure is surfaced so the session can count it against its
// error budget.
func (d *Decoder) Decode(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("prepare bitmap: %w", err)
	}

	var lastErr error
	for _, reader := range d.readers {
		result, err := reader.Decode(bmp, nil)
		if err == nil {
			return result.GetText(), nil
		}
		if isNotFound(err) {
			continue
		}
		lastErr = err
	}
	if lastErr != nil {
		return "", fmt.Errorf("decode frame: %w", lastErr)
	}
	return "", capture.ErrNoCode
}

func (d *Decoder) Close() error {
	for _, reader := range d.readers {
		reader.Reset()
	}
	return nil
}

func isNotFound(err error) bool {
	var nfe gozxing.NotFoundException
	return errors.As(err, &nfe)
}

package zxing

import (
	"errors"
	"image"
	"testing"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/returnloop/kiosk/internal/capture"
)

func TestDecode_QRPayload(t *testing.T) {
	writer := qrcode.NewQRCodeWriter()
	img, err := writer.Encode("RTN-000123", gozxing.BarcodeFormat_QR_CODE, 256, 256, nil)
	if err != nil {
		t.Fatalf("encode test QR: %v", err)
	}

	dec := New()
	got, err := dec.Decode(img)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if got != "RTN-000123" {
		t.Fatalf("Decode = %q, want %q", got, "RTN-000123")
	}
}

func TestDecode_Code128Payload(t *testing.T) {
	writer := oned.NewCode128Writer()
	img, err := writer.Encode("4006381333931", gozxing.BarcodeFormat_CODE_128, 400, 120, nil)
	if err != nil {
		t.Fatalf("encode test barcode: %v", err)
	}

	dec := New()
	got, err := dec.Decode(img)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if got != "4006381333931" {
		t.Fatalf("Decode = %q, want %q", got, "4006381333931")
	}
}

func TestDecode_BlankFrameIsMissNotError(t *testing.T) {
	dec := New()
	_, err := dec.Decode(image.NewGray(image.Rect(0, 0, 64, 64)))
	if !errors.Is(err, capture.ErrNoCode) {
		t.Fatalf("Decode error = %v, want capture.ErrNoCode", err)
	}
}

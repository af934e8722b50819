package ui

import (
	"context"
	"errors"
	"image"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/returnloop/kiosk/internal/capture"
	"github.com/returnloop/kiosk/internal/state"
)

type emptyEnumerator struct{}

func (emptyEnumerator) List(context.Context) ([]capture.DeviceInfo, error) { return nil, nil }
func (emptyEnumerator) Open(context.Context, string, int) (capture.Stream, error) {
	return nil, capture.ErrNoDevice
}

type missDecoder struct{}

func (missDecoder) Decode(image.Image) (string, error) { return "", capture.ErrNoCode }
func (missDecoder) Close() error                       { return nil }

func newScannerTestModel(t *testing.T) Model {
	t.Helper()
	m := New(Options{
		Store:     &state.Store{},
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
		NewCaptureSession: func(sink capture.Sink, cb capture.Callbacks) *capture.Session {
			return capture.NewSession(emptyEnumerator{}, missDecoder{}, sink, capture.Config{}, cb)
		},
	})
	m.startWizard()
	return m
}

func TestListenScan_DeliversBufferedEvent(t *testing.T) {
	s := &scanState{events: make(chan scanEvent, 1), done: make(chan struct{})}
	s.events <- scanEvent{kind: scanEventResult, code: "RTN-42"}

	msg := listenScanCmd(s)()
	ev, ok := msg.(scanEventMsg)
	if !ok {
		t.Fatalf("listenScanCmd msg = %T, want scanEventMsg", msg)
	}
	if ev.code != "RTN-42" {
		t.Fatalf("event code = %q, want %q", ev.code, "RTN-42")
	}
}

// waitForListener runs the pending listen command and reports whether it
// returned within the deadline.
func waitForListener(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	out := make(chan tea.Msg, 1)
	go func() { out <- cmd() }()
	select {
	case msg := <-out:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("scan event listener still blocked after the scan ended")
		return nil
	}
}

func TestCancelledScanReleasesListener(t *testing.T) {
	m := newScannerTestModel(t)

	updated, _ := m.startScanner()
	mm := updated.(Model)
	if mm.scanner == nil {
		t.Fatal("startScanner left no scan state")
	}
	listen := listenScanCmd(mm.scanner)

	after, _ := mm.handleScannerKey(tea.KeyMsg{Type: tea.KeyEsc})
	mm = after.(Model)
	if mm.scanner != nil {
		t.Error("scan state not cleared on cancel")
	}
	if mm.screen != ScreenWizard {
		t.Errorf("screen = %d, want ScreenWizard", mm.screen)
	}
	if msg := waitForListener(t, listen); msg != nil {
		t.Errorf("released listener msg = %v, want nil", msg)
	}
}

func TestFailedScanStartReleasesListener(t *testing.T) {
	m := newScannerTestModel(t)

	updated, _ := m.startScanner()
	mm := updated.(Model)
	listen := listenScanCmd(mm.scanner)

	after, _ := mm.handleScanStarted(scanStartedMsg{err: errors.New("camera exploded")})
	mm = after.(Model)
	if mm.scanner != nil {
		t.Error("scan state not cleared on start failure")
	}
	if mm.screen != ScreenWizard {
		t.Errorf("screen = %d, want ScreenWizard", mm.screen)
	}
	if msg := waitForListener(t, listen); msg != nil {
		t.Errorf("released listener msg = %v, want nil", msg)
	}
}

func TestScanFailureEventReleasesListener(t *testing.T) {
	m := newScannerTestModel(t)

	updated, _ := m.startScanner()
	mm := updated.(Model)
	listen := listenScanCmd(mm.scanner)

	after, _ := mm.handleScanEvent(scanEventMsg{kind: scanEventFailure, err: errors.New("device lost")})
	mm = after.(Model)
	if mm.scanner != nil {
		t.Error("scan state not cleared on failure event")
	}
	if msg := waitForListener(t, listen); msg != nil {
		t.Errorf("released listener msg = %v, want nil", msg)
	}
}

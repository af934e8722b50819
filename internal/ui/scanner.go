package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/returnloop/kiosk/internal/capture"
)

// scanState holds one in-flight camera scan driven from the wizard.
type scanState struct {
	session *capture.Session
	events  chan scanEvent
	done    chan struct{} // closed when the scan ends, releases the listener
	live    bool
	status  string
}

type scanEventKind int

const (
	scanEventLive scanEventKind = iota
	scanEventResult
	scanEventFailure
)

type scanEvent struct {
	kind scanEventKind
	code string
	err  error
}

// scanSink surfaces stream liveness to the UI. It never calls back into
// the capture session; events go through a buffered channel with
// non-blocking sends so teardown can never stall on the UI.
type scanSink struct {
	events chan<- scanEvent
}

func (s *scanSink) Bind(capture.Stream) error {
	select {
	case s.events <- scanEvent{kind: scanEventLive}:
	default:
	}
	return nil
}

func (s *scanSink) Unbind() {}
func (s *scanSink) Pause()  {}
func (s *scanSink) Clear()  {}

// Messages

type scanStartedMsg struct {
	err error
}

type scanEventMsg scanEvent

// startScanner builds a capture session and switches to the scanner
// overlay. Each scan gets a fresh session; a finished session is never
// reused.
func (m Model) startScanner() (tea.Model, tea.Cmd) {
	if m.newCapture == nil {
		m.setFlash("Camera capture is not available", true)
		return m, nil
	}

	events := make(chan scanEvent, 8)
	sess := m.newCapture(&scanSink{events: events}, capture.Callbacks{
		OnResult: func(code string) {
			select {
			case events <- scanEvent{kind: scanEventResult, code: code}:
			default:
			}
		},
		OnError: func(err error) {
			select {
			case events <- scanEvent{kind: scanEventFailure, err: err}:
			default:
			}
		},
	})

	m.flash = ""
	m.scanner = &scanState{
		session: sess,
		events:  events,
		done:    make(chan struct{}),
		status:  "Starting camera...",
	}
	m.screen = ScreenScanner
	return m, tea.Batch(m.startCaptureCmd(sess), listenScanCmd(m.scanner))
}

// finishScan releases the pending event listener and drops the scan state.
// The events channel is never closed; the session may still race a buffered
// send, which the closed done channel makes irrelevant.
func (m *Model) finishScan() {
	if m.scanner == nil {
		return
	}
	close(m.scanner.done)
	m.scanner = nil
}

func (m Model) startCaptureCmd(sess *capture.Session) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return scanStartedMsg{err: sess.Start(ctx)}
	}
}

// listenScanCmd waits for the next scan event. The done channel gives the
// command an exit path when the scan is cancelled or fails before another
// event arrives; without it the goroutine would block forever.
func listenScanCmd(s *scanState) tea.Cmd {
	events, done := s.events, s.done
	return func() tea.Msg {
		select {
		case ev := <-events:
			return scanEventMsg(ev)
		case <-done:
			return nil
		}
	}
}

func (m Model) handleScanStarted(msg scanStartedMsg) (tea.Model, tea.Cmd) {
	if m.scanner == nil {
		return m, nil
	}
	if msg.err != nil {
		m.finishScan()
		m.screen = ScreenWizard
		m.setFlash(capture.UserMessage(msg.err), true)
		return m, nil
	}
	return m, nil
}

func (m Model) handleScanEvent(msg scanEventMsg) (tea.Model, tea.Cmd) {
	if m.scanner == nil {
		return m, nil
	}

	switch msg.kind {
	case scanEventLive:
		m.scanner.live = true
		m.scanner.status = "Point the camera at the barcode"
		return m, listenScanCmd(m.scanner)

	case scanEventResult:
		// The session stopped and released the camera before delivering.
		m.finishScan()
		m.wizard.draft.SetScanned(msg.code)
		m.wizard.barcodeInput.SetValue(m.wizard.draft.Barcode)
		m.wizard.barcodeInput.Blur()
		m.wizard.fileInput.Focus()
		m.screen = ScreenWizard
		m.setFlash("Scanned "+msg.code, false)
		return m, nil

	case scanEventFailure:
		m.finishScan()
		m.screen = ScreenWizard
		m.setFlash(capture.UserMessage(msg.err), true)
		return m, nil
	}
	return m, nil
}

func (m Model) handleScannerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		if m.scanner != nil {
			m.scanner.session.Stop()
			m.finishScan()
		}
		m.screen = ScreenWizard
		return m, nil
	}
	return m, nil
}

func (m Model) renderScanner() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.AccentText.Render("Barcode scanner"))
	b.WriteString("\n\n")

	if m.scanner != nil {
		if m.scanner.live {
			b.WriteString(styles.SuccessText.Render("● CAMERA LIVE"))
		} else {
			b.WriteString(styles.WarningText.Render("● starting"))
		}
		b.WriteString("\n\n")
		b.WriteString(styles.Text.Render(m.scanner.status))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("esc cancel"))

	return m.centerBox(styles.PanelFocus.Render(b.String()))
}

package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// State is the lifecycle phase of a Session.
type State int

const (
	StateIdle State = iota
	StateEnumerating
	StateStarting
	StateLive
	StateStopped
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateEnumerating:
		return "enumerating"
	case StateStarting:
		return "starting"
	case StateLive:
		return "live"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Callbacks deliver asynchronous session outcomes.
//
// OnResult fires at most once per session, after the session has already
// been stopped and its resources released. OnError fires for failures that
// happen after Start has returned (decode-loop device failures); failures
// during Start are reported through Start's error return instead.
type Callbacks struct {
	OnResult func(code string)
	OnError  func(err error)
}

// Config tunes a Session.
type Config struct {
	Device    string // pin capture to this device ID, bypassing label selection
	FrameRate int    // decode attempts per second; <=0 uses a sane default
	Logger    *slog.Logger
}

const (
	defaultFrameRate = 10

	// maxDecoderErrors bounds consecutive decoder-internal failures (as
	// opposed to ordinary "no code in frame" misses) before the session is
	// failed rather than looping forever against a broken decoder.
	maxDecoderErrors = 25
)

// Session owns one camera-to-decoder pipeline: device discovery, device
// selection, the continuous decode loop, result delivery, and release of
// every acquired handle. A session runs at most once; after it reaches
// StateStopped or StateFailed a new Session must be constructed to scan
// again.
type Session struct {
	id        string
	enum      Enumerator
	dec       Decoder
	sink      Sink
	cb        Callbacks
	pinned    string
	frameRate int
	log       *slog.Logger

	mu         sync.Mutex
	state      State
	stream     Stream
	loopCancel context.CancelFunc
	released   bool
}

// NewSession builds an idle session. Nothing is acquired until Start.
func NewSession(enum Enumerator, dec Decoder, sink Sink, cfg Config, cb Callbacks) *Session {
	if sink == nil {
		sink = NopSink{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	frameRate := cfg.FrameRate
	if frameRate <= 0 {
		frameRate = defaultFrameRate
	}
	id := uuid.NewString()
	return &Session{
		id:        id,
		enum:      enum,
		dec:       dec,
		sink:      sink,
		cb:        cb,
		pinned:    cfg.Device,
		frameRate: frameRate,
		log:       logger.With("session", id),
	}
}

// ID returns the session's unique identifier, used for log correlation.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start enumerates devices, opens the selected one, binds its stream to the
// sink, and launches the decode loop. It may be called once per session.
//
// A failure during any of these steps transitions the session to
// StateFailed and is returned to the caller (classified per the device
// error taxonomy). If the session is stopped while an asynchronous step is
// in flight, the late result is discarded and Start returns nil.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return fmt.Errorf("capture: session already started (state %s)", s.state)
	}
	s.state = StateEnumerating
	s.mu.Unlock()

	devices, err := s.enum.List(ctx)

	s.mu.Lock()
	if s.state != StateEnumerating {
		// Stopped while enumerating; the response is stale.
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		err = asDeviceError(fmt.Errorf("enumerate devices: %w", err))
		s.failLocked(err)
		s.mu.Unlock()
		return err
	}
	if len(devices) == 0 {
		s.failLocked(ErrNoDevice)
		s.mu.Unlock()
		return ErrNoDevice
	}
	device := pickDevice(devices, s.pinned)
	s.state = StateStarting
	s.mu.Unlock()

	s.log.Info("starting camera", "device", device.ID, "label", device.Label)
	stream, err := s.enum.Open(ctx, device.ID, s.frameRate)

	s.mu.Lock()
	if s.state != StateStarting {
		s.mu.Unlock()
		// Stopped while opening; the fresh stream was never adopted by the
		// session, so stop its tracks here.
		if stream != nil {
			for _, track := range stream.Tracks() {
				s.release("orphan track "+track.Kind(), track.Stop)
			}
		}
		return nil
	}
	if err != nil {
		err = asDeviceError(fmt.Errorf("open device %s: %w", device.ID, err))
		s.failLocked(err)
		s.mu.Unlock()
		return err
	}
	s.stream = stream
	if err := s.sink.Bind(stream); err != nil {
		err = asDeviceError(fmt.Errorf("bind sink: %w", err))
		s.failLocked(err)
		s.mu.Unlock()
		return err
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	s.loopCancel = cancel
	s.state = StateLive
	s.mu.Unlock()

	go s.decodeLoop(loopCtx, stream)
	return nil
}

// Stop tears the session down. It is idempotent and safe to call from
// concurrent paths (a success callback racing a component teardown); the
// second caller observes a terminal state and returns immediately.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateStopped || s.state == StateFailed {
		return
	}
	s.log.Info("stopping capture session", "state", s.state.String())
	s.stopLocked(StateStopped)
}

// decodeLoop runs until a payload is decoded, the loop context is
// cancelled, or the device fails. Individual frames with no readable code
// are not errors; the loop continues to the next frame.
func (s *Session) decodeLoop(ctx context.Context, stream Stream) {
	limiter := rate.NewLimiter(rate.Limit(s.frameRate), 1)
	decoderErrors := 0

	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}

		frame, err := stream.ReadFrame(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			s.fail(asDeviceError(fmt.Errorf("read frame: %w", err)))
			return
		}

		code, err := s.dec.Decode(frame)
		switch {
		case err == nil && code != "":
			s.deliver(code)
			return
		case err == nil || errors.Is(err, ErrNoCode):
			decoderErrors = 0
		default:
			// A decoder-internal error, distinct from a miss. Tolerated a
			// bounded number of times in a row, then treated as a device
			// failure.
			decoderErrors++
			if decoderErrors >= maxDecoderErrors {
				s.fail(asDeviceError(fmt.Errorf("decoder failing persistently: %w", err)))
				return
			}
		}
	}
}

// deliver stops the session synchronously, then hands the decoded text to
// the caller. The state check under the lock makes delivery at-most-once:
// by the time the callback runs the session is already terminal, so no
// further decode callback can fire.
func (s *Session) deliver(code string) {
	s.mu.Lock()
	if s.state != StateLive {
		s.mu.Unlock()
		return
	}
	s.stopLocked(StateStopped)
	onResult := s.cb.OnResult
	s.mu.Unlock()

	s.log.Info("barcode decoded", "length", len(code))
	if onResult != nil {
		onResult(code)
	}
}

// fail releases everything and reports the failure, at most once.
func (s *Session) fail(err error) {
	s.mu.Lock()
	if s.state == StateStopped || s.state == StateFailed {
		s.mu.Unlock()
		return
	}
	s.failLocked(err)
	onError := s.cb.OnError
	s.mu.Unlock()

	if onError != nil {
		onError(err)
	}
}

func (s *Session) failLocked(err error) {
	s.log.Warn("capture session failed", "state", s.state.String(), "error", err)
	s.stopLocked(StateFailed)
}

// stopLocked transitions to the terminal state and releases all handles in
// order: decode loop, stream tracks, sink stream reference, decoder, sink
// source. Each step is guarded independently so a failing or panicking
// step never prevents the remaining handles from being released.
func (s *Session) stopLocked(final State) {
	s.state = final
	if s.released {
		return
	}
	s.released = true

	s.release("decode loop", func() error {
		if s.loopCancel != nil {
			s.loopCancel()
		}
		return nil
	})
	if s.stream != nil {
		for _, track := range s.stream.Tracks() {
			s.release("track "+track.Kind(), track.Stop)
		}
	}
	s.release("sink stream", func() error {
		s.sink.Unbind()
		return nil
	})
	s.release("decoder", s.dec.Close)
	s.release("sink source", func() error {
		s.sink.Pause()
		s.sink.Clear()
		return nil
	})
	s.stream = nil
}

func (s *Session) release(step string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("release step panicked", "step", step, "panic", fmt.Sprintf("%v", r))
		}
	}()
	if err := fn(); err != nil {
		s.log.Error("release step failed", "step", step, "error", err)
	}
}

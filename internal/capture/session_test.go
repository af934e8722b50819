package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeTrack struct {
	kind        string
	panicOnStop bool
	stops       atomic.Int32
}

func (t *fakeTrack) Kind() string { return t.kind }

func (t *fakeTrack) Stop() error {
	t.stops.Add(1)
	if t.panicOnStop {
		panic("track stop exploded")
	}
	return nil
}

type fakeStream struct {
	tracks    []Track
	readFrame func(ctx context.Context) (image.Image, error)
}

func (s *fakeStream) Tracks() []Track { return s.tracks }

func (s *fakeStream) ReadFrame(ctx context.Context) (image.Image, error) {
	if s.readFrame != nil {
		return s.readFrame(ctx)
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		return image.NewGray(image.Rect(0, 0, 2, 2)), nil
	}
}

type fakeEnumerator struct {
	devices  []DeviceInfo
	listErr  error
	listGate chan struct{} // when non-nil, List blocks until closed
	stream   *fakeStream
	openErr  error
	opens    atomic.Int32
	openedID string
}

func (e *fakeEnumerator) List(ctx context.Context) ([]DeviceInfo, error) {
	if e.listGate != nil {
		select {
		case <-e.listGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return e.devices, e.listErr
}

func (e *fakeEnumerator) Open(_ context.Context, id string, _ int) (Stream, error) {
	e.opens.Add(1)
	e.openedID = id
	if e.openErr != nil {
		return nil, e.openErr
	}
	return e.stream, nil
}

type fakeDecoder struct {
	decode func(img image.Image) (string, error)
	closes atomic.Int32
}

func (d *fakeDecoder) Decode(img image.Image) (string, error) {
	if d.decode != nil {
		return d.decode(img)
	}
	return "", ErrNoCode
}

func (d *fakeDecoder) Close() error {
	d.closes.Add(1)
	return nil
}

type recordingSink struct {
	mu      sync.Mutex
	binds   int
	unbinds int
	pauses  int
	clears  int
}

func (s *recordingSink) Bind(Stream) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.binds++
	return nil
}

func (s *recordingSink) Unbind() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unbinds++
}

func (s *recordingSink) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pauses++
}

func (s *recordingSink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
}

func (s *recordingSink) counts() (binds, unbinds, pauses, clears int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.binds, s.unbinds, s.pauses, s.clears
}

func testConfig() Config {
	return Config{FrameRate: 500}
}

func TestStart_NoDevicesFailsWithoutAcquisition(t *testing.T) {
	enum := &fakeEnumerator{}
	sess := NewSession(enum, &fakeDecoder{}, nil, testConfig(), Callbacks{})

	err := sess.Start(context.Background())
	if !errors.Is(err, ErrNoDevice) {
		t.Fatalf("Start error = %v, want ErrNoDevice", err)
	}
	if sess.State() != StateFailed {
		t.Fatalf("state = %s, want failed", sess.State())
	}
	if enum.opens.Load() != 0 {
		t.Fatalf("Open called %d times, want 0", enum.opens.Load())
	}
}

func TestPickDevice_PrefersBackOrRearLabel(t *testing.T) {
	tests := []struct {
		name    string
		devices []DeviceInfo
		want    string
	}{
		{
			name: "back label wins",
			devices: []DeviceInfo{
				{ID: "dev0", Label: "Front Camera"},
				{ID: "dev1", Label: "Back Camera"},
			},
			want: "dev1",
		},
		{
			name: "rear label wins case-insensitively",
			devices: []DeviceInfo{
				{ID: "dev0", Label: "USB Webcam"},
				{ID: "dev1", Label: "REAR facing module"},
			},
			want: "dev1",
		},
		{
			name: "no match falls back to first",
			devices: []DeviceInfo{
				{ID: "dev0", Label: "Camera 0"},
				{ID: "dev1", Label: "Camera 1"},
			},
			want: "dev0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pickDevice(tt.devices, "")
			if got.ID != tt.want {
				t.Fatalf("pickDevice = %s, want %s", got.ID, tt.want)
			}
		})
	}
}

func TestPickDevice_PinnedDeviceWins(t *testing.T) {
	devices := []DeviceInfo{
		{ID: "dev0", Label: "Back Camera"},
		{ID: "dev1", Label: "Document Camera"},
	}
	got := pickDevice(devices, "dev1")
	if got.ID != "dev1" {
		t.Fatalf("pickDevice = %s, want pinned dev1", got.ID)
	}
}

func TestSession_DeliversResultAtMostOnce(t *testing.T) {
	track := &fakeTrack{kind: "video"}
	stream := &fakeStream{tracks: []Track{track}}
	enum := &fakeEnumerator{
		devices: []DeviceInfo{{ID: "dev0", Label: "Back Camera"}},
		stream:  stream,
	}
	dec := &fakeDecoder{decode: func(image.Image) (string, error) {
		return "BC-7781", nil
	}}

	results := make(chan string, 8)
	sink := &recordingSink{}
	sess := NewSession(enum, dec, sink, testConfig(), Callbacks{
		OnResult: func(code string) { results <- code },
	})

	if err := sess.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	select {
	case code := <-results:
		if code != "BC-7781" {
			t.Fatalf("decoded code = %q, want BC-7781", code)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for decode result")
	}

	// The decoder produced a result on every frame; the loop must have been
	// stopped before delivery so no second result can arrive.
	select {
	case extra := <-results:
		t.Fatalf("received second result %q, want at-most-once delivery", extra)
	case <-time.After(100 * time.Millisecond):
	}

	if sess.State() != StateStopped {
		t.Fatalf("state = %s, want stopped", sess.State())
	}
	if got := track.stops.Load(); got != 1 {
		t.Fatalf("track stopped %d times, want exactly 1", got)
	}
}

func TestSession_ConcurrentTeardownStopsTracksExactlyOnce(t *testing.T) {
	track := &fakeTrack{kind: "video"}
	stream := &fakeStream{tracks: []Track{track}}
	enum := &fakeEnumerator{
		devices: []DeviceInfo{{ID: "dev0", Label: "Back Camera"}},
		stream:  stream,
	}
	dec := &fakeDecoder{decode: func(image.Image) (string, error) {
		return "BC-1", nil // success path races the explicit stops below
	}}

	done := make(chan struct{})
	sink := &recordingSink{}
	sess := NewSession(enum, dec, sink, testConfig(), Callbacks{
		OnResult: func(string) { close(done) },
	})
	if err := sess.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess.Stop()
		}()
	}
	wg.Wait()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		// The explicit Stop may have won the race before a frame decoded;
		// that is a legal outcome.
	}

	if got := track.stops.Load(); got != 1 {
		t.Fatalf("track stopped %d times, want exactly 1", got)
	}
	if closes := dec.closes.Load(); closes != 1 {
		t.Fatalf("decoder closed %d times, want exactly 1", closes)
	}
	_, unbinds, pauses, clears := sink.counts()
	if unbinds != 1 || pauses != 1 || clears != 1 {
		t.Fatalf("sink released (unbind=%d pause=%d clear=%d), want exactly once each", unbinds, pauses, clears)
	}
}

func TestSession_PanickingReleaseStepDoesNotSkipRemainingSteps(t *testing.T) {
	track := &fakeTrack{kind: "video", panicOnStop: true}
	stream := &fakeStream{tracks: []Track{track}}
	enum := &fakeEnumerator{
		devices: []DeviceInfo{{ID: "dev0", Label: "Back Camera"}},
		stream:  stream,
	}
	dec := &fakeDecoder{}
	sink := &recordingSink{}
	sess := NewSession(enum, dec, sink, testConfig(), Callbacks{})

	if err := sess.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	sess.Stop() // must not panic past the session boundary

	if got := track.stops.Load(); got != 1 {
		t.Fatalf("track stop attempted %d times, want 1", got)
	}
	if closes := dec.closes.Load(); closes != 1 {
		t.Fatalf("decoder closed %d times, want 1 despite earlier panic", closes)
	}
	_, unbinds, pauses, clears := sink.counts()
	if unbinds != 1 || pauses != 1 || clears != 1 {
		t.Fatalf("sink released (unbind=%d pause=%d clear=%d), want once each despite earlier panic", unbinds, pauses, clears)
	}
}

func TestSession_StopDuringEnumerationDiscardsLateResponse(t *testing.T) {
	gate := make(chan struct{})
	enum := &fakeEnumerator{
		devices:  []DeviceInfo{{ID: "dev0", Label: "Back Camera"}},
		listGate: gate,
		stream:   &fakeStream{},
	}
	sess := NewSession(enum, &fakeDecoder{}, nil, testConfig(), Callbacks{})

	startErr := make(chan error, 1)
	go func() { startErr <- sess.Start(context.Background()) }()

	// Wait for Start to enter enumeration, then tear down before the
	// device list arrives.
	deadline := time.After(2 * time.Second)
	for sess.State() != StateEnumerating {
		select {
		case <-deadline:
			t.Fatalf("session never entered enumerating state")
		case <-time.After(time.Millisecond):
		}
	}
	sess.Stop()
	close(gate)

	if err := <-startErr; err != nil {
		t.Fatalf("Start returned error %v, want nil for cancelled start", err)
	}
	if enum.opens.Load() != 0 {
		t.Fatalf("Open called %d times after cancelled enumeration, want 0", enum.opens.Load())
	}
	if sess.State() != StateStopped {
		t.Fatalf("state = %s, want stopped", sess.State())
	}
}

func TestSession_DecodeMissesAreNotErrors(t *testing.T) {
	var frames atomic.Int32
	dec := &fakeDecoder{decode: func(image.Image) (string, error) {
		if frames.Add(1) < 5 {
			return "", ErrNoCode
		}
		return "BC-5", nil
	}}
	enum := &fakeEnumerator{
		devices: []DeviceInfo{{ID: "dev0", Label: "Back Camera"}},
		stream:  &fakeStream{tracks: []Track{&fakeTrack{kind: "video"}}},
	}

	results := make(chan string, 1)
	failures := make(chan error, 1)
	sess := NewSession(enum, dec, nil, testConfig(), Callbacks{
		OnResult: func(code string) { results <- code },
		OnError:  func(err error) { failures <- err },
	})
	if err := sess.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	select {
	case code := <-results:
		if code != "BC-5" {
			t.Fatalf("code = %q, want BC-5", code)
		}
	case err := <-failures:
		t.Fatalf("session failed on decode misses: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for decode result")
	}
}

func TestSession_PersistentDecoderErrorsFailTheSession(t *testing.T) {
	dec := &fakeDecoder{decode: func(image.Image) (string, error) {
		return "", fmt.Errorf("binarizer exploded")
	}}
	enum := &fakeEnumerator{
		devices: []DeviceInfo{{ID: "dev0", Label: "Back Camera"}},
		stream:  &fakeStream{tracks: []Track{&fakeTrack{kind: "video"}}},
	}

	failures := make(chan error, 1)
	sess := NewSession(enum, dec, nil, testConfig(), Callbacks{
		OnError: func(err error) { failures <- err },
	})
	if err := sess.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	select {
	case err := <-failures:
		var devErr *DeviceError
		if !errors.As(err, &devErr) {
			t.Fatalf("failure = %v, want *DeviceError", err)
		}
		if sess.State() != StateFailed {
			t.Fatalf("state = %s, want failed", sess.State())
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("session never failed on persistent decoder errors")
	}
}

func TestSession_DeviceReadFailureSurfacesAsSessionFailure(t *testing.T) {
	stream := &fakeStream{
		tracks: []Track{&fakeTrack{kind: "video"}},
		readFrame: func(ctx context.Context) (image.Image, error) {
			return nil, fmt.Errorf("device unplugged")
		},
	}
	enum := &fakeEnumerator{
		devices: []DeviceInfo{{ID: "dev0", Label: "Back Camera"}},
		stream:  stream,
	}

	failures := make(chan error, 1)
	sess := NewSession(enum, &fakeDecoder{}, nil, testConfig(), Callbacks{
		OnError: func(err error) { failures <- err },
	})
	if err := sess.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	select {
	case <-failures:
		if sess.State() != StateFailed {
			t.Fatalf("state = %s, want failed", sess.State())
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("device failure never surfaced")
	}
}

func TestSession_StartTwiceIsRejected(t *testing.T) {
	enum := &fakeEnumerator{
		devices: []DeviceInfo{{ID: "dev0", Label: "Back Camera"}},
		stream:  &fakeStream{},
	}
	sess := NewSession(enum, &fakeDecoder{}, nil, testConfig(), Callbacks{})
	if err := sess.Start(context.Background()); err != nil {
		t.Fatalf("first Start returned error: %v", err)
	}
	defer sess.Stop()
	if err := sess.Start(context.Background()); err == nil {
		t.Fatalf("second Start returned nil error, want rejection")
	}
}

func TestUserMessage_Taxonomy(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"no device sentinel", ErrNoDevice, "No camera found on this device"},
		{"permission", &DeviceError{Kind: KindPermission, Err: fmt.Errorf("EACCES")}, "Camera permission denied"},
		{"not found", &DeviceError{Kind: KindNotFound, Err: fmt.Errorf("ENODEV")}, "No camera found"},
		{"busy", &DeviceError{Kind: KindBusy, Err: fmt.Errorf("EBUSY")}, "Camera is already in use"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Fatalf("UserMessage = %q, want %q", got, tt.want)
			}
		})
	}

	got := UserMessage(&DeviceError{Kind: KindOther, Err: fmt.Errorf("ioctl failed")})
	if want := "Failed to access camera: "; len(got) <= len(want) || got[:len(want)] != want {
		t.Fatalf("UserMessage = %q, want generic prefix with underlying message", got)
	}
}

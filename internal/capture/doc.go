// Package capture owns the camera-to-barcode pipeline used by the scanner
// view and the headless scan command.
//
// # Session lifecycle
//
// A Session moves through idle, enumerating, starting, live, and finally
// stopped or failed. Start enumerates devices, selects one (a pinned device
// ID wins, then a label containing "back" or "rear", then the first
// device), opens its stream, binds it to the Sink, and launches the decode
// loop. Stop is idempotent and may race a decode success or a device
// failure; whichever path reaches the terminal state first performs the
// release, and every other path observes the terminal state and returns.
//
// # Resource release
//
// Teardown always runs the same ordered sequence: cancel the decode loop,
// stop each stream track, unbind the sink's stream reference, close the
// decoder, and pause and clear the sink's source. Each step is guarded
// independently so a failing or panicking step is logged and the remaining
// handles are still released. A session never leaks a track: even a stream
// that arrives after the session was stopped has its tracks stopped before
// it is discarded.
//
// # Decode loop
//
// The loop paces frame reads to the configured rate, feeds each frame to
// the Decoder, and delivers the first decoded payload. A frame with no
// readable code is not an error. Delivery is at most once: the session is
// stopped and fully released before the result callback runs.
//
// # Backends
//
// The Enumerator, Stream, and Decoder interfaces decouple the session from
// the platform. The v4l2 subpackage provides the Linux camera backend and
// the zxing subpackage provides the barcode decoder; tests run the session
// against in-memory fakes.
package capture

// Package logtail reads the tail of the kiosk's own log file for the
// in-app log viewer.
//
// # Reading
//
// Read extracts the last maxLines lines in one sequential pass using a
// ring buffer, so memory use is O(maxLines) regardless of file size.
// A non-positive limit falls back to DefaultLimit. A missing file yields
// nil, nil; the viewer shows an empty log rather than an error before the
// first line is ever written.
//
// Example usage:
//
//	lines, err := logtail.Read(cfg.LogPath(), logtail.DefaultLimit)
//	if err != nil {
//		log.Printf("failed to read log: %v", err)
//	}
//
// The package deliberately does no watching, rotation handling, or
// filtering. The viewer re-reads on demand and handles presentation.
package logtail

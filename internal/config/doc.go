// Package config handles loading and parsing the kiosk configuration file.
//
// # Overview
//
// The kiosk reads a single TOML file to discover the returns API endpoint,
// its local data directory, the dashboard refresh cadence, and optional
// camera overrides. Everything has a sensible default so the client works
// with no configuration file at all.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/kiosk/config.toml (default)
//  3. If the config file doesn't exist, fall back to hardcoded defaults
//  4. If the file exists but fields are missing/empty, use defaults
//
// # Default Values
//
//   - Config file: ~/.config/kiosk/config.toml
//   - API base: http://127.0.0.1:8000/api
//   - Data directory: ~/.local/share/kiosk
//   - Credential database: <data_dir>/session.db
//   - Client log: <data_dir>/kiosk.log
//   - Poll interval: 5 seconds
//   - Camera frame rate: 10 decode attempts per second
//
// # TOML Format
//
// Example config.toml:
//
//	api_base = "https://returns.example.net/api"
//	data_dir = "~/.local/share/kiosk"
//	poll_seconds = 5
//
//	[camera]
//	device = "/dev/video2"
//	frame_rate = 10
//
// All fields are optional. Tilde expansion is performed automatically on
// paths. Setting camera.device pins capture to one device and skips the
// back/rear label preference.
//
// # Error Handling
//
// Load returns errors for path expansion failures, file read errors (except
// os.ErrNotExist, which triggers defaults), and TOML parsing errors. A
// missing config file is NOT an error.
//
// The package is read-only and stateless: configuration is loaded once at
// startup and returned as an immutable Config value.
package config

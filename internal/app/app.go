package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/returnloop/kiosk/internal/api"
	"github.com/returnloop/kiosk/internal/capture"
	"github.com/returnloop/kiosk/internal/capture/v4l2"
	"github.com/returnloop/kiosk/internal/capture/zxing"
	"github.com/returnloop/kiosk/internal/config"
	"github.com/returnloop/kiosk/internal/prefs"
	"github.com/returnloop/kiosk/internal/session"
	"github.com/returnloop/kiosk/internal/state"
	"github.com/returnloop/kiosk/internal/ui"
)

// Options configure the kiosk application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/kiosk/prefs.toml
	PollEvery  int    // seconds; zero uses the configured interval
}

// Run boots the kiosk TUI until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	userPrefs, _ := prefs.Load(opts.PrefsPath)

	logger, closeLog := OpenLogger(cfg)
	defer closeLog()

	tokens, err := session.NewSQLiteStore(cfg.SessionDBPath())
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer tokens.Close()

	client, err := api.NewClient(cfg.APIBase, tokens, logger)
	if err != nil {
		return fmt.Errorf("init api client: %w", err)
	}

	store := &state.Store{}

	interval := time.Duration(cfg.PollSeconds) * time.Second
	if opts.PollEvery > 0 {
		interval = time.Duration(opts.PollEvery) * time.Second
	}

	// Start background poller
	StartPoller(ctx, store, client, tokens, interval, logger)

	uiOpts := ui.Options{
		Context:   ctx,
		Client:    client,
		Tokens:    tokens,
		Store:     store,
		Config:    &cfg,
		PollTick:  interval,
		ThemeName: userPrefs.Theme,
		Username:  userPrefs.Username,
		PrefsPath: opts.PrefsPath,
		Logger:    logger,
		NewCaptureSession: func(sink capture.Sink, cb capture.Callbacks) *capture.Session {
			return capture.NewSession(
				v4l2.NewEnumerator(logger),
				zxing.New(),
				sink,
				capture.Config{
					Device:    cfg.Camera.Device,
					FrameRate: cfg.Camera.FrameRate,
					Logger:    logger,
				},
				cb,
			)
		},
	}
	return ui.Run(uiOpts)
}

// OpenLogger opens the JSON log file under the data directory. The TUI owns
// the terminal, so logs never go to stderr; when the file cannot be opened
// logging degrades to discard rather than failing startup.
func OpenLogger(cfg config.Config) (*slog.Logger, func()) {
	path := cfg.LogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return slog.New(slog.NewJSONHandler(io.Discard, nil)), func() {}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return slog.New(slog.NewJSONHandler(io.Discard, nil)), func() {}
	}
	logger := slog.New(slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, func() { file.Close() }
}

package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures the fields the kiosk client needs to run.
type Config struct {
	APIBase     string
	DataDir     string
	PollSeconds int
	Camera      CameraConfig
}

// CameraConfig holds optional camera overrides. When Device is empty the
// capture layer enumerates and selects a device on its own.
type CameraConfig struct {
	Device    string
	FrameRate int
}

const (
	defaultConfigPath = "~/.config/kiosk/config.toml"
	defaultDataDir    = "~/.local/share/kiosk"
	defaultAPIBase    = "http://127.0.0.1:8000/api"
	defaultPollSecs   = 5
	defaultFrameRate  = 10
)

// Load locates and parses the kiosk config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		APIBase:     defaultAPIBase,
		DataDir:     defaultDataDir,
		PollSeconds: defaultPollSecs,
		Camera:      CameraConfig{FrameRate: defaultFrameRate},
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.DataDir = mustExpand(defaultDataDir)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIBase     string `toml:"api_base"`
		DataDir     string `toml:"data_dir"`
		PollSeconds int    `toml:"poll_seconds"`
		Camera      struct {
			Device    string `toml:"device"`
			FrameRate int    `toml:"frame_rate"`
		} `toml:"camera"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.APIBase = strings.TrimSpace(raw.APIBase)
	if cfg.APIBase == "" {
		cfg.APIBase = defaultAPIBase
	}

	cfg.DataDir = strings.TrimSpace(raw.DataDir)
	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir
	}
	cfg.DataDir = mustExpand(cfg.DataDir)

	if raw.PollSeconds > 0 {
		cfg.PollSeconds = raw.PollSeconds
	}

	cfg.Camera.Device = strings.TrimSpace(raw.Camera.Device)
	cfg.Camera.FrameRate = raw.Camera.FrameRate
	if cfg.Camera.FrameRate <= 0 {
		cfg.Camera.FrameRate = defaultFrameRate
	}

	return cfg, nil
}

// SessionDBPath returns the path of the credential database.
func (c Config) SessionDBPath() string {
	if strings.TrimSpace(c.DataDir) == "" {
		return filepath.Join(mustExpand(defaultDataDir), "session.db")
	}
	return filepath.Join(c.DataDir, "session.db")
}

// LogPath returns the path of the client log file.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.DataDir) == "" {
		return filepath.Join(mustExpand(defaultDataDir), "kiosk.log")
	}
	return filepath.Join(c.DataDir, "kiosk.log")
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}

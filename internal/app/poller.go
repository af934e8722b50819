package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/returnloop/kiosk/internal/api"
	"github.com/returnloop/kiosk/internal/session"
	"github.com/returnloop/kiosk/internal/state"
)

const (
	defaultPollInterval = 5 * time.Second
	maxBackoff          = 30 * time.Second
)

// StartPoller launches a background goroutine that refreshes the store at a
// fixed cadence, backing off while the API is unreachable. It returns
// immediately.
func StartPoller(ctx context.Context, store *state.Store, client *api.Client, tokens api.TokenSource, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	go func() {
		for {
			refresh(ctx, store, client, tokens, logger)
			delay := calculateBackoff(store.Snapshot().ConsecutiveFailures, interval)
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
		}
	}()
}

// refresh fetches the signed-in user's return requests, plus statistics
// when the access token carries the staff flag. Polls are skipped entirely
// while no one is signed in.
func refresh(ctx context.Context, store *state.Store, client *api.Client, tokens api.TokenSource, logger *slog.Logger) {
	access, err := tokens.AccessToken(ctx)
	if err != nil || access == "" {
		return
	}

	items, err := client.ListReturns(ctx, "")
	if err != nil {
		store.Update(nil, nil, err)
		logger.Warn("return-requests poll failed", "error", err)
		return
	}

	var stats *api.Statistics
	if claims, err := session.ParseClaims(access); err == nil && claims.IsStaff {
		stats, err = client.Statistics(ctx)
		if err != nil {
			store.Update(nil, nil, err)
			logger.Warn("statistics poll failed", "error", err)
			return
		}
	}
	store.Update(items, stats, nil)
}

// calculateBackoff doubles the base interval per consecutive failure,
// capped at maxBackoff. Zero failures polls at the base interval.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	if failures > 16 {
		return maxBackoff
	}
	delay := base << uint(failures)
	if delay <= 0 || delay > maxBackoff {
		return maxBackoff
	}
	return delay
}

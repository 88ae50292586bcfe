package commands

import (
	"context"
	"log/slog"

	"intelstack/internal/domain"
	"intelstack/internal/ports"
)

// UpdateChecker decides whether a remote script is worth downloading by
// reading its .meta.js version probe
type UpdateChecker struct {
	fetcher ports.Fetcher
	logger  *slog.Logger
}

// NewUpdateChecker creates a new UpdateChecker
func NewUpdateChecker(fetcher ports.Fetcher, logger *slog.Logger) *UpdateChecker {
	if logger == nil {
		logger = slog.Default()
	}
	return &UpdateChecker{fetcher: fetcher, logger: logger}
}

// HasUpdate reports whether the probe at probeURL announces a version other
// than currentVersion. An unknown current version always needs an update.
// Fetch and decode failures are logged and reported as no update; the next
// run probes again.
func (c *UpdateChecker) HasUpdate(ctx context.Context, probeURL, currentVersion string) bool {
	if currentVersion == "" {
		return true
	}

	data, err := c.fetcher.Get(ctx, probeURL)
	if err != nil {
		c.logger.Debug("version probe failed", "url", probeURL, "error", err)
		return false
	}

	probe, err := domain.ParseVersionProbe(string(data))
	if err != nil {
		c.logger.Debug("version probe unreadable", "url", probeURL, "error", err)
		return false
	}

	return probe.Version != currentVersion
}

// Package pipeline hosts long-running background jobs supervised by the
// application runner.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yurikoeth/TokenSwapV1/internal/domain"
)

// Archiver periodically moves aged event-log entries to S3 cold storage.
type Archiver struct {
	archiver      domain.EventArchiver
	retentionDays int
	interval      time.Duration
	logger        *slog.Logger
}

// NewArchiver creates an Archiver that keeps retentionDays of events in the
// primary store and runs once per interval.
func NewArchiver(archiver domain.EventArchiver, retentionDays int, interval time.Duration, logger *slog.Logger) *Archiver {
	return &Archiver{
		archiver:      archiver,
		retentionDays: retentionDays,
		interval:      interval,
		logger:        logger.With(slog.String("component", "archiver")),
	}
}

// Run executes a single archive pass. The cutoff is retentionDays before now.
func (a *Archiver) Run(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-time.Duration(a.retentionDays) * 24 * time.Hour)
	a.logger.InfoContext(ctx, "starting archive run",
		slog.Time("cutoff", cutoff),
		slog.Int("retention_days", a.retentionDays),
	)

	archived, err := a.archiver.ArchiveEvents(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("archiving events before %v: %w", cutoff, err)
	}

	a.logger.InfoContext(ctx, "archive run complete", slog.Int64("events_archived", archived))
	return nil
}

// RunLoop runs archive passes on a fixed interval until the context is
// cancelled. A failed pass is logged and retried on the next tick.
func (a *Archiver) RunLoop(ctx context.Context) error {
	a.logger.InfoContext(ctx, "archiver started", slog.Duration("interval", a.interval))

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.InfoContext(ctx, "archiver stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := a.Run(ctx); err != nil {
				a.logger.ErrorContext(ctx, "archive run failed", slog.String("error", err.Error()))
			}
		}
	}
}

package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/weiawesome/wes-io-live/profile-service/internal/service"
)

// runSweeper removes orphaned avatar blobs every interval until ctx is done.
func runSweeper(ctx context.Context, avatars service.AvatarService, interval, minAge time.Duration, logger zerolog.Logger) {
	l := logger.With().Str("component", "orphan_sweeper").Logger()
	l.Info().Dur("interval", interval).Dur("min_age", minAge).Msg("orphan sweeper started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.Info().Msg("orphan sweeper stopped")
			return
		case <-ticker.C:
			deleted, err := avatars.SweepOrphans(ctx, minAge)
			if err != nil {
				l.Warn().Err(err).Int("deleted", deleted).Msg("orphan sweep finished with errors")
				continue
			}
			l.Info().Int("deleted", deleted).Msg("orphan sweep finished")
		}
	}
}

// Package sweep runs the periodic housekeeping of the data directory:
// expired kv entries are deleted and old journal sessions pruned.
package sweep

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Sweeper deletes expired kv entries.
type Sweeper interface {
	SweepExpired(ctx context.Context) error
}

// Pruner deletes journal entries recorded before a cutoff.
type Pruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// Once runs a single pass. A zero retention keeps the journal forever.
func Once(ctx context.Context, kv Sweeper, journal Pruner, retention time.Duration) {
	if kv != nil {
		if err := kv.SweepExpired(ctx); err != nil {
			log.Debug().Err(err).Msg("kv sweep failed")
		}
	}

	if journal == nil || retention <= 0 {
		return
	}
	n, err := journal.Prune(ctx, time.Now().Add(-retention))
	if err != nil {
		log.Debug().Err(err).Msg("journal prune failed")
		return
	}
	if n > 0 {
		log.Debug().Int64("entries", n).Msg("journal pruned")
	}
}

// Start runs a pass every interval until ctx is cancelled.
func Start(ctx context.Context, kv Sweeper, journal Pruner, interval, retention time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			Once(ctx, kv, journal, retention)
		}
	}
}

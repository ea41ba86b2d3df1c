// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

package history

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/crumb/internal/config"
	"github.com/tomtom215/crumb/internal/logging"
	"github.com/tomtom215/crumb/internal/metrics"
	"github.com/tomtom215/crumb/internal/models"
)

const maxReplayBackoff = 5 * time.Minute

type replayResult int

const (
	replaySkipped replayResult = iota
	replaySucceeded
	replayFailed
	replayDropped
)

// ReplayStats summarizes one pass over the spool.
type ReplayStats struct {
	Succeeded int
	Failed    int
	Dropped   int
	Skipped   int
}

// Replayer periodically re-appends spooled records to the Store.
//
// Each entry waits RetryInterval * 2^attempts (capped at five minutes)
// between tries and is dropped after MaxAttempts failures.
type Replayer struct {
	spool        *Spool
	store        Store
	interval     time.Duration
	maxAttempts  int
	writeTimeout time.Duration
	now          func() time.Time
	log          zerolog.Logger
}

// NewReplayer creates a Replayer draining spool into store.
func NewReplayer(spool *Spool, store Store, cfg *config.SpoolConfig, writeTimeout time.Duration) *Replayer {
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	interval := cfg.RetryInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Replayer{
		spool:        spool,
		store:        store,
		interval:     interval,
		maxAttempts:  cfg.MaxAttempts,
		writeTimeout: writeTimeout,
		now:          time.Now,
		log:          logging.WithComponent("history-replay"),
	}
}

// Serve implements suture.Service. A pass runs at start-up and then on
// every tick.
func (r *Replayer) Serve(ctx context.Context) error {
	r.log.Info().
		Dur("interval", r.interval).
		Int("max_attempts", r.maxAttempts).
		Msg("History replay loop started")

	r.ReplayOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("History replay loop stopped")
			return ctx.Err()
		case <-ticker.C:
			r.ReplayOnce(ctx)
		}
	}
}

// String implements fmt.Stringer for suture logging.
func (r *Replayer) String() string {
	return "history-replayer"
}

// ReplayOnce makes one pass over the spool.
func (r *Replayer) ReplayOnce(ctx context.Context) ReplayStats {
	var stats ReplayStats

	entries, err := r.spool.Pending(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to read spool")
		return stats
	}
	metrics.SpoolPending.Set(float64(len(entries)))
	if len(entries) == 0 {
		return stats
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		switch r.process(ctx, entry) {
		case replaySucceeded:
			stats.Succeeded++
		case replayFailed:
			stats.Failed++
		case replayDropped:
			stats.Dropped++
		default:
			stats.Skipped++
		}
	}

	if stats.Succeeded > 0 || stats.Failed > 0 || stats.Dropped > 0 {
		r.log.Info().
			Int("succeeded", stats.Succeeded).
			Int("failed", stats.Failed).
			Int("dropped", stats.Dropped).
			Int("waiting", stats.Skipped).
			Msg("History replay complete")
	}
	return stats
}

func (r *Replayer) process(ctx context.Context, entry *SpoolEntry) replayResult {
	if r.maxAttempts > 0 && entry.Attempts >= r.maxAttempts {
		r.log.Warn().
			Str("spool_id", entry.ID).
			Int64("user_id", entry.Record.UserID).
			Str("query", entry.Record.Query).
			Int("attempts", entry.Attempts).
			Str("last_error", entry.LastError).
			Msg("Search history record exceeded replay attempts, dropping")
		return r.drop(entry)
	}

	if !r.isReady(entry) {
		return replaySkipped
	}

	writeCtx, cancel := context.WithTimeout(ctx, r.writeTimeout)
	_, err := r.store.Append(writeCtx, entry.Record)
	cancel()

	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			r.log.Warn().Err(err).Str("spool_id", entry.ID).Msg("Spooled record is invalid, dropping")
			return r.drop(entry)
		}
		r.log.Error().Err(err).
			Str("spool_id", entry.ID).
			Int("attempt", entry.Attempts+1).
			Msg("Search history replay failed")
		if markErr := r.spool.MarkAttempt(entry.ID, err); markErr != nil {
			r.log.Error().Err(markErr).Str("spool_id", entry.ID).Msg("Failed to record replay attempt")
		}
		return replayFailed
	}

	metrics.RecordHistoryWrite(outcomeReplayed)
	if err := r.spool.Ack(entry.ID); err != nil {
		// The record is stored; a failed ack means it may be written twice.
		r.log.Error().Err(err).Str("spool_id", entry.ID).Msg("Failed to remove replayed spool entry")
	}
	return replaySucceeded
}

func (r *Replayer) drop(entry *SpoolEntry) replayResult {
	metrics.RecordHistoryWrite(outcomeDropped)
	if err := r.spool.Ack(entry.ID); err != nil {
		r.log.Error().Err(err).Str("spool_id", entry.ID).Msg("Failed to remove dropped spool entry")
	}
	return replayDropped
}

func (r *Replayer) isReady(entry *SpoolEntry) bool {
	if entry.LastAttemptAt.IsZero() {
		return true
	}
	return r.now().Sub(entry.LastAttemptAt) >= r.backoff(entry.Attempts)
}

// backoff returns interval * 2^attempts, capped.
func (r *Replayer) backoff(attempts int) time.Duration {
	if attempts > 30 {
		return maxReplayBackoff
	}
	d := time.Duration(float64(r.interval) * math.Pow(2, float64(attempts)))
	if d <= 0 || d > maxReplayBackoff {
		return maxReplayBackoff
	}
	return d
}

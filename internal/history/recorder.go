// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

package history

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/crumb/internal/config"
	"github.com/tomtom215/crumb/internal/logging"
	"github.com/tomtom215/crumb/internal/metrics"
	"github.com/tomtom215/crumb/internal/models"
)

// Write outcome labels.
const (
	outcomeOK       = "ok"
	outcomeFailed   = "failed"
	outcomeSpooled  = "spooled"
	outcomeDropped  = "dropped"
	outcomeReplayed = "replayed"
)

const defaultWriteTimeout = 5 * time.Second

// Spooler parks records whose write failed. *Spool satisfies it.
type Spooler interface {
	Put(rec models.SearchHistoryRecord, cause error) (string, error)
}

// Recorder writes history records in the background.
//
// Record never blocks the caller. Serve drains the queue into the Store and
// implements suture.Service. A record that cannot be written is handed to
// the Spooler if one is configured, otherwise it is logged and dropped.
type Recorder struct {
	store        Store
	spool        Spooler
	queue        chan models.SearchHistoryRecord
	writeTimeout time.Duration
	log          zerolog.Logger
}

// NewRecorder builds a Recorder. Pass a nil spool to drop failed writes.
func NewRecorder(store Store, spool Spooler, cfg *config.HistoryConfig) *Recorder {
	size := cfg.QueueSize
	if size < 1 {
		size = 1
	}
	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}
	return &Recorder{
		store:        store,
		spool:        spool,
		queue:        make(chan models.SearchHistoryRecord, size),
		writeTimeout: timeout,
		log:          logging.WithComponent("history"),
	}
}

// Record enqueues rec and returns immediately. It reports whether the
// record was accepted; a full queue falls through to the spool.
func (r *Recorder) Record(ctx context.Context, rec models.SearchHistoryRecord) bool {
	if err := rec.Validate(); err != nil {
		metrics.RecordHistoryWrite(outcomeDropped)
		logging.Ctx(ctx).Warn().Err(err).Str("component", "history").Int64("user_id", rec.UserID).
			Msg("Dropping invalid search history record")
		return false
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	select {
	case r.queue <- rec:
		metrics.HistoryQueueDepth.Set(float64(len(r.queue)))
		return true
	default:
		logging.Ctx(ctx).Warn().Str("component", "history").Int64("user_id", rec.UserID).
			Int("queue_size", cap(r.queue)).Msg("History queue full")
		r.fail(rec, errors.New("history queue full"))
		return false
	}
}

// Serve implements suture.Service. On shutdown the remaining queue is
// written before returning.
func (r *Recorder) Serve(ctx context.Context) error {
	r.log.Info().Int("queue_size", cap(r.queue)).Msg("History recorder started")

	for {
		select {
		case rec := <-r.queue:
			metrics.HistoryQueueDepth.Set(float64(len(r.queue)))
			r.write(ctx, rec)
		case <-ctx.Done():
			r.drain(ctx)
			return ctx.Err()
		}
	}
}

// String implements fmt.Stringer for suture logging.
func (r *Recorder) String() string {
	return "history-recorder"
}

// Queued returns the number of records waiting to be written.
func (r *Recorder) Queued() int {
	return len(r.queue)
}

// Flush writes every queued record on the calling goroutine. Call it after
// the HTTP server has stopped so records enqueued by the last requests,
// after Serve returned, are not lost.
func (r *Recorder) Flush(ctx context.Context) {
	r.drain(ctx)
}

func (r *Recorder) drain(ctx context.Context) {
	n := 0
	for {
		select {
		case rec := <-r.queue:
			r.write(ctx, rec)
			n++
		default:
			metrics.HistoryQueueDepth.Set(0)
			if n > 0 {
				r.log.Info().Int("records", n).Msg("Drained history queue")
			}
			return
		}
	}
}

// write appends rec with its own timeout, independent of the caller.
func (r *Recorder) write(ctx context.Context, rec models.SearchHistoryRecord) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.writeTimeout)
	defer cancel()

	if _, err := r.store.Append(writeCtx, rec); err != nil {
		if errors.Is(err, models.ErrValidation) {
			metrics.RecordHistoryWrite(outcomeDropped)
			r.log.Warn().Err(err).Int64("user_id", rec.UserID).Msg("Store rejected search history record")
			return
		}
		metrics.RecordHistoryWrite(outcomeFailed)
		r.log.Error().Err(err).Int64("user_id", rec.UserID).Str("query", rec.Query).
			Msg("Failed to write search history")
		r.fail(rec, err)
		return
	}
	metrics.RecordHistoryWrite(outcomeOK)
}

func (r *Recorder) fail(rec models.SearchHistoryRecord, cause error) {
	if r.spool == nil {
		metrics.RecordHistoryWrite(outcomeDropped)
		r.log.Warn().Int64("user_id", rec.UserID).Str("query", rec.Query).
			Msg("No spool configured, search history record dropped")
		return
	}

	id, err := r.spool.Put(rec, cause)
	if err != nil {
		metrics.RecordHistoryWrite(outcomeDropped)
		r.log.Error().Err(err).Int64("user_id", rec.UserID).Str("query", rec.Query).
			Msg("Failed to spool search history record, dropped")
		return
	}
	metrics.RecordHistoryWrite(outcomeSpooled)
	r.log.Debug().Str("spool_id", id).Int64("user_id", rec.UserID).Msg("Search history record spooled")
}

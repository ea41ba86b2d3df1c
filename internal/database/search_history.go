// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/crumb/internal/logging"
	"github.com/tomtom215/crumb/internal/models"
)

const maxAppendRetries = 3

// Append inserts rec and returns it with the generated id. A zero
// CreatedAt is set to the current time.
func (db *DB) Append(ctx context.Context, rec models.SearchHistoryRecord) (models.SearchHistoryRecord, error) {
	if err := rec.Validate(); err != nil {
		return models.SearchHistoryRecord{}, err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC()

	ctx, cancel := ensureContext(ctx)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt < maxAppendRetries; attempt++ {
		id, err := db.insertHistory(ctx, &rec)
		if err == nil {
			rec.ID = id
			return rec, nil
		}
		lastErr = err

		if ctx.Err() != nil || !isTransactionConflict(err) {
			break
		}
		wait := time.Millisecond * time.Duration(1<<uint(attempt)) // 1ms, 2ms, 4ms
		select {
		case <-time.After(wait):
		case <-ctx.Done():
		}
	}

	return models.SearchHistoryRecord{}, db.persistenceError("append search history", lastErr)
}

func (db *DB) insertHistory(ctx context.Context, rec *models.SearchHistoryRecord) (int64, error) {
	var lat, lng sql.NullFloat64
	if rec.Coordinate != nil {
		lat = sql.NullFloat64{Float64: rec.Coordinate.Latitude, Valid: true}
		lng = sql.NullFloat64{Float64: rec.Coordinate.Longitude, Valid: true}
	}

	var id int64
	err := db.conn.QueryRowContext(ctx, `
		INSERT INTO search_history (user_id, query, latitude, longitude, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`,
		rec.UserID, rec.Query, lat, lng, rec.CreatedAt,
	).Scan(&id)
	return id, err
}

// RecentByUser returns up to k records for userID, newest first. Records
// sharing a timestamp are ordered by id descending.
func (db *DB) RecentByUser(ctx context.Context, userID int64, k int) ([]models.SearchHistoryRecord, error) {
	if k < 1 {
		return []models.SearchHistoryRecord{}, nil
	}

	ctx, cancel := ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, user_id, query, latitude, longitude, created_at
		FROM search_history
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`,
		userID, k,
	)
	if err != nil {
		return nil, db.persistenceError("read search history", err)
	}
	defer closeWithLog(rows, "rows")

	records := make([]models.SearchHistoryRecord, 0, k)
	for rows.Next() {
		var (
			rec      models.SearchHistoryRecord
			lat, lng sql.NullFloat64
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Query, &lat, &lng, &rec.CreatedAt); err != nil {
			return nil, db.persistenceError("scan search history", err)
		}
		if lat.Valid && lng.Valid {
			rec.Coordinate = &models.Coordinate{Latitude: lat.Float64, Longitude: lng.Float64}
		}
		rec.CreatedAt = rec.CreatedAt.UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, db.persistenceError("read search history", err)
	}
	return records, nil
}

// CountSince counts records for userID created at or after since.
func (db *DB) CountSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM search_history WHERE user_id = ? AND created_at >= ?`,
		userID, since.UTC(),
	).Scan(&n)
	if err != nil {
		return 0, db.persistenceError("count search history", err)
	}
	return n, nil
}

func (db *DB) persistenceError(op string, err error) error {
	if isConnectionError(err) {
		logging.Error().Err(err).Str("op", op).Msg("Search history database connection lost")
	}
	return models.NewPersistenceError(op, fmt.Errorf("duckdb: %w", err))
}

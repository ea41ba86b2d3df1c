// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

// Package history persists keyword searches per user and replays failed
// writes.
//
// Writes are asynchronous: the search path hands a record to the Recorder
// and returns. The Recorder appends to the Store on its own goroutine; when
// an append fails and a Spool is configured, the record is parked in
// BadgerDB and the Replayer re-appends it later.
//
// Reads (RecentByUser) go straight to the Store.
package history

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/tomtom215/crumb/internal/models"
)

// ErrStoreClosed is returned by a Store after Close.
var ErrStoreClosed = errors.New("history store is closed")

// Store is the search history persistence contract.
//
// RecentByUser returns at most k records for userID ordered by CreatedAt
// descending, ties broken by ID descending. An unknown user yields an empty
// slice. Failures are reported as *models.PersistenceError.
type Store interface {
	Append(ctx context.Context, rec models.SearchHistoryRecord) (models.SearchHistoryRecord, error)
	RecentByUser(ctx context.Context, userID int64, k int) ([]models.SearchHistoryRecord, error)
	CountSince(ctx context.Context, userID int64, since time.Time) (int, error)
}

// MemoryStore is an in-process Store. Used for tests and the "memory"
// backend.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[int64][]models.SearchHistoryRecord
	nextID  int64
	closed  bool
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[int64][]models.SearchHistoryRecord),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Append validates rec, assigns an ID and stores it. A zero CreatedAt is
// set to the current time.
func (m *MemoryStore) Append(ctx context.Context, rec models.SearchHistoryRecord) (models.SearchHistoryRecord, error) {
	if err := rec.Validate(); err != nil {
		return models.SearchHistoryRecord{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.SearchHistoryRecord{}, models.NewPersistenceError("append search history", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return models.SearchHistoryRecord{}, models.NewPersistenceError("append search history", ErrStoreClosed)
	}

	m.nextID++
	rec.ID = m.nextID
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = m.now()
	}
	if rec.Coordinate != nil {
		c := *rec.Coordinate
		rec.Coordinate = &c
	}
	m.records[rec.UserID] = append(m.records[rec.UserID], rec)
	return rec, nil
}

// RecentByUser returns the k most recent records for userID.
func (m *MemoryStore) RecentByUser(ctx context.Context, userID int64, k int) ([]models.SearchHistoryRecord, error) {
	if k < 1 {
		return []models.SearchHistoryRecord{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, models.NewPersistenceError("read search history", err)
	}

	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return nil, models.NewPersistenceError("read search history", ErrStoreClosed)
	}
	out := slices.Clone(m.records[userID])
	m.mu.RUnlock()

	SortNewestFirst(out)
	if len(out) > k {
		out = out[:k]
	}
	if out == nil {
		out = []models.SearchHistoryRecord{}
	}
	return out, nil
}

// CountSince counts records for userID created at or after since.
func (m *MemoryStore) CountSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, models.NewPersistenceError("count search history", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return 0, models.NewPersistenceError("count search history", ErrStoreClosed)
	}

	n := 0
	for i := range m.records[userID] {
		if !m.records[userID][i].CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// Len returns the total number of stored records.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, recs := range m.records {
		n += len(recs)
	}
	return n
}

// Close makes every later call fail with ErrStoreClosed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// SortNewestFirst orders records by CreatedAt descending, then ID descending.
func SortNewestFirst(recs []models.SearchHistoryRecord) {
	slices.SortFunc(recs, func(a, b models.SearchHistoryRecord) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
}

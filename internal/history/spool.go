// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/crumb/internal/config"
	"github.com/tomtom215/crumb/internal/logging"
	"github.com/tomtom215/crumb/internal/metrics"
	"github.com/tomtom215/crumb/internal/models"
)

// Spool errors.
var (
	ErrSpoolClosed   = errors.New("spool is closed")
	ErrEntryNotFound = errors.New("spool entry not found")
)

const spoolPrefix = "pending:"

// SpoolEntry is a history record whose write failed, waiting to be replayed.
type SpoolEntry struct {
	ID            string                     `json:"id"`
	Record        models.SearchHistoryRecord `json:"record"`
	CreatedAt     time.Time                  `json:"created_at"`
	Attempts      int                        `json:"attempts"`
	LastAttemptAt time.Time                  `json:"last_attempt_at,omitempty"`
	LastError     string                     `json:"last_error,omitempty"`
}

// Spool is a BadgerDB-backed queue of failed history writes.
//
// Entry IDs are UUIDv7 so a prefix scan returns entries oldest first.
type Spool struct {
	db     *badger.DB
	mu     sync.RWMutex
	closed bool
}

// OpenSpool opens (or creates) the spool at cfg.Path.
func OpenSpool(cfg *config.SpoolConfig) (*Spool, error) {
	if cfg.Path == "" {
		return nil, errors.New("spool path is required")
	}

	opts := badger.DefaultOptions(cfg.Path)
	opts.SyncWrites = cfg.SyncWrites
	opts.Logger = nil

	return openSpool(opts, cfg)
}

// OpenMemorySpool opens a spool that lives only in memory.
func OpenMemorySpool() (*Spool, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return openSpool(opts, &config.SpoolConfig{Path: ":memory:"})
}

func openSpool(opts badger.Options, cfg *config.SpoolConfig) (*Spool, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open spool: %w", err)
	}

	s := &Spool{db: db}
	if n, err := s.count(); err == nil {
		metrics.SpoolPending.Set(float64(n))
		logging.Info().
			Str("path", cfg.Path).
			Bool("sync_writes", cfg.SyncWrites).
			Int("pending", n).
			Msg("History spool opened")
	}
	return s, nil
}

// Put parks rec for a later replay and returns the entry ID.
func (s *Spool) Put(rec models.SearchHistoryRecord, cause error) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", ErrSpoolClosed
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate spool id: %w", err)
	}

	entry := &SpoolEntry{
		ID:        id.String(),
		Record:    rec,
		CreatedAt: time.Now().UTC(),
	}
	if cause != nil {
		entry.LastError = cause.Error()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("marshal spool entry: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(spoolPrefix+entry.ID), data)
	})
	if err != nil {
		return "", fmt.Errorf("write spool entry: %w", err)
	}

	metrics.SpoolPending.Inc()
	return entry.ID, nil
}

// Pending returns every spooled entry, oldest first.
func (s *Spool) Pending(ctx context.Context) ([]*SpoolEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrSpoolClosed
	}

	var entries []*SpoolEntry
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(spoolPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var entry SpoolEntry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				logging.Warn().Err(err).Str("key", string(it.Item().Key())).
					Msg("Skipping corrupt spool entry")
				continue
			}
			entries = append(entries, &entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read spool: %w", err)
	}
	return entries, nil
}

// MarkAttempt records a failed replay of entry id.
func (s *Spool) MarkAttempt(id string, cause error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSpoolClosed
	}

	key := []byte(spoolPrefix + id)
	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrEntryNotFound
		}
		if err != nil {
			return fmt.Errorf("get spool entry: %w", err)
		}

		var entry SpoolEntry
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		}); err != nil {
			return fmt.Errorf("unmarshal spool entry: %w", err)
		}

		entry.Attempts++
		entry.LastAttemptAt = time.Now().UTC()
		if cause != nil {
			entry.LastError = cause.Error()
		}

		data, err := json.Marshal(&entry)
		if err != nil {
			return fmt.Errorf("marshal spool entry: %w", err)
		}
		return txn.Set(key, data)
	})
}

// Ack removes entry id from the spool.
func (s *Spool) Ack(id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSpoolClosed
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(spoolPrefix + id))
	})
	if err != nil {
		return fmt.Errorf("delete spool entry: %w", err)
	}
	metrics.SpoolPending.Dec()
	return nil
}

// Len returns the number of spooled entries.
func (s *Spool) Len() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrSpoolClosed
	}
	return s.count()
}

func (s *Spool) count() (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(spoolPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Close closes the underlying database. Safe to call twice.
func (s *Spool) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	logging.Info().Msg("Closing history spool")
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close spool: %w", err)
	}
	return nil
}

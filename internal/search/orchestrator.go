// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

// Package search serves the two search use cases: nearby bakeries merged
// from every provider, and a user's free-text keyword search which is also
// recorded in their history.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/crumb/internal/config"
	"github.com/tomtom215/crumb/internal/logging"
	"github.com/tomtom215/crumb/internal/models"
	"github.com/tomtom215/crumb/internal/provider"
)

// KeywordSearcher is the provider used for keyword search.
// *provider.KakaoClient satisfies it.
type KeywordSearcher interface {
	SearchKeyword(ctx context.Context, q provider.KeywordQuery) ([]models.SearchResult, error)
	MaxRadius() int
}

// HistoryRecorder accepts history records without blocking.
// *history.Recorder satisfies it.
type HistoryRecorder interface {
	Record(ctx context.Context, rec models.SearchHistoryRecord) bool
}

// Orchestrator runs a keyword search and records it.
type Orchestrator struct {
	searcher      KeywordSearcher
	recorder      HistoryRecorder
	defaultRadius int
	pageSize      int
	now           func() time.Time
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(searcher KeywordSearcher, recorder HistoryRecorder, cfg *config.SearchConfig) *Orchestrator {
	return &Orchestrator{
		searcher:      searcher,
		recorder:      recorder,
		defaultRadius: cfg.DefaultRadius,
		pageSize:      cfg.PageSize,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// SearchAndRecord searches for query near origin and, when the provider
// answers, enqueues one history record for userID. The record is written in
// the background; the results are returned without waiting for it.
//
// A provider failure is returned (wrapped) and nothing is recorded.
func (o *Orchestrator) SearchAndRecord(ctx context.Context, userID int64, query string, origin *models.Coordinate, radiusMeters *int) ([]models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if err := models.ValidateQuery(query); err != nil {
		return nil, err
	}
	if userID <= 0 {
		return nil, models.NewValidationError("user_id", "user id must be positive")
	}
	if origin != nil {
		if err := origin.Validate(); err != nil {
			return nil, err
		}
	}

	radius := o.defaultRadius
	if radiusMeters != nil {
		if *radiusMeters < 0 {
			return nil, models.NewValidationError("radius", fmt.Sprintf("radius must not be negative, got %d", *radiusMeters))
		}
		radius = *radiusMeters
	}
	if maxRadius := o.searcher.MaxRadius(); maxRadius > 0 && radius > maxRadius {
		radius = maxRadius
	}

	results, err := o.searcher.SearchKeyword(ctx, provider.KeywordQuery{
		Query:        query,
		Origin:       origin,
		RadiusMeters: radius,
		Size:         o.pageSize,
	})
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("component", "search").Int64("user_id", userID).
			Str("query", query).Msg("Keyword search failed")
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	rec := models.SearchHistoryRecord{
		UserID:    userID,
		Query:     query,
		CreatedAt: o.now(),
	}
	if origin != nil {
		c := *origin
		rec.Coordinate = &c
	}
	o.recorder.Record(ctx, rec)

	logging.Ctx(ctx).Debug().Str("component", "search").Int64("user_id", userID).
		Str("query", query).Int("results", len(results)).Msg("Keyword search completed")
	return results, nil
}

// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

// Package recommend derives keywords from a user's search history and asks
// the external recommendation service for bakeries. Scores are computed
// upstream; this package only transports them.
package recommend

import (
	"context"

	"github.com/tomtom215/crumb/internal/config"
	"github.com/tomtom215/crumb/internal/logging"
	"github.com/tomtom215/crumb/internal/models"
)

// HistoryReader is the read side of the search history store.
type HistoryReader interface {
	RecentByUser(ctx context.Context, userID int64, k int) ([]models.SearchHistoryRecord, error)
}

// Service produces personalized recommendations.
type Service struct {
	history      HistoryReader
	fetcher      *Fetcher
	window       int
	keywordCount int
}

// NewService wires a Service from configuration.
func NewService(history HistoryReader, fetcher *Fetcher, cfg *config.RecommendConfig) *Service {
	return &Service{
		history:      history,
		fetcher:      fetcher,
		window:       cfg.HistoryWindow,
		keywordCount: cfg.KeywordCount,
	}
}

// Recommend reads the user's recent searches, extracts keywords and fetches
// recommendations near origin. It never fails; a history read error is
// logged and the fetch proceeds without keywords.
func (s *Service) Recommend(ctx context.Context, userID int64, origin models.Coordinate) []models.RecommendedItem {
	var keywords []string

	records, err := s.history.RecentByUser(ctx, userID, s.window)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("component", "recommend").Int64("user_id", userID).
			Msg("Failed to read search history, recommending without keywords")
	} else {
		keywords = ExtractKeywords(records, s.keywordCount)
	}

	logging.Ctx(ctx).Debug().Str("component", "recommend").Int("history", len(records)).
		Strs("keywords", keywords).Msg("Fetching recommendations")

	return s.fetcher.Fetch(ctx, origin, keywords, 0)
}

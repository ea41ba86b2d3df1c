// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

package api

import (
	"context"
	"time"

	"github.com/tomtom215/crumb/internal/models"
	"github.com/tomtom215/crumb/internal/search"
)

// Version is reported by the health endpoints.
var Version = "dev"

// BakeryFinder lists nearby bakeries across providers.
type BakeryFinder interface {
	Nearby(ctx context.Context, q search.NearbyQuery) ([]models.Candidate, error)
}

// KeywordSearcher runs a keyword search and records it to history.
type KeywordSearcher interface {
	SearchAndRecord(ctx context.Context, userID int64, query string, origin *models.Coordinate, radiusMeters *int) ([]models.SearchResult, error)
}

// HistoryReader is the read side of the history store.
type HistoryReader interface {
	RecentByUser(ctx context.Context, userID int64, k int) ([]models.SearchHistoryRecord, error)
	CountSince(ctx context.Context, userID int64, since time.Time) (int, error)
}

// Recommender produces personalized recommendations. It never fails.
type Recommender interface {
	Recommend(ctx context.Context, userID int64, origin models.Coordinate) []models.RecommendedItem
}

// Pinger checks a storage backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SpoolCounter reports failed history writes awaiting replay.
type SpoolCounter interface {
	Len() (int, error)
}

// BreakerReporter reports provider circuit breaker states by name.
type BreakerReporter interface {
	BreakerStates() map[string]string
}

// Dependencies are the services the handlers call. Database, Spool and
// Breakers are optional.
type Dependencies struct {
	Bakeries       BakeryFinder
	Search         KeywordSearcher
	History        HistoryReader
	Recommend      Recommender
	Database       Pinger
	Spool          SpoolCounter
	Breakers       BreakerReporter
	HistoryBackend string
}

// Handler contains dependencies for API handlers.
type Handler struct {
	bakeries       BakeryFinder
	search         KeywordSearcher
	history        HistoryReader
	recommend      Recommender
	db             Pinger
	spool          SpoolCounter
	breakers       BreakerReporter
	historyBackend string
	startTime      time.Time
	now            func() time.Time
}

// NewHandler creates a Handler.
func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		bakeries:       deps.Bakeries,
		search:         deps.Search,
		history:        deps.History,
		recommend:      deps.Recommend,
		db:             deps.Database,
		spool:          deps.Spool,
		breakers:       deps.Breakers,
		historyBackend: deps.HistoryBackend,
		startTime:      time.Now(),
		now:            time.Now,
	}
}

// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

package search

import (
	"context"
	"fmt"

	"github.com/tomtom215/crumb/internal/aggregate"
	"github.com/tomtom215/crumb/internal/config"
	"github.com/tomtom215/crumb/internal/logging"
	"github.com/tomtom215/crumb/internal/models"
)

// CandidateSource fans a nearby search out to every provider.
// *provider.Registry satisfies it.
type CandidateSource interface {
	SearchAll(ctx context.Context, origin models.Coordinate, radiusMeters int) [][]models.Candidate
}

// NearbyQuery is a request for bakeries around Origin. Nil Radius and
// Limit select the defaults; an empty Sort means distance.
type NearbyQuery struct {
	Origin models.Coordinate
	Radius *int
	Sort   models.SortKey
	Limit  *int
}

// BakeryService lists bakeries near a point across all providers.
type BakeryService struct {
	source        CandidateSource
	defaultRadius int
	minRadius     int
	maxRadius     int
	maxLimit      int
}

// NewBakeryService creates a BakeryService.
func NewBakeryService(source CandidateSource, cfg *config.BakeryConfig) *BakeryService {
	return &BakeryService{
		source:        source,
		defaultRadius: cfg.DefaultRadius,
		minRadius:     cfg.MinRadius,
		maxRadius:     cfg.MaxRadius,
		maxLimit:      cfg.MaxLimit,
	}
}

// Nearby validates q, queries every provider concurrently and merges the
// results. Provider failures shrink the result; they never fail the call.
func (s *BakeryService) Nearby(ctx context.Context, q NearbyQuery) ([]models.Candidate, error) {
	if err := q.Origin.Validate(); err != nil {
		return nil, err
	}

	radius := s.defaultRadius
	if q.Radius != nil {
		radius = *q.Radius
	}
	if radius < s.minRadius || radius > s.maxRadius {
		return nil, models.NewValidationError("radius",
			fmt.Sprintf("radius must be between %d and %d, got %d", s.minRadius, s.maxRadius, radius))
	}

	sortKey := q.Sort
	if sortKey == "" {
		sortKey = models.SortByDistance
	}
	if !sortKey.Valid() {
		return nil, models.NewValidationError("sort",
			fmt.Sprintf("unknown sort key %q (allowed: distance, rating)", q.Sort))
	}

	if q.Limit != nil && *q.Limit <= 0 {
		return nil, models.NewValidationError("limit", fmt.Sprintf("limit must be positive, got %d", *q.Limit))
	}
	if q.Limit != nil && s.maxLimit > 0 && *q.Limit > s.maxLimit {
		return nil, models.NewValidationError("limit",
			fmt.Sprintf("limit must be at most %d, got %d", s.maxLimit, *q.Limit))
	}

	lists := s.source.SearchAll(ctx, q.Origin, radius)
	merged, err := aggregate.Aggregate(lists, q.Origin, sortKey, q.Limit)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, l := range lists {
		total += len(l)
	}
	logging.Ctx(ctx).Debug().Str("component", "search").Str("origin", q.Origin.String()).
		Int("radius", radius).Int("candidates", total).Int("results", len(merged)).
		Msg("Nearby bakery search completed")
	return merged, nil
}

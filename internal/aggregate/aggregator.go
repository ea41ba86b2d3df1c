// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

// Package aggregate merges candidate lists from several providers into one
// deduplicated, ranked result. Aggregate is a pure function and safe for
// concurrent use.
package aggregate

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/tomtom215/crumb/internal/geo"
	"github.com/tomtom215/crumb/internal/metrics"
	"github.com/tomtom215/crumb/internal/models"
)

// DuplicateRadiusMeters is the distance below which two candidates with the
// same name key are treated as the same place.
const DuplicateRadiusMeters = 80.0

// Aggregate concatenates lists in order, drops duplicates (first seen wins),
// fills DistanceMeters from origin, sorts stably by sortKey and truncates to
// limit when limit is non-nil.
//
// A non-positive limit, an invalid origin or an unknown sort key is a
// ValidationError. The input candidates are not modified.
func Aggregate(lists [][]models.Candidate, origin models.Coordinate, sortKey models.SortKey, limit *int) ([]models.Candidate, error) {
	if limit != nil && *limit <= 0 {
		return nil, models.NewValidationError("limit", fmt.Sprintf("limit must be positive, got %d", *limit))
	}
	if err := origin.Validate(); err != nil {
		return nil, err
	}
	if sortKey == "" {
		sortKey = models.SortByDistance
	}
	if !sortKey.Valid() {
		return nil, models.NewValidationError("sort", fmt.Sprintf("unknown sort key %q", sortKey))
	}

	kept := dedupe(lists)

	for i := range kept {
		d := geo.DistanceMeters(origin, kept[i].Coordinate)
		kept[i].DistanceMeters = &d
	}

	switch sortKey {
	case models.SortByRating:
		slices.SortStableFunc(kept, compareRating)
	default:
		slices.SortStableFunc(kept, compareDistance)
	}

	if limit != nil && len(kept) > *limit {
		kept = kept[:*limit]
	}
	return kept, nil
}

type keyed struct {
	key   string
	coord models.Coordinate
}

// dedupe returns copies of the first-seen candidates. Comparison is
// quadratic in the number kept, which stays small per request.
func dedupe(lists [][]models.Candidate) []models.Candidate {
	total := 0
	for _, l := range lists {
		total += len(l)
	}

	out := make([]models.Candidate, 0, total)
	seen := make([]keyed, 0, total)
	dropped := 0

	for _, list := range lists {
		for _, c := range list {
			key := NormalizeName(c.Name)
			if isDuplicate(seen, key, c.Coordinate) {
				dropped++
				continue
			}
			seen = append(seen, keyed{key: key, coord: c.Coordinate})
			out = append(out, c)
		}
	}

	if dropped > 0 {
		metrics.AggregateDuplicatesDropped.Add(float64(dropped))
	}
	return out
}

func isDuplicate(seen []keyed, key string, coord models.Coordinate) bool {
	for _, s := range seen {
		if s.key == key && geo.Within(s.coord, coord, DuplicateRadiusMeters) {
			return true
		}
	}
	return false
}

// NormalizeName builds the dedup key: NFKC, all Unicode whitespace removed,
// then case-folded.
func NormalizeName(name string) string {
	s := norm.NFKC.String(name)
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	return cases.Fold().String(s)
}

func compareDistance(a, b models.Candidate) int {
	return cmp.Compare(*a.DistanceMeters, *b.DistanceMeters)
}

// compareRating orders by rating descending; missing ratings sort last.
func compareRating(a, b models.Candidate) int {
	switch {
	case a.Rating == nil && b.Rating == nil:
		return 0
	case a.Rating == nil:
		return 1
	case b.Rating == nil:
		return -1
	default:
		return cmp.Compare(*b.Rating, *a.Rating)
	}
}

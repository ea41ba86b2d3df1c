// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

package models

import (
	"fmt"
	"strings"
)

// Provider identifies an upstream place-search API.
type Provider string

const (
	ProviderKakao  Provider = "KAKAO"
	ProviderGoogle Provider = "GOOGLE"
)

// IDPrefix is prepended to provider-local identifiers so that ExternalID is
// unique inside the provider namespace, e.g. "KAKAO_12345".
func (p Provider) IDPrefix() string {
	return string(p) + "_"
}

// Candidate is a place record after provider normalization and before
// deduplication. ExternalID is unique per provider only; the same bakery
// reported by two providers yields two candidates with different IDs.
type Candidate struct {
	ExternalID     string     `json:"id"`
	Name           string     `json:"name"`
	Address        string     `json:"address"`
	Coordinate     Coordinate `json:"coordinate"`
	Provider       Provider   `json:"provider"`
	Rating         *float64   `json:"rating,omitempty"`
	RatingCount    *int       `json:"user_ratings_total,omitempty"`
	Phone          *string    `json:"phone,omitempty"`
	DetailURL      *string    `json:"place_url,omitempty"`
	DistanceMeters *float64   `json:"distance_meters,omitempty"`
}

// SortKey selects the ordering applied by the aggregator.
type SortKey string

const (
	SortByDistance SortKey = "distance"
	SortByRating   SortKey = "rating"
)

// ParseSortKey maps a user supplied sort parameter to a SortKey. An empty
// string selects SortByDistance.
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortByDistance:
		return SortByDistance, nil
	case SortByRating:
		return SortByRating, nil
	default:
		return "", NewValidationError("sort", fmt.Sprintf("unknown sort key %q (allowed: distance, rating)", s))
	}
}

// Valid reports whether k is one of the known sort keys.
func (k SortKey) Valid() bool {
	return k == SortByDistance || k == SortByRating
}

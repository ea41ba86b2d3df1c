// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

package models

// RecommendedItem is a bakery returned by the recommendation service.
// Scores are computed upstream; Score is passed through for display only.
type RecommendedItem struct {
	ID             int64    `json:"id"`
	Name           string   `json:"name"`
	Address        string   `json:"address"`
	Latitude       *float64 `json:"lat"`
	Longitude      *float64 `json:"lng"`
	Intro          *string  `json:"intro,omitempty"`
	DistanceMeters *float64 `json:"distance,omitempty"`
	Score          *float64 `json:"score,omitempty"`
	ThumbnailURL   *string  `json:"thumbnailUrl,omitempty"`
}

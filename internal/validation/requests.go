// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

package validation

// NearbyRequest is GET /api/v1/bakeries.
type NearbyRequest struct {
	Latitude  *float64 `query:"lat" validate:"required,latitude"`
	Longitude *float64 `query:"lng" validate:"required,longitude"`
	Radius    *int     `query:"radius" validate:"omitempty,min=100,max=50000"`
	Sort      string   `query:"sort" validate:"omitempty,oneof=distance rating"`
	Limit     *int     `query:"limit" validate:"omitempty,min=1,max=100"`
}

// KeywordSearchRequest is GET /api/v1/search/bakeries. The coordinate is
// optional but lat and lng must come together.
type KeywordSearchRequest struct {
	Query     string   `query:"query" validate:"required,notblank,max=200"`
	Latitude  *float64 `query:"lat" validate:"required_with=Longitude,omitempty,latitude"`
	Longitude *float64 `query:"lng" validate:"required_with=Latitude,omitempty,longitude"`
	Radius    *int     `query:"radius" validate:"omitempty,min=0,max=20000"`
}

// RecommendRequest is GET /api/v1/recommend/bakeries.
type RecommendRequest struct {
	Latitude  *float64 `query:"lat" validate:"required,latitude"`
	Longitude *float64 `query:"lng" validate:"required,longitude"`
}

// HistoryRequest is GET /api/v1/search/history.
type HistoryRequest struct {
	Limit int `query:"limit" validate:"min=1,max=100"`
}

// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

package models

// SearchResult is one row of a keyword search. Numeric fields are optional
// because the provider sends them as strings that may not parse.
type SearchResult struct {
	PlaceID        string   `json:"place_id"`
	Name           string   `json:"name"`
	Address        string   `json:"address"`
	Latitude       *float64 `json:"lat"`
	Longitude      *float64 `json:"lng"`
	DistanceMeters *int     `json:"distance"`
	Phone          *string  `json:"phone,omitempty"`
	PlaceURL       *string  `json:"place_url,omitempty"`
}

// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

/*
Package models defines the data structures shared by the Crumb pipeline.

Key Components:

  - Coordinate: WGS84 point used for query origins and place locations
  - Candidate: a place record normalized from one search provider
  - SearchHistoryRecord: append-only log of a user's keyword searches
  - SearchResult: keyword search row returned to API clients
  - RecommendedItem: a bakery produced by the external recommendation service

Errors:

The error taxonomy (upstream unavailable, upstream rejected, validation,
persistence) lives in errors.go and is matched with errors.Is / errors.As.
Provider and recommendation layers degrade to empty results instead of
returning these errors; the aggregator and the API layer surface them.
*/
package models

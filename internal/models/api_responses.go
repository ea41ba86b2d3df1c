// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

package models

import (
	"time"
)

// APIResponse is the envelope every HTTP endpoint returns.
//
// Example successful response:
//
//	{
//	  "success": true,
//	  "data": {"results": [...]},
//	  "meta": {"request_id": "0f5e...", "timestamp": "2026-10-19T12:00:00Z", "duration_ms": 45}
//	}
//
// Example error response:
//
//	{
//	  "success": false,
//	  "error": {
//	    "code": "VALIDATION_ERROR",
//	    "message": "radius must be at least 100",
//	    "details": {"field": "radius", "tag": "min"},
//	    "request_id": "0f5e..."
//	  },
//	  "meta": {"request_id": "0f5e...", "timestamp": "2026-10-19T12:00:00Z", "duration_ms": 1}
//	}
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    Metadata    `json:"meta"`
}

// Metadata carries request correlation and timing.
type Metadata struct {
	RequestID  string    `json:"request_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	DurationMS int64     `json:"duration_ms"`
}

// APIError is the error body. Code is a stable machine-readable string.
type APIError struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// HealthStatus is returned by the health endpoints.
type HealthStatus struct {
	Status            string            `json:"status"` // healthy or degraded
	Version           string            `json:"version"`
	HistoryBackend    string            `json:"history_backend"`
	DatabaseConnected bool              `json:"database_connected"`
	SpoolPending      *int              `json:"spool_pending,omitempty"`
	Breakers          map[string]string `json:"breakers,omitempty"` // breaker name -> closed, half-open or open
	Uptime            float64           `json:"uptime_seconds"`
}

// SearchResponse is the body of a keyword search.
type SearchResponse struct {
	Query   string         `json:"query"`
	Count   int            `json:"count"`
	Results []SearchResult `json:"results"`
}

// BakeriesResponse is the body of a nearby bakery list.
type BakeriesResponse struct {
	Count    int         `json:"count"`
	Bakeries []Candidate `json:"bakeries"`
}

// HistoryResponse lists a user's recent searches.
type HistoryResponse struct {
	Count24h int                   `json:"count_24h"`
	Records  []SearchHistoryRecord `json:"records"`
}

// RecommendResponse lists recommended bakeries. An upstream failure yields
// an empty list, not an error.
type RecommendResponse struct {
	Count int               `json:"count"`
	Items []RecommendedItem `json:"items"`
}

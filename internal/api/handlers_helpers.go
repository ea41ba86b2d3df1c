// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

package api

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/crumb/internal/logging"
	"github.com/tomtom215/crumb/internal/middleware"
	"github.com/tomtom215/crumb/internal/models"
)

// sanitizeLogValue removes control characters from strings to prevent log injection attacks.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&result, "\\x%02x", r)
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends a JSON response with proper headers
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// meta builds response metadata for a request that started at start.
func meta(r *http.Request, start time.Time) models.Metadata {
	return models.Metadata{
		RequestID:  middleware.GetRequestID(r.Context()),
		Timestamp:  time.Now().UTC(),
		DurationMS: time.Since(start).Milliseconds(),
	}
}

// respondSuccess sends a 200 envelope around data.
func respondSuccess(w http.ResponseWriter, r *http.Request, start time.Time, data interface{}) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta(r, start),
	})
}

// respondError classifies err, logs it and sends the error envelope.
// Server-side failures log at error, client mistakes at debug.
func respondError(w http.ResponseWriter, r *http.Request, start time.Time, err error) {
	e := classifyError(err)

	logger := logging.Ctx(r.Context())
	event := logger.Debug()
	if e.status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Str("component", "api").
		Str("code", e.code).
		Str("path", sanitizeLogValue(r.URL.Path)).
		Str("error", sanitizeLogValue(err.Error())).
		Msg("API error")

	writeError(w, r, start, e)
}

// writeError sends an already classified error.
func writeError(w http.ResponseWriter, r *http.Request, start time.Time, e apiError) {
	m := meta(r, start)
	respondJSON(w, e.status, &models.APIResponse{
		Success: false,
		Error: &models.APIError{
			Code:      e.code,
			Message:   e.message,
			Details:   e.details,
			RequestID: m.RequestID,
		},
		Meta: m,
	})
}

// floatParam parses an optional float query parameter. A present but
// malformed or non-finite value is a validation error.
func floatParam(r *http.Request, key string) (*float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, models.NewValidationError(key, "must be a number")
	}
	return &v, nil
}

// intParam parses an optional integer query parameter.
func intParam(r *http.Request, key string) (*int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, models.NewValidationError(key, "must be an integer")
	}
	return &v, nil
}

// coordinateOf pairs two validated optional values.
func coordinateOf(lat, lng *float64) *models.Coordinate {
	if lat == nil || lng == nil {
		return nil
	}
	return &models.Coordinate{Latitude: *lat, Longitude: *lng}
}

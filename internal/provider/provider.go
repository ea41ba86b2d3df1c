// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

/*
Package provider contains the place-search clients that feed the aggregator.

Every upstream API is wrapped by a type implementing Client. Clients map the
provider's response rows into models.Candidate and never return an error from
Search: a provider outage must not suppress results from the others, so
failures are logged, counted and turned into an empty slice.

Resilience per client:
  - Circuit breaker (sony/gobreaker) opens after a failure ratio threshold
  - Outbound token bucket (x/time/rate) caps requests per second
  - http.Client timeout bounds each call
  - Error bodies are capped at 64KB

Registry fans out over the configured clients concurrently and fans the
results back in, in registry order, with a short TTL result cache.
*/
package provider

import (
	"context"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/tomtom215/crumb/internal/models"
)

// maxErrorBodySize limits how much of an error response body is kept.
const maxErrorBodySize = 64 * 1024

// errMissingCredentials is returned when a client has no API key configured.
var errMissingCredentials = errors.New("no API key configured")

// Client is one upstream place-search API.
type Client interface {
	// Search returns bakeries near origin. It never fails; on any upstream
	// problem the result is empty.
	Search(ctx context.Context, origin models.Coordinate, radiusMeters int) []models.Candidate

	// Name identifies the provider.
	Name() models.Provider

	// IsAvailable reports whether the client has the credentials it needs.
	IsAvailable() bool
}

// readBodyForError reads at most maxErrorBodySize bytes of r for diagnostics.
func readBodyForError(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return "(failed to read response body)"
	}
	if len(body) == maxErrorBodySize {
		return string(body) + "\n... (truncated)"
	}
	return string(body)
}

// clampRadius limits r to [0, maxRadius]. Values above the cap are clamped,
// not rejected.
func clampRadius(r, maxRadius int) int {
	if r < 0 {
		return 0
	}
	if r > maxRadius {
		return maxRadius
	}
	return r
}

// parseFloatPtr returns nil for empty or unparsable input.
func parseFloatPtr(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// parseIntPtr returns nil for empty or unparsable input.
func parseIntPtr(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// metricName is the lowercase provider label used in metrics and logs.
func metricName(p models.Provider) string {
	return strings.ToLower(string(p))
}

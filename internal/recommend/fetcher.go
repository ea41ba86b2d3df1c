// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

package recommend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/crumb/internal/config"
	"github.com/tomtom215/crumb/internal/logging"
	"github.com/tomtom215/crumb/internal/metrics"
	"github.com/tomtom215/crumb/internal/models"
)

const (
	recommendPath = "/recommend"

	// maxErrorBodySize caps the error body kept for logs.
	maxErrorBodySize = 64 * 1024

	// maxBackoffInterval keeps a misconfigured base delay from stalling requests.
	maxBackoffInterval = 5 * time.Second
)

// Outcome labels for metrics.
const (
	outcomeOK          = "ok"
	outcomeUnavailable = "unavailable"
	outcomeRejected    = "rejected"
	outcomeExhausted   = "exhausted"
	outcomeCanceled    = "canceled"
)

// Fetcher calls the external recommendation service. Fetch never returns an
// error: recommendations are best effort.
type Fetcher struct {
	baseURL     string
	client      *http.Client
	timeout     time.Duration
	maxAttempts int
	baseDelay   time.Duration
	limit       int
	log         zerolog.Logger
}

// NewFetcher builds a Fetcher from configuration.
func NewFetcher(cfg *config.RecommendConfig) *Fetcher {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &Fetcher{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		// Deadlines come from the per-attempt context.
		client:      &http.Client{},
		timeout:     cfg.Timeout,
		maxAttempts: attempts,
		baseDelay:   cfg.BaseDelay,
		limit:       cfg.Limit,
		log:         logging.WithComponent("recommend"),
	}
}

// Fetch asks the service for bakeries near origin matching keywords and
// returns at most limit items (the configured default when limit < 1).
//
// Transport failures and per-attempt timeouts are retried with exponential
// backoff. A non-2xx response or an undecodable body ends the call at once.
// Any failure yields an empty slice.
func (f *Fetcher) Fetch(ctx context.Context, origin models.Coordinate, keywords []string, limit int) []models.RecommendedItem {
	if limit < 1 {
		limit = f.limit
	}

	start := time.Now()
	items, attempts, err := f.fetchWithRetry(ctx, origin, keywords)
	if err != nil {
		outcome := outcomeExhausted
		switch {
		case ctx.Err() != nil:
			outcome = outcomeCanceled
		case errors.Is(err, models.ErrUpstreamRejected):
			outcome = outcomeRejected
		}
		metrics.RecordRecommendFetch(outcome, time.Since(start))
		logging.Ctx(ctx).Error().Err(err).
			Str("component", "recommend").
			Float64("lat", origin.Latitude).
			Float64("lng", origin.Longitude).
			Strs("keywords", keywords).
			Int("attempts", attempts).
			Str("outcome", outcome).
			Msg("Recommendation service call failed, returning no recommendations")
		return []models.RecommendedItem{}
	}

	metrics.RecordRecommendFetch(outcomeOK, time.Since(start))
	if len(items) > limit {
		items = items[:limit]
	}
	if items == nil {
		items = []models.RecommendedItem{}
	}
	return items
}

func (f *Fetcher) fetchWithRetry(ctx context.Context, origin models.Coordinate, keywords []string) ([]models.RecommendedItem, int, error) {
	reqURL := f.buildURL(origin, keywords)

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = f.baseDelay
	eb.Multiplier = 2
	eb.RandomizationFactor = 0
	eb.MaxInterval = maxBackoffInterval
	eb.MaxElapsedTime = 0 // bounded by attempts instead
	eb.Reset()

	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(f.maxAttempts-1)), ctx)

	var items []models.RecommendedItem
	attempts := 0
	op := func() error {
		attempts++
		result, err := f.attempt(ctx, reqURL)
		if err == nil {
			metrics.RecommendAttempts.WithLabelValues(outcomeOK).Inc()
			items = result
			return nil
		}
		if errors.Is(err, models.ErrUpstreamRejected) {
			metrics.RecommendAttempts.WithLabelValues(outcomeRejected).Inc()
			return backoff.Permanent(err)
		}
		metrics.RecommendAttempts.WithLabelValues(outcomeUnavailable).Inc()
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		f.log.Warn().Err(err).Int("attempt", attempts).Dur("retry_in", wait).
			Msg("Recommendation attempt failed, retrying")
	}

	err := backoff.RetryNotify(op, policy, notify)
	return items, attempts, err
}

// attempt performs one request bounded by its own timeout.
func (f *Fetcher) attempt(ctx context.Context, reqURL string) ([]models.RecommendedItem, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, models.NewUnavailableError("recommend", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		f.log.Warn().Int("status", resp.StatusCode).Str("body", string(body)).Msg("Recommendation service returned error status")
		return nil, models.NewRejectedError("recommend", resp.StatusCode, string(body), nil)
	}

	var items []models.RecommendedItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		if attemptCtx.Err() != nil {
			// The body was cut off by the attempt deadline.
			return nil, models.NewUnavailableError("recommend", attemptCtx.Err())
		}
		return nil, models.NewRejectedError("recommend", resp.StatusCode, "", fmt.Errorf("failed to decode response: %w", err))
	}
	return items, nil
}

func (f *Fetcher) buildURL(origin models.Coordinate, keywords []string) string {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(origin.Latitude, 'f', -1, 64))
	params.Set("lng", strconv.FormatFloat(origin.Longitude, 'f', -1, 64))
	if len(keywords) > 0 {
		params.Set("keywords", strings.Join(keywords, ","))
	}
	return f.baseURL + recommendPath + "?" + params.Encode()
}

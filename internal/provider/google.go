// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/crumb/internal/config"
	"github.com/tomtom215/crumb/internal/logging"
	"github.com/tomtom215/crumb/internal/metrics"
	"github.com/tomtom215/crumb/internal/models"
)

const googleNearbyPath = "/maps/api/place/nearbysearch/json"

// googleDetailURL is the public maps link for a place id.
const googleDetailURL = "https://maps.google.com/?cid="

// Google answers HTTP 200 for application errors and reports them in status.
const (
	googleStatusOK          = "OK"
	googleStatusZeroResults = "ZERO_RESULTS"
)

type googleResponse struct {
	Status       string         `json:"status"`
	ErrorMessage string         `json:"error_message"`
	Results      []googleResult `json:"results"`
}

type googleResult struct {
	PlaceID  string `json:"place_id"`
	Name     string `json:"name"`
	Vicinity string `json:"vicinity"`
	Geometry struct {
		Location struct {
			Lat *float64 `json:"lat"`
			Lng *float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	Rating           *float64 `json:"rating"`
	UserRatingsTotal *int     `json:"user_ratings_total"`
}

// GoogleClient searches Google Places nearby search.
type GoogleClient struct {
	baseURL   string
	apiKey    string
	keyword   string
	placeType string
	language  string
	maxRadius int
	client    *http.Client
	guard     *guard
	log       zerolog.Logger
}

// NewGoogleClient builds a client from configuration.
func NewGoogleClient(cfg *config.GoogleConfig, shared *config.ProvidersConfig) *GoogleClient {
	return &GoogleClient{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		keyword:   cfg.Keyword,
		placeType: cfg.PlaceType,
		language:  cfg.Language,
		maxRadius: cfg.MaxRadius,
		client:    &http.Client{Timeout: cfg.Timeout},
		guard:     newGuard(googleBreaker, guardConfigFrom(shared, cfg.RateLimit, cfg.RateBurst)),
		log:       logging.WithComponent("provider").With().Str("provider", "google").Logger(),
	}
}

// Name implements Client.
func (c *GoogleClient) Name() models.Provider { return models.ProviderGoogle }

// IsAvailable implements Client.
func (c *GoogleClient) IsAvailable() bool { return c.apiKey != "" }

// Search implements Client.
func (c *GoogleClient) Search(ctx context.Context, origin models.Coordinate, radiusMeters int) []models.Candidate {
	start := time.Now()
	results, err := c.fetch(ctx, origin, radiusMeters)
	if err != nil {
		metrics.RecordProviderCall(metricName(c.Name()), outcomeOf(err), time.Since(start), 0)
		c.log.Warn().Err(err).Str("outcome", outcomeOf(err)).Str("origin", origin.String()).
			Int("radius", radiusMeters).Msg("Provider search failed, returning no candidates")
		return []models.Candidate{}
	}

	out := make([]models.Candidate, 0, len(results))
	for i := range results {
		if cand, ok := c.toCandidate(&results[i]); ok {
			out = append(out, cand)
		}
	}
	metrics.RecordProviderCall(metricName(c.Name()), outcomeOK, time.Since(start), len(out))
	return out
}

// BreakerStates implements BreakerReporter.
func (c *GoogleClient) BreakerStates() map[string]string {
	return map[string]string{c.guard.name: stateToString(c.guard.State())}
}

func (c *GoogleClient) fetch(ctx context.Context, origin models.Coordinate, radiusMeters int) ([]googleResult, error) {
	if !c.IsAvailable() {
		return nil, models.NewUnavailableError("google", errMissingCredentials)
	}

	params := url.Values{}
	params.Set("location", strconv.FormatFloat(origin.Latitude, 'f', -1, 64)+","+strconv.FormatFloat(origin.Longitude, 'f', -1, 64))
	params.Set("radius", strconv.Itoa(clampRadius(radiusMeters, c.maxRadius)))
	params.Set("type", c.placeType)
	params.Set("keyword", c.keyword)
	params.Set("language", c.language)
	params.Set("key", c.apiKey)
	reqURL := c.baseURL + googleNearbyPath + "?" + params.Encode()

	var resp googleResponse
	err := c.guard.do(ctx, func() error {
		if err := getJSON(ctx, c.client, "google", reqURL, nil, &resp); err != nil {
			return err
		}
		switch resp.Status {
		case googleStatusOK, googleStatusZeroResults:
			return nil
		default:
			msg := resp.Status
			if resp.ErrorMessage != "" {
				msg += ": " + resp.ErrorMessage
			}
			return models.NewRejectedError("google", http.StatusOK, "", fmt.Errorf("places status %s", msg))
		}
	})
	if err != nil {
		return nil, redactKey(err, c.apiKey)
	}
	return resp.Results, nil
}

func (c *GoogleClient) toCandidate(r *googleResult) (models.Candidate, bool) {
	loc := r.Geometry.Location
	if loc.Lat == nil || loc.Lng == nil {
		c.log.Debug().Str("id", r.PlaceID).Str("name", r.Name).Msg("Skipping row without coordinates")
		return models.Candidate{}, false
	}
	coord := models.Coordinate{Latitude: *loc.Lat, Longitude: *loc.Lng}
	if !coord.Valid() {
		c.log.Debug().Str("id", r.PlaceID).Str("coordinate", coord.String()).Msg("Skipping row with out-of-range coordinates")
		return models.Candidate{}, false
	}
	return models.Candidate{
		ExternalID:  models.ProviderGoogle.IDPrefix() + r.PlaceID,
		Name:        r.Name,
		Address:     r.Vicinity,
		Coordinate:  coord,
		Provider:    models.ProviderGoogle,
		Rating:      r.Rating,
		RatingCount: r.UserRatingsTotal,
		DetailURL:   stringPtr(googleDetailURL + r.PlaceID),
	}, true
}

// redactKey strips the API key from transport errors, which embed the
// request URL.
func redactKey(err error, key string) error {
	if key == "" || !strings.Contains(err.Error(), key) {
		return err
	}
	var ue *models.UpstreamError
	if errors.As(err, &ue) {
		redacted := &models.UpstreamError{
			Service:    ue.Service,
			StatusCode: ue.StatusCode,
			Body:       strings.ReplaceAll(ue.Body, key, "REDACTED"),
		}
		if ue.Err != nil {
			redacted.Err = errors.New(strings.ReplaceAll(ue.Err.Error(), key, "REDACTED"))
		}
		return redacted
	}
	return errors.New(strings.ReplaceAll(err.Error(), key, "REDACTED"))
}

// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

package provider

import (
	"context"
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

const kakaoKeywordPath = "/v2/local/search/keyword.json"

// kakaoMaxPageSize is the largest page the keyword endpoint accepts.
const kakaoMaxPageSize = 15

// kakaoResponse is the keyword search payload. Every numeric field arrives
// as a string.
type kakaoResponse struct {
	Documents []kakaoDocument `json:"documents"`
	Meta      struct {
		TotalCount    int  `json:"total_count"`
		PageableCount int  `json:"pageable_count"`
		IsEnd         bool `json:"is_end"`
	} `json:"meta"`
}

type kakaoDocument struct {
	ID              string `json:"id"`
	PlaceName       string `json:"place_name"`
	CategoryName    string `json:"category_name"`
	AddressName     string `json:"address_name"`
	RoadAddressName string `json:"road_address_name"`
	Phone           string `json:"phone"`
	X               string `json:"x"` // longitude
	Y               string `json:"y"` // latitude
	Distance        string `json:"distance"`
	PlaceURL        string `json:"place_url"`
}

// address prefers the road address and falls back to the lot address.
func (d *kakaoDocument) address() string {
	if strings.TrimSpace(d.RoadAddressName) != "" {
		return d.RoadAddressName
	}
	return d.AddressName
}

// KeywordQuery is a free-text search against Kakao Local.
type KeywordQuery struct {
	Query string

	// Origin is optional. Without it the radius is ignored and results are
	// ordered by relevance.
	Origin *models.Coordinate

	RadiusMeters int
	Size         int
}

// KakaoClient searches the Kakao Local keyword API.
type KakaoClient struct {
	baseURL   string
	apiKey    string
	query     string
	maxRadius int
	pageSize  int
	client    *http.Client
	guard     *guard // nearby fan-out
	keyword   *guard // user keyword search
	log       zerolog.Logger
}

// NewKakaoClient builds a client from configuration.
func NewKakaoClient(cfg *config.KakaoConfig, shared *config.ProvidersConfig) *KakaoClient {
	pageSize := cfg.PageSize
	if pageSize < 1 || pageSize > kakaoMaxPageSize {
		pageSize = kakaoMaxPageSize
	}
	return &KakaoClient{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.RESTAPIKey,
		query:     cfg.BakeryQuery,
		maxRadius: cfg.MaxRadius,
		pageSize:  pageSize,
		client:    &http.Client{Timeout: cfg.Timeout},
		guard:     newGuard(kakaoNearbyBreaker, guardConfigFrom(shared, cfg.RateLimit, cfg.RateBurst)),
		keyword:   newGuard(kakaoKeywordBreaker, guardConfigFrom(shared, cfg.RateLimit, cfg.RateBurst)),
		log:       logging.WithComponent("provider").With().Str("provider", "kakao").Logger(),
	}
}

// Name implements Client.
func (c *KakaoClient) Name() models.Provider { return models.ProviderKakao }

// IsAvailable implements Client.
func (c *KakaoClient) IsAvailable() bool { return c.apiKey != "" }

// MaxRadius is the largest radius the client sends upstream.
func (c *KakaoClient) MaxRadius() int { return c.maxRadius }

// Search implements Client using the configured bakery keyword.
func (c *KakaoClient) Search(ctx context.Context, origin models.Coordinate, radiusMeters int) []models.Candidate {
	start := time.Now()
	docs, err := c.fetch(ctx, c.guard, KeywordQuery{
		Query:        c.query,
		Origin:       &origin,
		RadiusMeters: radiusMeters,
		Size:         c.pageSize,
	})
	if err != nil {
		metrics.RecordProviderCall(metricName(c.Name()), outcomeOf(err), time.Since(start), 0)
		c.log.Warn().Err(err).Str("outcome", outcomeOf(err)).Str("origin", origin.String()).
			Int("radius", radiusMeters).Msg("Provider search failed, returning no candidates")
		return []models.Candidate{}
	}

	out := make([]models.Candidate, 0, len(docs))
	for i := range docs {
		if cand, ok := c.toCandidate(&docs[i]); ok {
			out = append(out, cand)
		}
	}
	metrics.RecordProviderCall(metricName(c.Name()), outcomeOK, time.Since(start), len(out))
	return out
}

// SearchKeyword runs an arbitrary query. Unlike Search it reports failure so
// the caller can tell an empty result from an outage. It has its own breaker:
// rejections of user queries never open the circuit for nearby search.
func (c *KakaoClient) SearchKeyword(ctx context.Context, q KeywordQuery) ([]models.SearchResult, error) {
	start := time.Now()
	docs, err := c.fetch(ctx, c.keyword, q)
	if err != nil {
		metrics.RecordProviderCall(metricName(c.Name()), outcomeOf(err), time.Since(start), 0)
		return nil, err
	}

	out := make([]models.SearchResult, 0, len(docs))
	for i := range docs {
		out = append(out, toSearchResult(&docs[i]))
	}
	metrics.RecordProviderCall(metricName(c.Name()), outcomeOK, time.Since(start), len(out))
	return out, nil
}

// BreakerStates implements BreakerReporter.
func (c *KakaoClient) BreakerStates() map[string]string {
	return map[string]string{
		c.guard.name:   stateToString(c.guard.State()),
		c.keyword.name: stateToString(c.keyword.State()),
	}
}

func (c *KakaoClient) fetch(ctx context.Context, g *guard, q KeywordQuery) ([]kakaoDocument, error) {
	if !c.IsAvailable() {
		return nil, models.NewUnavailableError("kakao", errMissingCredentials)
	}

	size := q.Size
	if size < 1 || size > kakaoMaxPageSize {
		size = c.pageSize
	}

	params := url.Values{}
	params.Set("query", q.Query)
	params.Set("size", strconv.Itoa(size))
	if q.Origin != nil {
		params.Set("x", strconv.FormatFloat(q.Origin.Longitude, 'f', -1, 64))
		params.Set("y", strconv.FormatFloat(q.Origin.Latitude, 'f', -1, 64))
		params.Set("radius", strconv.Itoa(clampRadius(q.RadiusMeters, c.maxRadius)))
		params.Set("sort", "distance")
	}
	reqURL := c.baseURL + kakaoKeywordPath + "?" + params.Encode()

	header := http.Header{}
	header.Set("Authorization", "KakaoAK "+c.apiKey)

	var resp kakaoResponse
	err := g.do(ctx, func() error {
		return getJSON(ctx, c.client, "kakao", reqURL, header, &resp)
	})
	if err != nil {
		return nil, err
	}
	return resp.Documents, nil
}

func (c *KakaoClient) toCandidate(d *kakaoDocument) (models.Candidate, bool) {
	lat, lng := parseFloatPtr(d.Y), parseFloatPtr(d.X)
	if lat == nil || lng == nil {
		c.log.Debug().Str("id", d.ID).Str("name", d.PlaceName).Msg("Skipping row without coordinates")
		return models.Candidate{}, false
	}
	coord := models.Coordinate{Latitude: *lat, Longitude: *lng}
	if !coord.Valid() {
		c.log.Debug().Str("id", d.ID).Str("coordinate", coord.String()).Msg("Skipping row with out-of-range coordinates")
		return models.Candidate{}, false
	}
	return models.Candidate{
		ExternalID: models.ProviderKakao.IDPrefix() + d.ID,
		Name:       d.PlaceName,
		Address:    d.address(),
		Coordinate: coord,
		Provider:   models.ProviderKakao,
		Phone:      stringPtr(d.Phone),
		DetailURL:  stringPtr(d.PlaceURL),
	}, true
}

func toSearchResult(d *kakaoDocument) models.SearchResult {
	return models.SearchResult{
		PlaceID:        d.ID,
		Name:           d.PlaceName,
		Address:        d.address(),
		Latitude:       parseFloatPtr(d.Y),
		Longitude:      parseFloatPtr(d.X),
		DistanceMeters: parseIntPtr(d.Distance),
		Phone:          stringPtr(d.Phone),
		PlaceURL:       stringPtr(d.PlaceURL),
	}
}

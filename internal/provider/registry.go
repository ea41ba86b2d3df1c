// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

package provider

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/crumb/internal/config"
	"github.com/tomtom215/crumb/internal/logging"
	"github.com/tomtom215/crumb/internal/metrics"
	"github.com/tomtom215/crumb/internal/models"
)

// Registry holds the enabled clients in priority order. The first client's
// candidates win deduplication ties downstream.
type Registry struct {
	clients  []Client
	breakers []BreakerReporter
	cache   *cache.Cache // nil when caching is disabled
	ttl     time.Duration
}

// NewRegistry creates a registry over clients. A ttl of zero disables the
// result cache.
func NewRegistry(clients []Client, ttl time.Duration) *Registry {
	r := &Registry{clients: clients, ttl: ttl}
	for _, c := range clients {
		if br, ok := c.(BreakerReporter); ok {
			r.breakers = append(r.breakers, br)
		}
	}
	if ttl > 0 {
		r.cache = cache.New(ttl, 2*ttl)
	}
	return r
}

// NewRegistryFromConfig builds the Kakao and Google clients and orders them
// by cfg.Providers.Order. The Kakao client is returned separately because
// keyword search uses it directly.
func NewRegistryFromConfig(cfg *config.Config) (*Registry, *KakaoClient, error) {
	kakao := NewKakaoClient(&cfg.Kakao, &cfg.Providers)
	google := NewGoogleClient(&cfg.Google, &cfg.Providers)

	clients := make([]Client, 0, len(cfg.Providers.Order))
	for _, name := range cfg.Providers.Order {
		switch strings.ToLower(name) {
		case "kakao":
			clients = append(clients, kakao)
		case "google":
			clients = append(clients, google)
		default:
			return nil, nil, fmt.Errorf("unknown provider %q", name)
		}
	}

	for _, c := range clients {
		if !c.IsAvailable() {
			logging.Warn().Str("provider", metricName(c.Name())).Msg("Provider has no API key configured and will be skipped")
		}
	}
	reg := NewRegistry(clients, cfg.Providers.CacheTTL)
	// Keyword search uses Kakao even when it is not in the nearby order.
	if !slices.ContainsFunc(clients, func(c Client) bool { return c == Client(kakao) }) {
		reg.breakers = append(reg.breakers, kakao)
	}
	return reg, kakao, nil
}

// BreakerStates merges the breaker states of every client, keyed by
// breaker name.
func (r *Registry) BreakerStates() map[string]string {
	out := make(map[string]string)
	for _, br := range r.breakers {
		for name, state := range br.BreakerStates() {
			out[name] = state
		}
	}
	return out
}

// Clients returns the clients in priority order.
func (r *Registry) Clients() []Client {
	return slices.Clone(r.clients)
}

// SearchAll queries every available client concurrently and returns one list
// per client in registry order. Unavailable clients contribute an empty list.
// SearchAll never fails; a provider error only empties that provider's list.
func (r *Registry) SearchAll(ctx context.Context, origin models.Coordinate, radiusMeters int) [][]models.Candidate {
	results := make([][]models.Candidate, len(r.clients))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range r.clients {
		if !c.IsAvailable() {
			results[i] = []models.Candidate{}
			continue
		}
		g.Go(func() error {
			results[i] = r.search(gctx, c, origin, radiusMeters)
			return nil
		})
	}
	_ = g.Wait() // workers never return an error

	return results
}

func (r *Registry) search(ctx context.Context, c Client, origin models.Coordinate, radiusMeters int) []models.Candidate {
	if r.cache == nil {
		return c.Search(ctx, origin, radiusMeters)
	}

	key := cacheKey(c.Name(), origin, radiusMeters)
	if v, ok := r.cache.Get(key); ok {
		metrics.RecordProviderCache(metricName(c.Name()), true)
		return slices.Clone(v.([]models.Candidate))
	}
	metrics.RecordProviderCache(metricName(c.Name()), false)

	out := c.Search(ctx, origin, radiusMeters)
	// An empty list may be an outage; only cache real answers.
	if len(out) > 0 {
		r.cache.Set(key, slices.Clone(out), cache.DefaultExpiration)
	}
	return out
}

// cacheKey rounds the origin to four decimals (about 11 m).
func cacheKey(p models.Provider, origin models.Coordinate, radiusMeters int) string {
	return fmt.Sprintf("%s|%.4f|%.4f|%d", p, origin.Latitude, origin.Longitude, radiusMeters)
}

// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

package provider

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/crumb/internal/config"
	"github.com/tomtom215/crumb/internal/models"
)

// stubClient is a Client returning a fixed list after an optional delay.
type stubClient struct {
	name      models.Provider
	available bool
	delay     time.Duration
	result    []models.Candidate
	calls     atomic.Int32
}

func (s *stubClient) Search(ctx context.Context, _ models.Coordinate, _ int) []models.Candidate {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return []models.Candidate{}
		}
	}
	return s.result
}

func (s *stubClient) Name() models.Provider { return s.name }
func (s *stubClient) IsAvailable() bool     { return s.available }

func candidate(id, name string, p models.Provider) models.Candidate {
	return models.Candidate{ExternalID: id, Name: name, Provider: p, Coordinate: models.Coordinate{Latitude: 37.5, Longitude: 127.0}}
}

func TestRegistrySearchAllPreservesOrder(t *testing.T) {
	t.Parallel()

	// The slower first client must still come first.
	slow := &stubClient{name: models.ProviderKakao, available: true, delay: 60 * time.Millisecond,
		result: []models.Candidate{candidate("KAKAO_1", "a", models.ProviderKakao)}}
	fast := &stubClient{name: models.ProviderGoogle, available: true, delay: 50 * time.Millisecond,
		result: []models.Candidate{candidate("GOOGLE_1", "b", models.ProviderGoogle)}}

	r := NewRegistry([]Client{slow, fast}, 0)
	start := time.Now()
	got := r.SearchAll(context.Background(), models.Coordinate{Latitude: 37.5, Longitude: 127.0}, 1000)
	elapsed := time.Since(start)

	if len(got) != 2 {
		t.Fatalf("got %d lists, want 2", len(got))
	}
	if got[0][0].ExternalID != "KAKAO_1" || got[1][0].ExternalID != "GOOGLE_1" {
		t.Errorf("order not preserved: %v / %v", got[0], got[1])
	}
	if elapsed >= slow.delay+fast.delay {
		t.Errorf("fan-out took %v, expected concurrent calls", elapsed)
	}
}

func TestRegistrySkipsUnavailable(t *testing.T) {
	t.Parallel()

	missing := &stubClient{name: models.ProviderKakao, available: false}
	ok := &stubClient{name: models.ProviderGoogle, available: true,
		result: []models.Candidate{candidate("GOOGLE_1", "b", models.ProviderGoogle)}}

	r := NewRegistry([]Client{missing, ok}, 0)
	got := r.SearchAll(context.Background(), models.Coordinate{Latitude: 37.5, Longitude: 127.0}, 1000)

	if missing.calls.Load() != 0 {
		t.Error("unavailable client should not be called")
	}
	if len(got[0]) != 0 || len(got[1]) != 1 {
		t.Errorf("unexpected lists: %v", got)
	}
}

func TestRegistryCachesNonEmptyResults(t *testing.T) {
	t.Parallel()

	c := &stubClient{name: models.ProviderKakao, available: true,
		result: []models.Candidate{candidate("KAKAO_1", "a", models.ProviderKakao)}}
	empty := &stubClient{name: models.ProviderGoogle, available: true, result: []models.Candidate{}}

	r := NewRegistry([]Client{c, empty}, time.Minute)
	origin := models.Coordinate{Latitude: 37.50001, Longitude: 127.00001}

	r.SearchAll(context.Background(), origin, 1000)
	// Within rounding distance of the first origin.
	r.SearchAll(context.Background(), models.Coordinate{Latitude: 37.50002, Longitude: 127.00002}, 1000)

	if got := c.calls.Load(); got != 1 {
		t.Errorf("cached client called %d times, want 1", got)
	}
	if got := empty.calls.Load(); got != 2 {
		t.Errorf("empty results should not be cached, calls = %d", got)
	}

	r.SearchAll(context.Background(), origin, 2000)
	if got := c.calls.Load(); got != 2 {
		t.Errorf("different radius should miss the cache, calls = %d", got)
	}
}

func TestRegistryCancellation(t *testing.T) {
	t.Parallel()

	slow := &stubClient{name: models.ProviderKakao, available: true, delay: 5 * time.Second,
		result: []models.Candidate{candidate("KAKAO_1", "a", models.ProviderKakao)}}
	r := NewRegistry([]Client{slow}, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	done := make(chan [][]models.Candidate, 1)
	go func() { done <- r.SearchAll(ctx, models.Coordinate{Latitude: 37.5, Longitude: 127.0}, 1000) }()

	select {
	case got := <-done:
		if len(got[0]) != 0 {
			t.Errorf("canceled search should return no candidates, got %d", len(got[0]))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("SearchAll did not honor cancellation")
	}
}

func TestNewRegistryFromConfigOrder(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Kakao:     config.KakaoConfig{BaseURL: "http://kakao.test", RESTAPIKey: "k", MaxRadius: 20000, PageSize: 15, Timeout: time.Second},
		Google:    config.GoogleConfig{BaseURL: "http://google.test", MaxRadius: 50000, Timeout: time.Second},
		Providers: *testProvidersConfig(),
	}
	cfg.Providers.Order = []string{"google", "kakao"}

	r, kakao, err := NewRegistryFromConfig(cfg)
	if err != nil {
		t.Fatalf("NewRegistryFromConfig() error = %v", err)
	}
	if kakao == nil {
		t.Fatal("expected kakao client")
	}
	clients := r.Clients()
	if len(clients) != 2 || clients[0].Name() != models.ProviderGoogle || clients[1].Name() != models.ProviderKakao {
		t.Errorf("unexpected client order")
	}
	if clients[0].IsAvailable() {
		t.Error("google without key should be unavailable")
	}

	cfg.Providers.Order = []string{"naver"}
	if _, _, err := NewRegistryFromConfig(cfg); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestRegistryBreakerStates(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Kakao:     config.KakaoConfig{BaseURL: "http://kakao.test", RESTAPIKey: "k", MaxRadius: 20000, PageSize: 15, Timeout: time.Second},
		Google:    config.GoogleConfig{BaseURL: "http://google.test", APIKey: "g", MaxRadius: 50000, Timeout: time.Second},
		Providers: *testProvidersConfig(),
	}

	tests := []struct {
		name  string
		order []string
		want  []string
	}{
		{"both providers", []string{"kakao", "google"}, []string{kakaoNearbyBreaker, kakaoKeywordBreaker, googleBreaker}},
		{"google only still reports keyword search", []string{"google"}, []string{kakaoNearbyBreaker, kakaoKeywordBreaker, googleBreaker}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := *cfg
			c.Providers.Order = tt.order
			r, _, err := NewRegistryFromConfig(&c)
			if err != nil {
				t.Fatal(err)
			}
			states := r.BreakerStates()
			if len(states) != len(tt.want) {
				t.Errorf("states = %v, want keys %v", states, tt.want)
			}
			for _, name := range tt.want {
				if states[name] != "closed" {
					t.Errorf("%s = %q, want closed", name, states[name])
				}
			}
		})
	}

	stubOnly := NewRegistry([]Client{&stubClient{name: models.ProviderKakao, available: true}}, 0)
	if got := stubOnly.BreakerStates(); len(got) != 0 {
		t.Errorf("clients without breakers reported %v", got)
	}
}

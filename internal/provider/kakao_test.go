// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/crumb/internal/config"
	"github.com/tomtom215/crumb/internal/metrics"
	"github.com/tomtom215/crumb/internal/models"
)

const kakaoFixture = `{
  "documents": [
    {
      "id": "26338954",
      "place_name": "성수 베이커리",
      "category_name": "음식점 > 간식 > 제과,베이커리",
      "address_name": "서울 성동구 성수동2가 300",
      "road_address_name": "서울 성동구 연무장길 1",
      "phone": "02-000-0000",
      "x": "127.0561",
      "y": "37.5443",
      "distance": "418",
      "place_url": "http://place.map.kakao.com/26338954"
    },
    {
      "id": "11",
      "place_name": "지번만 있는 빵집",
      "address_name": "서울 성동구 성수동1가 1",
      "road_address_name": "",
      "phone": "",
      "x": "127.0500",
      "y": "37.5400",
      "distance": "n/a",
      "place_url": ""
    },
    {
      "id": "99",
      "place_name": "좌표 없는 빵집",
      "address_name": "어딘가",
      "x": "",
      "y": "not-a-number"
    }
  ],
  "meta": {"total_count": 3, "pageable_count": 3, "is_end": true}
}`

func testProvidersConfig() *config.ProvidersConfig {
	return &config.ProvidersConfig{
		Order:                []string{"kakao", "google"},
		BreakerMinRequests:   10,
		BreakerFailureRatio:  0.6,
		BreakerOpenTimeout:   time.Minute,
		BreakerCountInterval: time.Minute,
	}
}

func newTestKakao(baseURL, key string) *KakaoClient {
	return NewKakaoClient(&config.KakaoConfig{
		BaseURL:     baseURL,
		RESTAPIKey:  key,
		BakeryQuery: "빵집",
		MaxRadius:   20000,
		PageSize:    15,
		Timeout:     2 * time.Second,
	}, testProvidersConfig())
}

func TestKakaoSearchMapsDocuments(t *testing.T) {
	t.Parallel()

	var gotQuery map[string]string
	var gotAuth, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		q := r.URL.Query()
		gotQuery = map[string]string{
			"query": q.Get("query"), "x": q.Get("x"), "y": q.Get("y"),
			"radius": q.Get("radius"), "size": q.Get("size"), "sort": q.Get("sort"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(kakaoFixture))
	}))
	defer server.Close()

	client := newTestKakao(server.URL, "test-key")
	got := client.Search(context.Background(), models.Coordinate{Latitude: 37.5443, Longitude: 127.0561}, 50000)

	if gotPath != kakaoKeywordPath {
		t.Errorf("path = %q, want %q", gotPath, kakaoKeywordPath)
	}
	if gotAuth != "KakaoAK test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	want := map[string]string{
		"query": "빵집", "x": "127.0561", "y": "37.5443",
		"radius": "20000", "size": "15", "sort": "distance",
	}
	for k, v := range want {
		if gotQuery[k] != v {
			t.Errorf("query param %s = %q, want %q", k, gotQuery[k], v)
		}
	}

	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2 (row without coordinates skipped)", len(got))
	}

	first := got[0]
	if first.ExternalID != "KAKAO_26338954" {
		t.Errorf("ExternalID = %q", first.ExternalID)
	}
	if first.Address != "서울 성동구 연무장길 1" {
		t.Errorf("Address = %q, want road address", first.Address)
	}
	if first.Provider != models.ProviderKakao {
		t.Errorf("Provider = %q", first.Provider)
	}
	if first.Phone == nil || *first.Phone != "02-000-0000" {
		t.Errorf("Phone = %v", first.Phone)
	}
	if first.Rating != nil {
		t.Errorf("Rating = %v, want nil", *first.Rating)
	}

	second := got[1]
	if second.Address != "서울 성동구 성수동1가 1" {
		t.Errorf("Address = %q, want lot address fallback", second.Address)
	}
	if second.Phone != nil || second.DetailURL != nil {
		t.Errorf("empty strings should map to nil, got phone=%v url=%v", second.Phone, second.DetailURL)
	}
}

func TestKakaoSearchIsolatesFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"errorType":"InternalServerError"}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	before := testutil.ToFloat64(metrics.ProviderRequests.WithLabelValues("kakao", outcomeRejected))

	client := newTestKakao(server.URL, "test-key")
	got := client.Search(context.Background(), models.Coordinate{Latitude: 37.5, Longitude: 127.0}, 1000)

	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
	after := testutil.ToFloat64(metrics.ProviderRequests.WithLabelValues("kakao", outcomeRejected))
	if after-before != 1 {
		t.Errorf("rejected counter delta = %v, want 1", after-before)
	}
}

func TestKakaoSearchMalformedBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"documents": [`))
	}))
	defer server.Close()

	client := newTestKakao(server.URL, "test-key")
	if got := client.Search(context.Background(), models.Coordinate{Latitude: 37.5, Longitude: 127.0}, 1000); len(got) != 0 {
		t.Fatalf("expected no candidates, got %d", len(got))
	}

	_, err := client.SearchKeyword(context.Background(), KeywordQuery{Query: "빵"})
	if !errors.Is(err, models.ErrUpstreamRejected) {
		t.Fatalf("SearchKeyword error = %v, want ErrUpstreamRejected", err)
	}
}

func TestKakaoSearchKeyword(t *testing.T) {
	t.Parallel()

	var rawQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(kakaoFixture))
	}))
	defer server.Close()

	client := newTestKakao(server.URL, "test-key")
	origin := models.Coordinate{Latitude: 37.5, Longitude: 127.0}
	got, err := client.SearchKeyword(context.Background(), KeywordQuery{
		Query:        "단팥빵",
		Origin:       &origin,
		RadiusMeters: 3000,
		Size:         15,
	})
	if err != nil {
		t.Fatalf("SearchKeyword() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d results, want all 3 rows", len(got))
	}

	if got[0].PlaceID != "26338954" || got[0].DistanceMeters == nil || *got[0].DistanceMeters != 418 {
		t.Errorf("first result = %+v", got[0])
	}
	if got[1].DistanceMeters != nil {
		t.Errorf("unparsable distance should be nil, got %d", *got[1].DistanceMeters)
	}
	if got[2].Latitude != nil || got[2].Longitude != nil {
		t.Errorf("unparsable coordinates should be nil")
	}
	for _, want := range []string{"radius=3000", "sort=distance", "x=127", "y=37.5"} {
		if !strings.Contains(rawQuery, want) {
			t.Errorf("query %q missing %q", rawQuery, want)
		}
	}
}

func TestKakaoSearchKeywordWithoutOrigin(t *testing.T) {
	t.Parallel()

	var params url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params = r.URL.Query()
		_, _ = w.Write([]byte(`{"documents":[],"meta":{"total_count":0}}`))
	}))
	defer server.Close()

	client := newTestKakao(server.URL, "test-key")
	got, err := client.SearchKeyword(context.Background(), KeywordQuery{Query: "케이크", RadiusMeters: 3000})
	if err != nil {
		t.Fatalf("SearchKeyword() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d results, want 0", len(got))
	}
	if params.Get("query") != "케이크" {
		t.Errorf("query = %q", params.Get("query"))
	}
	for _, absent := range []string{"radius", "x", "y", "sort"} {
		if params.Has(absent) {
			t.Errorf("%s should not be sent without an origin", absent)
		}
	}
}

func TestKakaoTransportFailureIsUnavailable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	baseURL := server.URL
	server.Close()

	client := newTestKakao(baseURL, "test-key")
	_, err := client.SearchKeyword(context.Background(), KeywordQuery{Query: "빵"})
	if !errors.Is(err, models.ErrUpstreamUnavailable) {
		t.Fatalf("error = %v, want ErrUpstreamUnavailable", err)
	}
}

func TestKakaoWithoutKey(t *testing.T) {
	t.Parallel()

	client := newTestKakao("http://127.0.0.1:1", "")
	if client.IsAvailable() {
		t.Fatal("client without key should not be available")
	}
	if got := client.Search(context.Background(), models.Coordinate{Latitude: 37.5, Longitude: 127.0}, 1000); len(got) != 0 {
		t.Errorf("expected empty result, got %d", len(got))
	}
}

func TestKakaoKeywordRejectionsDoNotOpenNearbyBreaker(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("query") != "빵집" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"errorType":"InvalidArgument","message":"query too odd"}`))
			return
		}
		_, _ = w.Write([]byte(kakaoFixture))
	}))
	defer server.Close()

	client := newTestKakao(server.URL, "test-key")
	for i := 0; i < 12; i++ {
		_, err := client.SearchKeyword(context.Background(), KeywordQuery{Query: "%%%", Size: 15})
		if err == nil {
			t.Fatalf("keyword call %d: expected an error", i)
		}
	}

	states := client.BreakerStates()
	if states[kakaoKeywordBreaker] != "open" {
		t.Errorf("keyword breaker = %q, want open", states[kakaoKeywordBreaker])
	}
	if states[kakaoNearbyBreaker] != "closed" {
		t.Errorf("nearby breaker = %q, want closed", states[kakaoNearbyBreaker])
	}

	got := client.Search(context.Background(), models.Coordinate{Latitude: 37.5, Longitude: 127.0}, 1500)
	if len(got) == 0 {
		t.Error("nearby search returned nothing after keyword rejections")
	}
}

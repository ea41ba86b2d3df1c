// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

package aggregate

import (
	"errors"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/crumb/internal/geo"
	"github.com/tomtom215/crumb/internal/metrics"
	"github.com/tomtom215/crumb/internal/models"
)

func cand(id, name string, lat, lng float64, rating *float64) models.Candidate {
	p := models.ProviderKakao
	if len(id) > 7 && id[:7] == "GOOGLE_" {
		p = models.ProviderGoogle
	}
	return models.Candidate{
		ExternalID: id,
		Name:       name,
		Coordinate: models.Coordinate{Latitude: lat, Longitude: lng},
		Provider:   p,
		Rating:     rating,
	}
}

func ptr[T any](v T) *T { return &v }

func ids(cs []models.Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ExternalID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestAggregateMergesCrossProviderDuplicate(t *testing.T) {
	before := testutil.ToFloat64(metrics.AggregateDuplicatesDropped)

	origin := models.Coordinate{Latitude: 37.49, Longitude: 126.99}
	kakao := []models.Candidate{cand("KAKAO_1", "Blue Bakery", 37.50, 127.00, nil)}
	google := []models.Candidate{cand("GOOGLE_1", "blue bakery", 37.5001, 127.0001, ptr(4.5))}

	got, err := Aggregate([][]models.Candidate{kakao, google}, origin, models.SortByDistance, nil)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1 merged entry: %v", len(got), ids(got))
	}
	if got[0].ExternalID != "KAKAO_1" {
		t.Errorf("first seen should win, got %s", got[0].ExternalID)
	}

	nearer := math.Min(
		geo.DistanceMeters(origin, kakao[0].Coordinate),
		geo.DistanceMeters(origin, google[0].Coordinate),
	)
	if got[0].DistanceMeters == nil || *got[0].DistanceMeters != nearer {
		t.Errorf("DistanceMeters = %v, want %v", got[0].DistanceMeters, nearer)
	}

	if delta := testutil.ToFloat64(metrics.AggregateDuplicatesDropped) - before; delta != 1 {
		t.Errorf("duplicates dropped metric delta = %v, want 1", delta)
	}
}

func TestAggregateDedupBoundary(t *testing.T) {
	t.Parallel()

	origin := models.Coordinate{Latitude: 37.5, Longitude: 127.0}
	base := cand("KAKAO_1", "밀도", 37.5, 127.0, nil)

	tests := []struct {
		name      string
		other     models.Candidate
		wantCount int
	}{
		{"same name far apart", cand("GOOGLE_1", "밀도", 37.5010, 127.0, nil), 2}, // ~111 m
		{"same name close", cand("GOOGLE_1", "밀 도", 37.5003, 127.0, nil), 1},    // ~33 m
		{"different name close", cand("GOOGLE_1", "밀도 성수점", 37.5001, 127.0, nil), 2},
		{"identical position", cand("GOOGLE_1", "밀도", 37.5, 127.0, nil), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Aggregate([][]models.Candidate{{base}, {tt.other}}, origin, models.SortByDistance, nil)
			if err != nil {
				t.Fatalf("Aggregate() error = %v", err)
			}
			if len(got) != tt.wantCount {
				t.Errorf("got %d candidates, want %d", len(got), tt.wantCount)
			}
		})
	}
}

func TestAggregateDedupWithinOneProvider(t *testing.T) {
	t.Parallel()

	origin := models.Coordinate{Latitude: 37.5, Longitude: 127.0}
	list := []models.Candidate{
		cand("KAKAO_1", "Cafe Layered", 37.5, 127.0, nil),
		cand("KAKAO_2", "CAFE LAYERED", 37.50001, 127.0, nil),
	}
	got, err := Aggregate([][]models.Candidate{list}, origin, models.SortByDistance, nil)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if !equalIDs(ids(got), []string{"KAKAO_1"}) {
		t.Errorf("got %v, want [KAKAO_1]", ids(got))
	}
}

func TestAggregateSortByDistance(t *testing.T) {
	t.Parallel()

	origin := models.Coordinate{Latitude: 37.5, Longitude: 127.0}
	lists := [][]models.Candidate{
		{cand("KAKAO_far", "far", 37.52, 127.0, nil), cand("KAKAO_near", "near", 37.501, 127.0, nil)},
		{cand("GOOGLE_mid", "mid", 37.51, 127.0, ptr(3.0))},
	}

	got, err := Aggregate(lists, origin, models.SortByDistance, nil)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	want := []string{"KAKAO_near", "GOOGLE_mid", "KAKAO_far"}
	if !equalIDs(ids(got), want) {
		t.Errorf("order = %v, want %v", ids(got), want)
	}
	for i := 1; i < len(got); i++ {
		if *got[i-1].DistanceMeters > *got[i].DistanceMeters {
			t.Errorf("not ascending at %d", i)
		}
	}
}

func TestAggregateSortByRating(t *testing.T) {
	t.Parallel()

	origin := models.Coordinate{Latitude: 37.5, Longitude: 127.0}
	lists := [][]models.Candidate{
		{
			cand("KAKAO_a", "a", 37.501, 127.0, nil),
			cand("KAKAO_b", "b", 37.502, 127.0, ptr(4.1)),
		},
		{
			cand("GOOGLE_c", "c", 37.503, 127.0, ptr(4.8)),
			cand("GOOGLE_d", "d", 37.504, 127.0, nil),
			cand("GOOGLE_e", "e", 37.505, 127.0, ptr(4.1)),
		},
	}

	got, err := Aggregate(lists, origin, models.SortByRating, nil)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	// Equal ratings and missing ratings keep input order.
	want := []string{"GOOGLE_c", "KAKAO_b", "GOOGLE_e", "KAKAO_a", "GOOGLE_d"}
	if !equalIDs(ids(got), want) {
		t.Errorf("order = %v, want %v", ids(got), want)
	}
	for _, c := range got {
		if c.DistanceMeters == nil {
			t.Errorf("%s has no distance", c.ExternalID)
		}
	}
}

func TestAggregateLimit(t *testing.T) {
	t.Parallel()

	origin := models.Coordinate{Latitude: 37.5, Longitude: 127.0}
	lists := [][]models.Candidate{{
		cand("KAKAO_1", "one", 37.501, 127.0, nil),
		cand("KAKAO_2", "two", 37.502, 127.0, nil),
		cand("KAKAO_3", "three", 37.503, 127.0, nil),
	}}

	got, err := Aggregate(lists, origin, models.SortByDistance, ptr(2))
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if !equalIDs(ids(got), []string{"KAKAO_1", "KAKAO_2"}) {
		t.Errorf("got %v", ids(got))
	}

	got, err = Aggregate(lists, origin, models.SortByDistance, ptr(10))
	if err != nil || len(got) != 3 {
		t.Errorf("limit above size: len=%d err=%v", len(got), err)
	}
}

func TestAggregateValidation(t *testing.T) {
	t.Parallel()

	valid := models.Coordinate{Latitude: 37.5, Longitude: 127.0}
	tests := []struct {
		name   string
		origin models.Coordinate
		sort   models.SortKey
		limit  *int
		field  string
	}{
		{"zero limit", valid, models.SortByDistance, ptr(0), "limit"},
		{"negative limit", valid, models.SortByDistance, ptr(-1), "limit"},
		{"bad origin", models.Coordinate{Latitude: 91, Longitude: 0}, models.SortByDistance, nil, "lat"},
		{"bad sort", valid, models.SortKey("popularity"), nil, "sort"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Aggregate(nil, tt.origin, tt.sort, tt.limit)
			if !errors.Is(err, models.ErrValidation) {
				t.Fatalf("error = %v, want ErrValidation", err)
			}
			var ve *models.ValidationError
			if errors.As(err, &ve) && ve.Field != tt.field {
				t.Errorf("field = %q, want %q", ve.Field, tt.field)
			}
		})
	}
}

func TestAggregateDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	in := []models.Candidate{cand("KAKAO_1", "one", 37.501, 127.0, nil)}
	if _, err := Aggregate([][]models.Candidate{in}, models.Coordinate{Latitude: 37.5, Longitude: 127.0}, models.SortByDistance, nil); err != nil {
		t.Fatal(err)
	}
	if in[0].DistanceMeters != nil {
		t.Error("input candidate was modified")
	}
}

func TestAggregateDeterministic(t *testing.T) {
	t.Parallel()

	origin := models.Coordinate{Latitude: 37.5, Longitude: 127.0}
	lists := [][]models.Candidate{
		{cand("KAKAO_1", "x", 37.501, 127.0, ptr(4.0)), cand("KAKAO_2", "y", 37.501, 127.0, ptr(4.0))},
		{cand("GOOGLE_1", "z", 37.501, 127.0, ptr(4.0))},
	}
	first, _ := Aggregate(lists, origin, models.SortByRating, nil)
	for i := 0; i < 20; i++ {
		again, _ := Aggregate(lists, origin, models.SortByRating, nil)
		if !equalIDs(ids(first), ids(again)) {
			t.Fatalf("run %d produced %v, want %v", i, ids(again), ids(first))
		}
	}
}

func TestNormalizeName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		same bool
	}{
		{"Blue Bakery", "blue bakery", true},
		{"Blue Bakery", "BLUEBAKERY", true},
		{"Ｂｌｕｅ　Ｂａｋｅｒｙ", "blue bakery", true}, // full-width letters and ideographic space
		{"파리바게뜨 성수점", "파리바게뜨성수점", true},
		{"Straße", "STRASSE", true},
		{"Blue Bakery", "Blue Bakery 2", false},
	}

	for _, tt := range tests {
		got := NormalizeName(tt.a) == NormalizeName(tt.b)
		if got != tt.same {
			t.Errorf("NormalizeName(%q) == NormalizeName(%q) is %v, want %v (%q vs %q)",
				tt.a, tt.b, got, tt.same, NormalizeName(tt.a), NormalizeName(tt.b))
		}
	}
}

// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/tomtom215/crumb/internal/models"
)

func f64(v float64) *float64 { return &v }
func intp(v int) *int        { return &v }

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()
	if v1 == nil || v1 != v2 {
		t.Error("GetValidator() should return one non-nil instance")
	}
}

func TestNearbyRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		req       NearbyRequest
		wantField string
	}{
		{"valid minimal", NearbyRequest{Latitude: f64(37.5), Longitude: f64(127.0)}, ""},
		{"valid full", NearbyRequest{Latitude: f64(37.5), Longitude: f64(127.0), Radius: intp(50000), Sort: "rating", Limit: intp(100)}, ""},
		{"missing lat", NearbyRequest{Longitude: f64(127.0)}, "lat"},
		{"lat out of range", NearbyRequest{Latitude: f64(91), Longitude: f64(127.0)}, "lat"},
		{"lng out of range", NearbyRequest{Latitude: f64(37.5), Longitude: f64(-181)}, "lng"},
		{"radius too small", NearbyRequest{Latitude: f64(37.5), Longitude: f64(127.0), Radius: intp(99)}, "radius"},
		{"radius too large", NearbyRequest{Latitude: f64(37.5), Longitude: f64(127.0), Radius: intp(50001)}, "radius"},
		{"unknown sort", NearbyRequest{Latitude: f64(37.5), Longitude: f64(127.0), Sort: "price"}, "sort"},
		{"zero limit", NearbyRequest{Latitude: f64(37.5), Longitude: f64(127.0), Limit: intp(0)}, "limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateStruct(&tt.req)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var rve *RequestValidationError
			if !errors.As(err, &rve) {
				t.Fatalf("error = %v, want *RequestValidationError", err)
			}
			if got := rve.Errors()[0].Field(); got != tt.wantField {
				t.Errorf("field = %q, want %q", got, tt.wantField)
			}
			if !errors.Is(err, models.ErrValidation) {
				t.Error("validation errors must match models.ErrValidation")
			}
		})
	}
}

func TestKeywordSearchRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     KeywordSearchRequest
		wantErr bool
	}{
		{"query only", KeywordSearchRequest{Query: "단팥빵"}, false},
		{"with coordinate", KeywordSearchRequest{Query: "단팥빵", Latitude: f64(37.5), Longitude: f64(127.0), Radius: intp(3000)}, false},
		{"200 characters", KeywordSearchRequest{Query: strings.Repeat("빵", 200)}, false},
		{"201 characters", KeywordSearchRequest{Query: strings.Repeat("빵", 201)}, true},
		{"blank", KeywordSearchRequest{Query: "   "}, true},
		{"empty", KeywordSearchRequest{}, true},
		{"lat without lng", KeywordSearchRequest{Query: "빵", Latitude: f64(37.5)}, true},
		{"radius above cap", KeywordSearchRequest{Query: "빵", Radius: intp(20001)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateStruct(&tt.req)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStruct() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	err := ValidateStruct(&NearbyRequest{Latitude: f64(37.5), Longitude: f64(127.0), Sort: "price", Limit: intp(500)})
	var rve *RequestValidationError
	if !errors.As(err, &rve) {
		t.Fatalf("error = %v", err)
	}
	if len(rve.Errors()) != 2 {
		t.Fatalf("got %d errors, want 2", len(rve.Errors()))
	}

	msg := rve.Error()
	for _, want := range []string{"sort must be one of: distance, rating", "limit must be at most 100"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
	if _, ok := rve.Details()["fields"]; !ok {
		t.Error("multi-error details should list fields")
	}
}

func TestHistoryRequest(t *testing.T) {
	t.Parallel()

	if err := ValidateStruct(&HistoryRequest{Limit: 20}); err != nil {
		t.Errorf("limit 20: %v", err)
	}
	err := ValidateStruct(&HistoryRequest{Limit: 101})
	var rve *RequestValidationError
	if !errors.As(err, &rve) || rve.Details()["field"] != "limit" {
		t.Errorf("limit 101: %v", err)
	}
}

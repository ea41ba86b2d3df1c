// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/tomtom215/crumb/internal/identity"
	"github.com/tomtom215/crumb/internal/models"
	"github.com/tomtom215/crumb/internal/validation"
)

func TestClassifyError(t *testing.T) {
	t.Parallel()

	lat := 120.0
	reqErr := validation.ValidateStruct(&validation.RecommendRequest{Latitude: &lat})

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"request validation", reqErr, http.StatusBadRequest, CodeValidation},
		{"model validation", models.NewValidationError("lat", "out of range"), http.StatusBadRequest, CodeValidation},
		{"bare sentinel", fmt.Errorf("wrapped: %w", models.ErrValidation), http.StatusBadRequest, CodeValidation},
		{"unauthenticated", fmt.Errorf("%w: expired", identity.ErrUnauthenticated), http.StatusUnauthorized, CodeUnauthorized},
		{"unavailable", models.NewUnavailableError("kakao", context.DeadlineExceeded), http.StatusBadGateway, CodeUpstream},
		{"rejected", models.NewRejectedError("kakao", 400, "", nil), http.StatusBadGateway, CodeUpstream},
		{"persistence", models.NewPersistenceError("append", errors.New("disk full")), http.StatusInternalServerError, CodeInternal},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := classifyError(tt.err)
			if got.status != tt.wantStatus || got.code != tt.wantCode {
				t.Errorf("classifyError() = %d %s, want %d %s", got.status, got.code, tt.wantStatus, tt.wantCode)
			}
		})
	}
}

func TestSanitizeLogValue(t *testing.T) {
	t.Parallel()

	if got := sanitizeLogValue("a\nb\x7f빵"); got != `a\x0ab\x7f빵` {
		t.Errorf("sanitizeLogValue() = %q", got)
	}
}

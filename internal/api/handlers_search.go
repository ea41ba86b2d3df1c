// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/tomtom215/crumb/internal/identity"
	"github.com/tomtom215/crumb/internal/models"
	"github.com/tomtom215/crumb/internal/validation"
)

const (
	defaultHistoryLimit = 20
	countWindow         = 24 * time.Hour
)

// SearchBakeries handles GET /api/v1/search/bakeries?query=&lat=&lng=&radius=
//
// Runs a keyword search for the authenticated user. A successful search is
// recorded to the user's history; a provider failure returns 502.
func (h *Handler) SearchBakeries(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	userID, ok := identity.UserID(r.Context())
	if !ok {
		respondError(w, r, start, identity.ErrUnauthenticated)
		return
	}

	req, err := parseKeywordSearchRequest(r)
	if err != nil {
		respondError(w, r, start, err)
		return
	}

	results, err := h.search.SearchAndRecord(r.Context(), userID, req.Query,
		coordinateOf(req.Latitude, req.Longitude), req.Radius)
	if err != nil {
		respondError(w, r, start, err)
		return
	}

	respondSuccess(w, r, start, models.SearchResponse{
		Query:   strings.TrimSpace(req.Query),
		Count:   len(results),
		Results: results,
	})
}

func parseKeywordSearchRequest(r *http.Request) (*validation.KeywordSearchRequest, error) {
	var (
		req validation.KeywordSearchRequest
		err error
	)
	req.Query = r.URL.Query().Get("query")
	if req.Latitude, err = floatParam(r, "lat"); err != nil {
		return nil, err
	}
	if req.Longitude, err = floatParam(r, "lng"); err != nil {
		return nil, err
	}
	if req.Radius, err = intParam(r, "radius"); err != nil {
		return nil, err
	}

	if err := validation.ValidateStruct(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// SearchHistory handles GET /api/v1/search/history?limit=
//
// Returns the caller's most recent searches, newest first, and how many
// searches they made in the last 24 hours.
func (h *Handler) SearchHistory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	userID, ok := identity.UserID(r.Context())
	if !ok {
		respondError(w, r, start, identity.ErrUnauthenticated)
		return
	}

	limit, err := intParam(r, "limit")
	if err != nil {
		respondError(w, r, start, err)
		return
	}
	req := validation.HistoryRequest{Limit: defaultHistoryLimit}
	if limit != nil {
		req.Limit = *limit
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondError(w, r, start, err)
		return
	}

	records, err := h.history.RecentByUser(r.Context(), userID, req.Limit)
	if err != nil {
		respondError(w, r, start, err)
		return
	}
	count, err := h.history.CountSince(r.Context(), userID, h.now().Add(-countWindow))
	if err != nil {
		respondError(w, r, start, err)
		return
	}

	respondSuccess(w, r, start, models.HistoryResponse{
		Count24h: count,
		Records:  records,
	})
}

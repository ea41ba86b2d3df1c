// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/crumb/internal/identity"
	"github.com/tomtom215/crumb/internal/models"
	"github.com/tomtom215/crumb/internal/validation"
)

// RecommendBakeries handles GET /api/v1/recommend/bakeries?lat=&lng=
//
// Recommendations are personalized from the caller's search history. An
// upstream failure yields an empty list with 200.
func (h *Handler) RecommendBakeries(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	userID, ok := identity.UserID(r.Context())
	if !ok {
		respondError(w, r, start, identity.ErrUnauthenticated)
		return
	}

	var (
		req validation.RecommendRequest
		err error
	)
	if req.Latitude, err = floatParam(r, "lat"); err != nil {
		respondError(w, r, start, err)
		return
	}
	if req.Longitude, err = floatParam(r, "lng"); err != nil {
		respondError(w, r, start, err)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondError(w, r, start, err)
		return
	}

	origin := models.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude}
	items := h.recommend.Recommend(r.Context(), userID, origin)
	if items == nil {
		items = []models.RecommendedItem{}
	}

	respondSuccess(w, r, start, models.RecommendResponse{
		Count: len(items),
		Items: items,
	})
}

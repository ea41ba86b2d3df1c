// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/crumb/internal/models"
	"github.com/tomtom215/crumb/internal/search"
	"github.com/tomtom215/crumb/internal/validation"
)

// Bakeries handles GET /api/v1/bakeries?lat=&lng=&radius=&sort=&limit=
//
// Returns bakeries near the point merged across every provider. A provider
// outage shrinks the list; it never fails the request.
func (h *Handler) Bakeries(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req, err := parseNearbyRequest(r)
	if err != nil {
		respondError(w, r, start, err)
		return
	}

	bakeries, err := h.bakeries.Nearby(r.Context(), search.NearbyQuery{
		Origin: models.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude},
		Radius: req.Radius,
		Sort:   models.SortKey(req.Sort),
		Limit:  req.Limit,
	})
	if err != nil {
		respondError(w, r, start, err)
		return
	}

	respondSuccess(w, r, start, models.BakeriesResponse{
		Count:    len(bakeries),
		Bakeries: bakeries,
	})
}

func parseNearbyRequest(r *http.Request) (*validation.NearbyRequest, error) {
	var (
		req validation.NearbyRequest
		err error
	)
	if req.Latitude, err = floatParam(r, "lat"); err != nil {
		return nil, err
	}
	if req.Longitude, err = floatParam(r, "lng"); err != nil {
		return nil, err
	}
	if req.Radius, err = intParam(r, "radius"); err != nil {
		return nil, err
	}
	if req.Limit, err = intParam(r, "limit"); err != nil {
		return nil, err
	}
	req.Sort = r.URL.Query().Get("sort")

	if err := validation.ValidateStruct(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

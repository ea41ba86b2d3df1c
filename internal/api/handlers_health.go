// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/crumb/internal/logging"
	"github.com/tomtom215/crumb/internal/models"
)

const healthCheckTimeout = 2 * time.Second

// Health handles GET /health and GET /api/v1/health.
//
// Always 200 while the process serves requests; status is "degraded" when
// the history database does not answer a ping or a provider circuit is open.
// The memory backend has no database and reports database_connected false.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	status := "healthy"
	dbConnected := false
	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Str("component", "api").Msg("Health check database ping failed")
			status = "degraded"
		} else {
			dbConnected = true
		}
	}

	health := models.HealthStatus{
		Status:            status,
		Version:           Version,
		HistoryBackend:    h.historyBackend,
		DatabaseConnected: dbConnected,
		Uptime:            time.Since(h.startTime).Seconds(),
	}

	if h.spool != nil {
		if n, err := h.spool.Len(); err == nil {
			health.SpoolPending = &n
		}
	}

	if h.breakers != nil {
		health.Breakers = h.breakers.BreakerStates()
		for _, state := range health.Breakers {
			if state == "open" {
				health.Status = "degraded"
			}
		}
	}

	respondSuccess(w, r, start, health)
}

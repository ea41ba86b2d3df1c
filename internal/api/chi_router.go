// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/crumb/internal/identity"
	"github.com/tomtom215/crumb/internal/middleware"
)

// Router wires handlers and middleware into a chi route table.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	resolver      identity.Resolver
}

// NewRouter creates a Router. resolver authenticates the /search and
// /recommend groups.
func NewRouter(handler *Handler, chiMw *ChiMiddleware, resolver identity.Resolver) *Router {
	if chiMw == nil {
		chiMw = NewChiMiddleware(nil)
	}
	return &Router{
		handler:       handler,
		chiMiddleware: chiMw,
		resolver:      resolver,
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Applied to all routes in order
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AccessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // must be global to answer OPTIONS preflight
	r.Use(middleware.PrometheusMetrics)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, req, time.Now(), apiError{status: http.StatusNotFound, code: CodeNotFound, message: "resource not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, req, time.Now(), apiError{status: http.StatusMethodNotAllowed, code: CodeMethod, message: "method not allowed"})
	})

	r.Handle("/metrics", promhttp.Handler())

	r.With(router.chiMiddleware.RateLimitHealth(), APISecurityHeaders()).
		Get("/health", router.handler.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(APISecurityHeaders())

		r.With(router.chiMiddleware.RateLimitHealth()).Get("/health", router.handler.Health)

		// Public
		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())
			r.Get("/bakeries", router.handler.Bakeries)
		})

		// Authenticated
		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())
			r.Use(Authenticate(router.resolver))

			r.Get("/search/bakeries", router.handler.SearchBakeries)
			r.Get("/search/history", router.handler.SearchHistory)
			r.Get("/recommend/bakeries", router.handler.RecommendBakeries)
		})
	})

	return r
}

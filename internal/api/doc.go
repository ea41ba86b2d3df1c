// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

/*
Package api exposes Crumb over HTTP using the chi router.

Routes:

	GET /health                      liveness plus database ping
	GET /api/v1/health               same, under the versioned prefix
	GET /api/v1/bakeries             nearby bakeries from every provider (public)
	GET /api/v1/search/bakeries      keyword search, recorded to history (auth)
	GET /api/v1/search/history       the caller's recent searches (auth)
	GET /api/v1/recommend/bakeries   personalized recommendations (auth)
	GET /metrics                     Prometheus scrape endpoint

Every JSON body uses the models.APIResponse envelope. Errors map to status
codes by kind:

	validation        400 VALIDATION_ERROR
	unauthenticated   401 UNAUTHORIZED
	upstream failure  502 UPSTREAM_ERROR
	anything else     500 INTERNAL_ERROR

Authenticated routes expect "Authorization: Bearer <token>". The token is
resolved to a user id by an identity.Resolver and stored in the request
context for handlers (identity.UserID) and log lines (logging.Ctx).

Handler methods are split across files:

  - handlers.go: Handler, its dependencies and constructor
  - handlers_helpers.go: response writing and query parsing
  - handlers_health.go, handlers_bakeries.go, handlers_search.go,
    handlers_recommend.go: one file per resource
  - errors.go: error kind to status mapping
  - chi_middleware.go: CORS, rate limits, security headers, bearer auth
  - chi_router.go: route table
*/
package api

// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

/*
Package middleware provides the chi-compatible HTTP middleware shared by every
route: request id tracking, Prometheus request metrics and access logging.

Each middleware has the func(http.Handler) http.Handler shape so it plugs into
chi's r.Use directly:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.AccessLog)

Request IDs:

RequestID honors an inbound X-Request-ID when it is a short token of safe
characters and generates a UUID otherwise. The id is echoed in the response
header and stored in the request context both here (GetRequestID) and in the
logging package, so logging.Ctx(ctx) lines carry request_id and a fresh
correlation_id.

Metrics:

PrometheusMetrics labels requests by the matched chi route pattern rather
than the raw path, so path parameters and probing traffic cannot explode
label cardinality. Unmatched requests are labeled "unmatched".

See Also:

  - internal/api: router and handlers
  - internal/metrics: metric definitions
*/
package middleware

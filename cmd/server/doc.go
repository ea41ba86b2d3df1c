// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

/*
Package main is the entry point for the Crumb server.

Crumb searches bakeries through Kakao Local and Google Places, merges and
deduplicates the results, records users' keyword searches and asks an
external recommendation service for personalized picks.

# Application Architecture

	RootSupervisor ("crumb")
	├── DataSupervisor ("data-layer")
	│   ├── history recorder (async search history writes)
	│   └── history replayer (spooled write retries, SPOOL_ENABLED=true)
	└── APISupervisor ("api-layer")
	    └── HTTP server (chi router)

Initialization order:

 1. Configuration: koanf with defaults, config.yaml and environment
 2. Logging: zerolog, JSON or console
 3. History store: DuckDB file, or in memory with HISTORY_BACKEND=memory
 4. Spool: BadgerDB directory for failed history writes (optional)
 5. Providers, search, recommendation and identity services
 6. Supervisor tree with the HTTP server

# Signal Handling

SIGINT and SIGTERM stop the tree: the HTTP server drains in-flight requests
within SERVER_SHUTDOWN_TIMEOUT, the recorder flushes its queue, then the
spool and the database are closed.

# Example Usage

Development, in-memory history and user ids as bearer tokens:

	export KAKAO_REST_API_KEY=...
	export GOOGLE_PLACES_API_KEY=...
	export RECOMMEND_BASE_URL=http://localhost:8000
	export HISTORY_BACKEND=memory
	export AUTH_MODE=header
	./crumb

	curl -H 'Authorization: Bearer 42' 'localhost:8080/api/v1/search/bakeries?query=소금빵'
*/
package main

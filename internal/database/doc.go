// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

// Package database is the DuckDB-backed search history store.
//
// # Overview
//
// DB owns a single DuckDB database holding one append-only table,
// search_history. It satisfies history.Store:
//
//   - Append inserts a record and returns it with its generated id
//   - RecentByUser returns a user's most recent records, newest first
//   - CountSince counts a user's records after a point in time
//
// # Files
//
//   - database.go: lifecycle (open, ping, checkpoint, close)
//   - database_connection.go: connection string and pool settings
//   - database_schema.go: table, sequence and index creation
//   - search_history.go: history queries
//
// # Errors
//
// Every query failure is returned as *models.PersistenceError so callers
// can match models.ErrPersistence. Invalid records fail with
// *models.ValidationError before touching the database.
//
// # Timestamps
//
// created_at is stored as a plain TIMESTAMP in UTC. The ICU extension is
// never required.
package database

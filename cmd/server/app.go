// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

package main

import (
	"fmt"
	"io"
	"net/http"

	"github.com/tomtom215/crumb/internal/api"
	"github.com/tomtom215/crumb/internal/config"
	"github.com/tomtom215/crumb/internal/database"
	"github.com/tomtom215/crumb/internal/history"
	"github.com/tomtom215/crumb/internal/identity"
	"github.com/tomtom215/crumb/internal/logging"
	"github.com/tomtom215/crumb/internal/provider"
	"github.com/tomtom215/crumb/internal/recommend"
	"github.com/tomtom215/crumb/internal/search"
)

// app holds the wired components. closers run in reverse order.
type app struct {
	store    history.Store
	spool    *history.Spool
	recorder *history.Recorder
	replayer *history.Replayer
	router   http.Handler
	closers  []namedCloser
}

type namedCloser struct {
	name string
	c    io.Closer
}

// newApp wires storage, services and the router from cfg. On error every
// resource opened so far is closed.
func newApp(cfg *config.Config) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	deps := api.Dependencies{HistoryBackend: cfg.History.Backend}

	switch cfg.History.Backend {
	case config.HistoryBackendDuckDB:
		db, err := database.New(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("open history database: %w", err)
		}
		a.closers = append(a.closers, namedCloser{"database", db})
		a.store = db
		deps.Database = db
	default:
		mem := history.NewMemoryStore()
		a.closers = append(a.closers, namedCloser{"memory store", mem})
		a.store = mem
		logging.Warn().Msg("Search history is kept in memory and lost on restart")
	}

	// A nil *Spool must not become a non-nil Spooler.
	var spooler history.Spooler
	if cfg.Spool.Enabled {
		spool, err := history.OpenSpool(&cfg.Spool)
		if err != nil {
			return nil, fmt.Errorf("open history spool: %w", err)
		}
		a.closers = append(a.closers, namedCloser{"spool", spool})
		a.spool = spool
		spooler = spool
		deps.Spool = spool
		a.replayer = history.NewReplayer(spool, a.store, &cfg.Spool, cfg.History.WriteTimeout)
	}
	a.recorder = history.NewRecorder(a.store, spooler, &cfg.History)

	registry, kakao, err := provider.NewRegistryFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("build providers: %w", err)
	}

	resolver, err := identity.New(&cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("build identity resolver: %w", err)
	}

	deps.Breakers = registry
	deps.Bakeries = search.NewBakeryService(registry, &cfg.Bakery)
	deps.Search = search.NewOrchestrator(kakao, a.recorder, &cfg.Search)
	deps.History = a.store
	deps.Recommend = recommend.NewService(a.store, recommend.NewFetcher(&cfg.Recommend), &cfg.Recommend)

	handler := api.NewHandler(deps)
	chiMw := api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(&cfg.Security))
	a.router = api.NewRouter(handler, chiMw, resolver).SetupChi()

	return a, nil
}

// Close releases storage in reverse order of opening. It is safe on a nil
// app and safe to call twice.
func (a *app) Close() {
	if a == nil {
		return
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		nc := a.closers[i]
		if err := nc.c.Close(); err != nil {
			logging.Error().Err(err).Str("resource", nc.name).Msg("Error closing resource")
		}
	}
	a.closers = nil
}

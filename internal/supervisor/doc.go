// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

/*
Package supervisor provides process supervision for Crumb using suture v4.

# Overview

Long-running services are organized into two layers so a crash in one does
not take the other down:

	RootSupervisor ("crumb")
	├── DataSupervisor ("data-layer")
	│   ├── history.Recorder   (async search history writer)
	│   └── history.Replayer   (spool replay, when the spool is enabled)
	└── APISupervisor ("api-layer")
	    └── services.HTTPServerService

Crashed services restart with suture's failure decay and backoff. Events are
logged through sutureslog on top of the zerolog-backed slog handler from
internal/logging.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
	    ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddDataService(recorder)
	tree.AddAPIService(services.NewHTTPServerService(server, &cfg.Server))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    logging.Error().Err(err).Msg("Supervisor tree stopped")
	}

Shutdown cancels every layer at once. Records enqueued by requests that
finish after the recorder stopped are written by history.Recorder.Flush,
which the caller runs once Serve returns.
*/
package supervisor

// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

package provider

import (
	"context"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/crumb/internal/models"
)

// getJSON performs a GET and decodes a 2xx JSON body into out.
//
// Transport failures (including context deadline) become
// ErrUpstreamUnavailable; a received non-2xx status or an undecodable body
// becomes ErrUpstreamRejected.
func getJSON(ctx context.Context, client *http.Client, service, reqURL string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", service, err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return models.NewUnavailableError(service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.NewRejectedError(service, resp.StatusCode, readBodyForError(resp.Body), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return models.NewRejectedError(service, resp.StatusCode, "", fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

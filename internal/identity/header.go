// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

package identity

import (
	"context"
	"fmt"
	"strconv"

	"github.com/tomtom215/crumb/internal/config"
)

// HeaderResolver trusts the token to be a decimal user id. Refused by
// config validation in production.
type HeaderResolver struct{}

// Resolve parses token as a positive user id.
func (HeaderResolver) Resolve(_ context.Context, token string) (int64, error) {
	id, err := strconv.ParseInt(token, 10, 64)
	if err != nil || id <= 0 {
		record(config.AuthModeHeader, resultRejected)
		return 0, fmt.Errorf("%w: token is not a user id", ErrUnauthenticated)
	}
	record(config.AuthModeHeader, resultOK)
	return id, nil
}

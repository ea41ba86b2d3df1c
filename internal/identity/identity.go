// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

// Package identity maps a bearer credential to a user id.
//
// Three resolvers are available, selected by auth.mode:
//
//   - kakao: the token is a Kakao access token, checked against the Kakao
//     user-info API. Positive answers are cached.
//   - jwt: the token is an HS256 JWT whose subject is the user id.
//   - header: the token is the user id itself. Development only.
//
// Every resolver reports a bad or missing credential as ErrUnauthenticated.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tomtom215/crumb/internal/config"
	"github.com/tomtom215/crumb/internal/metrics"
)

// ErrUnauthenticated means the credential is missing, malformed or rejected.
var ErrUnauthenticated = errors.New("unauthenticated")

// Resolution results for metrics.
const (
	resultOK       = "ok"
	resultCached   = "cached"
	resultRejected = "rejected"
	resultError    = "error"
)

func record(mode, result string) {
	metrics.IdentityResolutions.WithLabelValues(mode, result).Inc()
}

// Resolver turns a bearer token into a user id.
type Resolver interface {
	Resolve(ctx context.Context, token string) (int64, error)
}

// New builds the resolver selected by cfg.Mode.
func New(cfg *config.AuthConfig) (Resolver, error) {
	switch cfg.Mode {
	case config.AuthModeKakao:
		return NewKakaoResolver(cfg), nil
	case config.AuthModeJWT:
		return NewJWTResolver(cfg)
	case config.AuthModeHeader:
		return HeaderResolver{}, nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Mode)
	}
}

// BearerToken extracts the token from an Authorization header.
func BearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", fmt.Errorf("%w: missing authorization header", ErrUnauthenticated)
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", fmt.Errorf("%w: invalid authorization header", ErrUnauthenticated)
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", fmt.Errorf("%w: empty bearer token", ErrUnauthenticated)
	}
	return token, nil
}

type contextKey struct{}

// WithUserID stores the resolved user id in ctx.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

// UserID returns the user id stored by WithUserID.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(contextKey{}).(int64)
	return id, ok
}

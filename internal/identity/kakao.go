// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

package identity

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/patrickmn/go-cache"
	"golang.org/x/crypto/blake2b"

	"github.com/tomtom215/crumb/internal/config"
	"github.com/tomtom215/crumb/internal/logging"
	"github.com/tomtom215/crumb/internal/models"
)

const (
	kakaoUserPath    = "/v2/user/me"
	maxErrorBodySize = 4 * 1024
)

type kakaoUser struct {
	ID int64 `json:"id"`
}

// KakaoResolver checks Kakao access tokens against the user-info API.
// Successful lookups are cached by a BLAKE2b digest of the token, so raw
// tokens are never held as cache keys.
type KakaoResolver struct {
	baseURL string
	client  *http.Client
	cache   *cache.Cache
}

// NewKakaoResolver creates a KakaoResolver. A zero CacheTTL disables caching.
func NewKakaoResolver(cfg *config.AuthConfig) *KakaoResolver {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	r := &KakaoResolver{
		baseURL: strings.TrimRight(cfg.KakaoUserURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
	if cfg.CacheTTL > 0 {
		r.cache = cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	return r
}

// Resolve returns the Kakao user id owning token.
func (k *KakaoResolver) Resolve(ctx context.Context, token string) (int64, error) {
	if token == "" {
		record(config.AuthModeKakao, resultRejected)
		return 0, fmt.Errorf("%w: empty token", ErrUnauthenticated)
	}

	key := tokenDigest(token)
	if k.cache != nil {
		if v, ok := k.cache.Get(key); ok {
			record(config.AuthModeKakao, resultCached)
			return v.(int64), nil
		}
	}

	id, err := k.lookup(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrUpstreamRejected) {
			record(config.AuthModeKakao, resultRejected)
		} else {
			record(config.AuthModeKakao, resultError)
			logging.Ctx(ctx).Warn().Err(err).Str("component", "identity").Msg("Kakao user lookup failed")
		}
		return 0, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	if k.cache != nil {
		k.cache.SetDefault(key, id)
	}
	record(config.AuthModeKakao, resultOK)
	return id, nil
}

func (k *KakaoResolver) lookup(ctx context.Context, token string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.baseURL+kakaoUserPath, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := k.client.Do(req)
	if err != nil {
		return 0, models.NewUnavailableError("kakao-user", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return 0, models.NewRejectedError("kakao-user", resp.StatusCode, string(body), nil)
	}

	var user kakaoUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return 0, models.NewRejectedError("kakao-user", resp.StatusCode, "", fmt.Errorf("failed to decode response: %w", err))
	}
	if user.ID <= 0 {
		return 0, models.NewRejectedError("kakao-user", resp.StatusCode, "", fmt.Errorf("response has no user id"))
	}
	return user.ID, nil
}

func tokenDigest(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Validate checks that required configuration is present and in range.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateProviders(); err != nil {
		return err
	}
	if err := c.validateBakery(); err != nil {
		return err
	}
	if err := c.validateRecommend(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	if err := c.validateAuth(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	return nil
}

func (c *Config) validateProviders() error {
	if len(c.Providers.Order) == 0 {
		return fmt.Errorf("PROVIDER_ORDER must list at least one provider")
	}
	seen := make(map[string]bool, len(c.Providers.Order))
	for _, name := range c.Providers.Order {
		name = strings.ToLower(name)
		if name != "kakao" && name != "google" {
			return fmt.Errorf("PROVIDER_ORDER contains unknown provider %q (allowed: kakao, google)", name)
		}
		if seen[name] {
			return fmt.Errorf("PROVIDER_ORDER lists %q twice", name)
		}
		seen[name] = true
	}
	if err := validateBaseURL("KAKAO_BASE_URL", c.Kakao.BaseURL); err != nil {
		return err
	}
	if err := validateBaseURL("GOOGLE_BASE_URL", c.Google.BaseURL); err != nil {
		return err
	}
	if c.Kakao.PageSize < 1 || c.Kakao.PageSize > 15 {
		return fmt.Errorf("kakao.page_size must be between 1 and 15, got %d", c.Kakao.PageSize)
	}
	if c.Kakao.MaxRadius <= 0 || c.Google.MaxRadius <= 0 {
		return fmt.Errorf("provider max_radius must be positive")
	}
	if c.Providers.CacheTTL < 0 {
		return fmt.Errorf("PROVIDER_CACHE_TTL must not be negative")
	}
	if c.Providers.BreakerFailureRatio <= 0 || c.Providers.BreakerFailureRatio > 1 {
		return fmt.Errorf("providers.breaker_failure_ratio must be in (0,1], got %v", c.Providers.BreakerFailureRatio)
	}
	return nil
}

func (c *Config) validateBakery() error {
	b := c.Bakery
	if b.MinRadius <= 0 || b.MinRadius > b.MaxRadius {
		return fmt.Errorf("bakery radius bounds invalid: min=%d max=%d", b.MinRadius, b.MaxRadius)
	}
	if b.DefaultRadius < b.MinRadius || b.DefaultRadius > b.MaxRadius {
		return fmt.Errorf("BAKERY_DEFAULT_RADIUS must be between %d and %d, got %d", b.MinRadius, b.MaxRadius, b.DefaultRadius)
	}
	if b.MaxLimit < 1 {
		return fmt.Errorf("bakery.max_limit must be positive")
	}
	if c.Search.DefaultRadius <= 0 {
		return fmt.Errorf("SEARCH_DEFAULT_RADIUS must be positive, got %d", c.Search.DefaultRadius)
	}
	if c.Search.PageSize < 1 || c.Search.PageSize > 15 {
		return fmt.Errorf("search.page_size must be between 1 and 15, got %d", c.Search.PageSize)
	}
	return nil
}

func (c *Config) validateRecommend() error {
	r := c.Recommend
	if err := validateBaseURL("RECOMMEND_BASE_URL", r.BaseURL); err != nil {
		return err
	}
	if r.Timeout < time.Second || r.Timeout > time.Minute {
		return fmt.Errorf("RECOMMEND_TIMEOUT must be between 1s and 60s, got %v", r.Timeout)
	}
	if r.MaxAttempts < 1 || r.MaxAttempts > 5 {
		return fmt.Errorf("RECOMMEND_MAX_ATTEMPTS must be between 1 and 5, got %d", r.MaxAttempts)
	}
	if r.BaseDelay <= 0 {
		return fmt.Errorf("RECOMMEND_BASE_DELAY must be positive")
	}
	if r.Limit < 1 || r.HistoryWindow < 1 || r.KeywordCount < 1 {
		return fmt.Errorf("recommend limit, history_window and keyword_count must be positive")
	}
	return nil
}

func (c *Config) validateHistory() error {
	switch c.History.Backend {
	case HistoryBackendDuckDB:
		if c.Database.Path == "" {
			return fmt.Errorf("DUCKDB_PATH is required when HISTORY_BACKEND=duckdb")
		}
	case HistoryBackendMemory:
	default:
		return fmt.Errorf("HISTORY_BACKEND must be duckdb or memory, got %q", c.History.Backend)
	}
	if c.History.QueueSize < 1 {
		return fmt.Errorf("HISTORY_QUEUE_SIZE must be positive")
	}
	if c.History.WriteTimeout <= 0 {
		return fmt.Errorf("HISTORY_WRITE_TIMEOUT must be positive")
	}
	if c.Spool.Enabled {
		if c.Spool.Path == "" {
			return fmt.Errorf("SPOOL_PATH is required when SPOOL_ENABLED=true")
		}
		if c.Spool.MaxAttempts < 1 {
			return fmt.Errorf("SPOOL_MAX_ATTEMPTS must be positive")
		}
		if c.Spool.RetryInterval < time.Second {
			return fmt.Errorf("SPOOL_RETRY_INTERVAL must be at least 1s, got %v", c.Spool.RetryInterval)
		}
	}
	return nil
}

func (c *Config) validateAuth() error {
	switch c.Auth.Mode {
	case AuthModeKakao:
		return validateBaseURL("KAKAO_USER_URL", c.Auth.KakaoUserURL)
	case AuthModeJWT:
		if len(c.Auth.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters when AUTH_MODE=jwt")
		}
	case AuthModeHeader:
		if strings.EqualFold(c.Server.Environment, "production") {
			return fmt.Errorf("AUTH_MODE=header is not allowed when ENVIRONMENT=production")
		}
	default:
		return fmt.Errorf("AUTH_MODE must be kakao, jwt or header, got %q", c.Auth.Mode)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func validateBaseURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", name, raw)
	}
	return nil
}

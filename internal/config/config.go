// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

// Package config loads Crumb configuration from defaults, an optional YAML
// file and environment variables (in increasing priority) using koanf.
package config

import "time"

// Auth modes accepted by AuthConfig.Mode.
const (
	AuthModeKakao  = "kakao"
	AuthModeJWT    = "jwt"
	AuthModeHeader = "header"
)

// History backends accepted by HistoryConfig.Backend.
const (
	HistoryBackendDuckDB = "duckdb"
	HistoryBackendMemory = "memory"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Kakao     KakaoConfig     `koanf:"kakao"`
	Google    GoogleConfig    `koanf:"google"`
	Providers ProvidersConfig `koanf:"providers"`
	Bakery    BakeryConfig    `koanf:"bakery"`
	Search    SearchConfig    `koanf:"search"`
	Recommend RecommendConfig `koanf:"recommend"`
	History   HistoryConfig   `koanf:"history"`
	Database  DatabaseConfig  `koanf:"database"`
	Spool     SpoolConfig     `koanf:"spool"`
	Auth      AuthConfig      `koanf:"auth"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`
}

// KakaoConfig configures the Kakao Local keyword search client.
type KakaoConfig struct {
	BaseURL    string `koanf:"base_url"`
	RESTAPIKey string `koanf:"rest_api_key"`

	// BakeryQuery is the keyword sent for nearby bakery lists.
	BakeryQuery string        `koanf:"bakery_query"`
	MaxRadius   int           `koanf:"max_radius"`
	PageSize    int           `koanf:"page_size"`
	Timeout     time.Duration `koanf:"timeout"`
	RateLimit   float64       `koanf:"rate_limit"` // requests per second, 0 disables
	RateBurst   int           `koanf:"rate_burst"`
}

// GoogleConfig configures the Google Places nearby search client.
type GoogleConfig struct {
	BaseURL   string        `koanf:"base_url"`
	APIKey    string        `koanf:"api_key"`
	Keyword   string        `koanf:"keyword"`
	PlaceType string        `koanf:"place_type"`
	Language  string        `koanf:"language"`
	MaxRadius int           `koanf:"max_radius"`
	Timeout   time.Duration `koanf:"timeout"`
	RateLimit float64       `koanf:"rate_limit"`
	RateBurst int           `koanf:"rate_burst"`
}

// ProvidersConfig holds settings shared by every place-search provider.
type ProvidersConfig struct {
	// Order decides fan-in order and therefore dedup priority.
	Order []string `koanf:"order"`

	// CacheTTL of 0 disables the result cache.
	CacheTTL time.Duration `koanf:"cache_ttl"`

	BreakerMinRequests   uint32        `koanf:"breaker_min_requests"`
	BreakerFailureRatio  float64       `koanf:"breaker_failure_ratio"`
	BreakerOpenTimeout   time.Duration `koanf:"breaker_open_timeout"`
	BreakerCountInterval time.Duration `koanf:"breaker_count_interval"`
}

// BakeryConfig bounds the nearby bakery list.
type BakeryConfig struct {
	DefaultRadius int `koanf:"default_radius"`
	MinRadius     int `koanf:"min_radius"`
	MaxRadius     int `koanf:"max_radius"`
	MaxLimit      int `koanf:"max_limit"`
}

// SearchConfig configures keyword search.
type SearchConfig struct {
	DefaultRadius int `koanf:"default_radius"`
	PageSize      int `koanf:"page_size"`
}

// RecommendConfig configures the external recommendation service client.
type RecommendConfig struct {
	BaseURL string `koanf:"base_url"`

	// Timeout applies to each attempt separately.
	Timeout       time.Duration `koanf:"timeout"`
	MaxAttempts   int           `koanf:"max_attempts"`
	BaseDelay     time.Duration `koanf:"base_delay"`
	Limit         int           `koanf:"limit"`
	HistoryWindow int           `koanf:"history_window"`
	KeywordCount  int           `koanf:"keyword_count"`
}

// HistoryConfig configures search history persistence.
type HistoryConfig struct {
	Backend      string        `koanf:"backend"`
	QueueSize    int           `koanf:"queue_size"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()
}

// SpoolConfig holds the BadgerDB retry spool for failed history writes.
type SpoolConfig struct {
	Enabled       bool          `koanf:"enabled"`
	Path          string        `koanf:"path"`
	SyncWrites    bool          `koanf:"sync_writes"`
	RetryInterval time.Duration `koanf:"retry_interval"`
	MaxAttempts   int           `koanf:"max_attempts"`
}

// AuthConfig selects how bearer credentials map to user ids.
type AuthConfig struct {
	Mode         string        `koanf:"mode"`
	KakaoUserURL string        `koanf:"kakao_user_url"`
	Timeout      time.Duration `koanf:"timeout"`
	CacheTTL     time.Duration `koanf:"cache_ttl"`
	JWTSecret    string        `koanf:"jwt_secret"`
	JWTIssuer    string        `koanf:"jwt_issuer"`
}

// SecurityConfig holds CORS and inbound rate limiting.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format: json or console.
	Format string `koanf:"format"`

	Caller bool `koanf:"caller"`
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return joinHostPort(s.Host, s.Port)
}

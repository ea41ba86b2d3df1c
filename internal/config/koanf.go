// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/crumb/config.yaml",
	"/etc/crumb/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Kakao: KakaoConfig{
			BaseURL:     "https://dapi.kakao.com",
			BakeryQuery: "빵집",
			MaxRadius:   20000,
			PageSize:    15,
			Timeout:     3 * time.Second,
			RateLimit:   10,
			RateBurst:   5,
		},
		Google: GoogleConfig{
			BaseURL:   "https://maps.googleapis.com",
			Keyword:   "bakery",
			PlaceType: "bakery",
			Language:  "ko",
			MaxRadius: 50000,
			Timeout:   3 * time.Second,
			RateLimit: 10,
			RateBurst: 5,
		},
		Providers: ProvidersConfig{
			Order:                []string{"kakao", "google"},
			CacheTTL:             60 * time.Second,
			BreakerMinRequests:   10,
			BreakerFailureRatio:  0.6,
			BreakerOpenTimeout:   2 * time.Minute,
			BreakerCountInterval: time.Minute,
		},
		Bakery: BakeryConfig{
			DefaultRadius: 1500,
			MinRadius:     100,
			MaxRadius:     50000,
			MaxLimit:      100,
		},
		Search: SearchConfig{
			DefaultRadius: 3000,
			PageSize:      15,
		},
		Recommend: RecommendConfig{
			BaseURL:       "http://localhost:8000",
			Timeout:       10 * time.Second,
			MaxAttempts:   3,
			BaseDelay:     300 * time.Millisecond,
			Limit:         10,
			HistoryWindow: 50,
			KeywordCount:  5,
		},
		History: HistoryConfig{
			Backend:      HistoryBackendDuckDB,
			QueueSize:    256,
			WriteTimeout: 5 * time.Second,
		},
		Database: DatabaseConfig{
			Path:      "/data/crumb.duckdb",
			MaxMemory: "512MB",
		},
		Spool: SpoolConfig{
			Enabled:       true,
			Path:          "/data/spool",
			SyncWrites:    true,
			RetryInterval: 30 * time.Second,
			MaxAttempts:   10,
		},
		Auth: AuthConfig{
			Mode:         AuthModeKakao,
			KakaoUserURL: "https://kapi.kakao.com",
			Timeout:      3 * time.Second,
			CacheTTL:     5 * time.Minute,
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration with precedence ENV > file > defaults and
// validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths arrive from env as comma-separated strings.
var sliceConfigPaths = []string{
	"providers.order",
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		var parts []string
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) == 0 {
			continue
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lowercased environment variable names to koanf paths.
// Anything not listed is ignored so unrelated env vars never leak in.
var envMappings = map[string]string{
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"environment":           "server.environment",

	"kakao_base_url":     "kakao.base_url",
	"kakao_rest_api_key": "kakao.rest_api_key",
	"kakao_bakery_query": "kakao.bakery_query",
	"kakao_timeout":      "kakao.timeout",
	"kakao_rate_limit":   "kakao.rate_limit",

	"google_base_url":       "google.base_url",
	"google_places_api_key": "google.api_key",
	"google_language":       "google.language",
	"google_timeout":        "google.timeout",
	"google_rate_limit":     "google.rate_limit",

	"provider_order":     "providers.order",
	"provider_cache_ttl": "providers.cache_ttl",

	"bakery_default_radius": "bakery.default_radius",
	"search_default_radius": "search.default_radius",

	"recommend_base_url":       "recommend.base_url",
	"recommend_timeout":        "recommend.timeout",
	"recommend_max_attempts":   "recommend.max_attempts",
	"recommend_base_delay":     "recommend.base_delay",
	"recommend_limit":          "recommend.limit",
	"recommend_history_window": "recommend.history_window",
	"recommend_keyword_count":  "recommend.keyword_count",

	"history_backend":       "history.backend",
	"history_queue_size":    "history.queue_size",
	"history_write_timeout": "history.write_timeout",

	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",

	"spool_enabled":        "spool.enabled",
	"spool_path":           "spool.path",
	"spool_sync_writes":    "spool.sync_writes",
	"spool_retry_interval": "spool.retry_interval",
	"spool_max_attempts":   "spool.max_attempts",

	"auth_mode":           "auth.mode",
	"kakao_user_url":      "auth.kakao_user_url",
	"auth_cache_ttl":      "auth.cache_ttl",
	"jwt_secret":          "auth.jwt_secret",
	"jwt_issuer":          "auth.jwt_issuer",
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps KAKAO_REST_API_KEY -> kakao.rest_api_key and so on.
// Unmapped keys return "" and are skipped by the env provider.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

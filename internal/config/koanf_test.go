// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()

	if cfg.Search.DefaultRadius != 3000 {
		t.Errorf("Search.DefaultRadius = %d, want 3000", cfg.Search.DefaultRadius)
	}
	if cfg.Search.PageSize != 15 {
		t.Errorf("Search.PageSize = %d, want 15", cfg.Search.PageSize)
	}
	if cfg.Recommend.Timeout != 10*time.Second {
		t.Errorf("Recommend.Timeout = %v, want 10s", cfg.Recommend.Timeout)
	}
	if cfg.Recommend.MaxAttempts != 3 {
		t.Errorf("Recommend.MaxAttempts = %d, want 3", cfg.Recommend.MaxAttempts)
	}
	if cfg.Recommend.BaseDelay != 300*time.Millisecond {
		t.Errorf("Recommend.BaseDelay = %v, want 300ms", cfg.Recommend.BaseDelay)
	}
	if cfg.Recommend.Limit != 10 {
		t.Errorf("Recommend.Limit = %d, want 10", cfg.Recommend.Limit)
	}
	if cfg.Bakery.DefaultRadius != 1500 {
		t.Errorf("Bakery.DefaultRadius = %d, want 1500", cfg.Bakery.DefaultRadius)
	}
	if got := strings.Join(cfg.Providers.Order, ","); got != "kakao,google" {
		t.Errorf("Providers.Order = %q, want kakao,google", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env  string
		want string
	}{
		{"KAKAO_REST_API_KEY", "kakao.rest_api_key"},
		{"GOOGLE_PLACES_API_KEY", "google.api_key"},
		{"RECOMMEND_TIMEOUT", "recommend.timeout"},
		{"RECOMMEND_MAX_ATTEMPTS", "recommend.max_attempts"},
		{"DUCKDB_PATH", "database.path"},
		{"HTTP_PORT", "server.port"},
		{"cors_origins", "security.cors_origins"},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		if got := envTransformFunc(tt.env); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

// The tests below use t.Setenv and therefore cannot run in parallel.

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("KAKAO_REST_API_KEY", "kakao-key")
	t.Setenv("RECOMMEND_TIMEOUT", "5s")
	t.Setenv("RECOMMEND_MAX_ATTEMPTS", "2")
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("PROVIDER_ORDER", "google,kakao")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Kakao.RESTAPIKey != "kakao-key" {
		t.Errorf("Kakao.RESTAPIKey = %q, want kakao-key", cfg.Kakao.RESTAPIKey)
	}
	if cfg.Recommend.Timeout != 5*time.Second {
		t.Errorf("Recommend.Timeout = %v, want 5s", cfg.Recommend.Timeout)
	}
	if cfg.Recommend.MaxAttempts != 2 {
		t.Errorf("Recommend.MaxAttempts = %d, want 2", cfg.Recommend.MaxAttempts)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "https://b.example" {
		t.Errorf("Security.CORSOrigins = %v", cfg.Security.CORSOrigins)
	}
	if cfg.Providers.Order[0] != "google" {
		t.Errorf("Providers.Order = %v, want google first", cfg.Providers.Order)
	}
	if cfg.Search.DefaultRadius != 3000 {
		t.Errorf("Search.DefaultRadius = %d, want default 3000", cfg.Search.DefaultRadius)
	}
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 8888
recommend:
  base_url: "http://recommender.internal:8000"
  max_attempts: 2
logging:
  level: "warn"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8888 {
		t.Errorf("Server.Port = %d, want 8888", cfg.Server.Port)
	}
	if cfg.Recommend.BaseURL != "http://recommender.internal:8000" {
		t.Errorf("Recommend.BaseURL = %q", cfg.Recommend.BaseURL)
	}
	if cfg.Recommend.MaxAttempts != 2 {
		t.Errorf("Recommend.MaxAttempts = %d, want 2", cfg.Recommend.MaxAttempts)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug (env beats file)", cfg.Logging.Level)
	}
}

func TestLoadValidationFailure(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("RECOMMEND_MAX_ATTEMPTS", "9")

	if _, err := Load(); err == nil {
		t.Fatal("expected validation error for RECOMMEND_MAX_ATTEMPTS=9")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(*Config) {}, ""},
		{"unknown provider", func(c *Config) { c.Providers.Order = []string{"naver"} }, "unknown provider"},
		{"duplicate provider", func(c *Config) { c.Providers.Order = []string{"kakao", "kakao"} }, "twice"},
		{"recommend timeout too long", func(c *Config) { c.Recommend.Timeout = 2 * time.Minute }, "RECOMMEND_TIMEOUT"},
		{"jwt without secret", func(c *Config) { c.Auth.Mode = AuthModeJWT }, "JWT_SECRET"},
		{"header auth in production", func(c *Config) {
			c.Auth.Mode = AuthModeHeader
			c.Server.Environment = "production"
		}, "AUTH_MODE=header"},
		{"bad history backend", func(c *Config) { c.History.Backend = "postgres" }, "HISTORY_BACKEND"},
		{"spool without path", func(c *Config) { c.Spool.Path = "" }, "SPOOL_PATH"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"relative recommend url", func(c *Config) { c.Recommend.BaseURL = "/recommend" }, "RECOMMEND_BASE_URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestServerAddr(t *testing.T) {
	t.Parallel()

	s := ServerConfig{Host: "127.0.0.1", Port: 8080}
	if got := s.Addr(); got != "127.0.0.1:8080" {
		t.Errorf("Addr() = %q", got)
	}
}

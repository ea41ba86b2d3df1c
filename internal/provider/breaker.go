// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/crumb/internal/config"
	"github.com/tomtom215/crumb/internal/logging"
	"github.com/tomtom215/crumb/internal/metrics"
	"github.com/tomtom215/crumb/internal/models"
)

// Outcome labels for metrics.ProviderRequests.
const (
	outcomeOK          = "ok"
	outcomeUnavailable = "unavailable"
	outcomeRejected    = "rejected"
	outcomeCircuitOpen = "circuit_open"
	outcomeRateLimited = "rate_limited"
)

// errRateLimited is returned when the outbound limiter cannot grant a token
// before the context deadline.
var errRateLimited = errors.New("outbound rate limit wait exceeds deadline")

// GuardConfig configures the breaker and limiter placed in front of a client.
type GuardConfig struct {
	MinRequests   uint32
	FailureRatio  float64
	OpenTimeout   time.Duration
	CountInterval time.Duration

	// RateLimit is requests per second; 0 disables the limiter.
	RateLimit float64
	RateBurst int
}

// guardConfigFrom combines the shared breaker settings with a client's
// own rate limit.
func guardConfigFrom(p *config.ProvidersConfig, rps float64, burst int) GuardConfig {
	return GuardConfig{
		MinRequests:   p.BreakerMinRequests,
		FailureRatio:  p.BreakerFailureRatio,
		OpenTimeout:   p.BreakerOpenTimeout,
		CountInterval: p.BreakerCountInterval,
		RateLimit:     rps,
		RateBurst:     burst,
	}
}

// Breaker names, used as metric labels and in health reports.
const (
	kakaoNearbyBreaker  = "kakao-local"
	kakaoKeywordBreaker = "kakao-keyword"
	googleBreaker       = "google-places"
)

// BreakerReporter exposes circuit breaker states keyed by breaker name.
type BreakerReporter interface {
	BreakerStates() map[string]string
}

// guard runs upstream calls through a circuit breaker and a token bucket.
type guard struct {
	name    string
	cb      *gobreaker.CircuitBreaker[any]
	limiter *rate.Limiter
}

func newGuard(name string, cfg GuardConfig) *guard {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3, // probes allowed while half-open
		Interval:    cfg.CountInterval,
		Timeout:     cfg.OpenTimeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= cfg.FailureRatio
			if shouldTrip {
				logging.Warn().Str("breaker", name).Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		// A caller hanging up says nothing about upstream health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).
				Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	g := &guard{name: name, cb: cb}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return g
}

// do waits for a limiter token, then executes fn inside the breaker.
func (g *guard) do(ctx context.Context, fn func() error) error {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %w", errRateLimited, err)
		}
	}

	_, err := g.cb.Execute(func() (any, error) {
		return nil, fn()
	})

	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(g.name, "success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(g.name, "rejected").Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(g.name, "failure").Inc()
	}
	return err
}

// State is the current breaker state.
func (g *guard) State() gobreaker.State {
	return g.cb.State()
}

// outcomeOf classifies a guarded call's error for metrics and logs.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return outcomeCircuitOpen
	case errors.Is(err, errRateLimited):
		return outcomeRateLimited
	case errors.Is(err, models.ErrUpstreamRejected):
		return outcomeRejected
	default:
		return outcomeUnavailable
	}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

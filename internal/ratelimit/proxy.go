package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nftpulse/market-indexer/internal/config"
	"github.com/nftpulse/market-indexer/internal/logger"
)

// RequestFunc is a function that performs the actual API request
type RequestFunc func(ctx context.Context) (interface{}, error)

// requestResult wraps the result and error of a request
type requestResult struct {
	value interface{}
	err   error
}

// Proxy defines the interface for the rate-limiting proxy
type Proxy interface {
	// Request submits a rate-limited request for execution
	Request(ctx context.Context, providerName string, fn RequestFunc) (interface{}, error)

	// Close gracefully shuts down the proxy
	Close() error
}

// proxy is the concrete implementation of the rate-limiting proxy
type proxy struct {
	config    config.RateLimiterConfig
	pool      pond.ResultPool[*requestResult]
	limiters  map[string]*providerLimiter
	closed    atomic.Bool
	closeOnce sync.Once
}

// providerLimiter holds the rate limiting state for a single provider
type providerLimiter struct {
	name    string
	config  config.RateLimitConfig
	limiter *rate.Limiter
}

// NewProxy creates a new rate-limiting proxy
func NewProxy(cfg config.RateLimiterConfig) (Proxy, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	limiters := make(map[string]*providerLimiter)
	for name, providerConfig := range cfg.Providers {
		limiters[name] = &providerLimiter{
			name:    name,
			config:  providerConfig,
			limiter: rate.NewLimiter(rate.Limit(providerConfig.RequestsPerSecond), providerConfig.Burst),
		}
	}

	pool := pond.NewResultPool[*requestResult](
		cfg.MaxWorkers,
		pond.WithQueueSize(cfg.MaxQueueSize),
	)

	p := &proxy{
		config:   cfg,
		pool:     pool,
		limiters: limiters,
	}

	logger.Info("Rate limit proxy initialized",
		zap.Int("max_workers", cfg.MaxWorkers),
		zap.Int("max_queue_size", cfg.MaxQueueSize),
		zap.Int("providers", len(cfg.Providers)),
	)

	return p, nil
}

// Request submits a rate-limited request for execution and returns the result with type safety
func Request[T any](ctx context.Context, p Proxy, providerName string, fn func(ctx context.Context) (T, error)) (T, error) {
	// If proxy is nil, execute the function directly
	if p == nil {
		return fn(ctx)
	}

	var zero T
	result, err := p.Request(ctx, providerName, func(ctx context.Context) (interface{}, error) {
		return fn(ctx)
	})
	if err != nil {
		return zero, err
	}
	return result.(T), nil
}

// Request submits a rate-limited request for execution. It blocks until a
// token is acquired and the request completes, the context is canceled, or
// the provider's maximum queue time is exceeded.
func (p *proxy) Request(ctx context.Context, providerName string, fn RequestFunc) (interface{}, error) {
	if p.closed.Load() {
		return nil, fmt.Errorf("proxy is closed")
	}

	limiter, ok := p.limiters[providerName]
	if !ok {
		return nil, fmt.Errorf("provider '%s' not configured", providerName)
	}

	// Bound total time spent queued behind the limiter
	queueCtx, cancel := context.WithTimeout(ctx, limiter.config.MaxQueueTime)
	defer cancel()

	resultTask := p.pool.Submit(func() *requestResult {
		if err := limiter.limiter.Wait(queueCtx); err != nil {
			return &requestResult{err: fmt.Errorf("rate limit wait: %w", err)}
		}
		value, err := fn(queueCtx)
		return &requestResult{value: value, err: err}
	})

	result, err := resultTask.Wait()
	if err != nil {
		return nil, err
	}
	if result.err != nil {
		return nil, result.err
	}
	return result.value, nil
}

// Close gracefully shuts down the proxy, waiting for in-flight requests
func (p *proxy) Close() error {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		p.pool.StopAndWait()
	})
	return nil
}

// validateConfig applies defaults and rejects unusable settings
func validateConfig(cfg *config.RateLimiterConfig) error {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 8
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 256
	}
	if len(cfg.Providers) == 0 {
		return fmt.Errorf("at least one provider must be configured")
	}
	for name, providerConfig := range cfg.Providers {
		if providerConfig.RequestsPerSecond <= 0 {
			return fmt.Errorf("provider '%s': requests_per_second must be positive", name)
		}
		if providerConfig.Burst <= 0 {
			return fmt.Errorf("provider '%s': burst must be positive", name)
		}
		if providerConfig.MaxQueueTime <= 0 {
			return fmt.Errorf("provider '%s': max_queue_time must be positive", name)
		}
	}
	return nil
}

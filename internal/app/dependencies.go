// Package app assembles the checkout API from configuration: clients, the
// gateway adapter, the checkout service and the HTTP router.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mindcare/checkout-api/internal/checkout"
	"github.com/mindcare/checkout-api/internal/config"
	"github.com/mindcare/checkout-api/internal/obs"
	"github.com/mindcare/checkout-api/internal/payment"
	"github.com/mindcare/checkout-api/internal/resilience"
)

// MetricsNamespace prefixes every Prometheus series the API exports.
const MetricsNamespace = "checkout"

// Dependencies enumerates the services shared by the HTTP layer.
type Dependencies struct {
	Config *config.Config
	Logger zerolog.Logger
	// Redis is nil when REDIS_URL is not set; rate limiting then falls back
	// to process memory and idempotency checks are skipped.
	Redis       *redis.Client
	Breaker     *resilience.Breaker
	Gateway     checkout.Gateway
	Checkout    *checkout.Service
	HTTPMetrics *obs.HTTPMetrics
	Tracing     bool
}

// Build constructs Dependencies. The returned closer releases client
// connections and must be called on shutdown.
func Build(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Dependencies, func(), error) {
	if cfg == nil {
		return nil, nil, errors.New("app: config is required")
	}
	deps := &Dependencies{Config: cfg, Logger: logger, Tracing: cfg.TracingEnabled}
	closer := func() {}

	if cfg.MetricsEnabled {
		obs.MustRegisterDomainMetrics(MetricsNamespace, nil)
		deps.HTTPMetrics = obs.NewHTTPMetrics(MetricsNamespace, obs.ParseBucketsCSV(cfg.MetricsBuckets), nil)
	}

	if cfg.RedisURL != "" {
		client, err := newRedis(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		deps.Redis = client
		closer = func() {
			if err := client.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}
	}

	deps.Breaker = resilience.NewBreaker(cfg.BreakerMinRequests, cfg.BreakerFailureRatio, cfg.BreakerOpenFor).
		WithTarget(cfg.GatewayProvider).
		WithLogger(logger)

	gateway, err := payment.NewGateway(cfg, GatewayHTTPClient(deps.Breaker, cfg.GatewayTimeout), logger)
	if err != nil {
		closer()
		return nil, nil, fmt.Errorf("initialise gateway: %w", err)
	}
	deps.Gateway = gateway

	svc, err := checkout.NewService(checkout.ServiceConfig{
		Gateway: gateway,
		Options: checkout.Options{
			ClientURL:      cfg.ClientURL,
			FallbackOrigin: cfg.FallbackOrigin,
			GatewayTimeout: cfg.GatewayTimeout,
		},
	})
	if err != nil {
		closer()
		return nil, nil, fmt.Errorf("initialise checkout service: %w", err)
	}
	deps.Checkout = svc
	return deps, closer, nil
}

// GatewayHTTPClient returns the client used for gateway calls: traced, guarded
// by breaker and bounded by timeout.
func GatewayHTTPClient(breaker *resilience.Breaker, timeout time.Duration) *http.Client {
	guarded := &resilience.Transport{
		Base:    http.DefaultTransport,
		Breaker: breaker,
		Timeout: timeout,
	}
	return &http.Client{Transport: otelhttp.NewTransport(guarded)}
}

func newRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// PingRedis implements health.Checker.
func (d *Dependencies) PingRedis(ctx context.Context, timeout time.Duration) error {
	if d.Redis == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return d.Redis.Ping(ctx).Err()
}

// GatewayAvailable implements health.Checker.
func (d *Dependencies) GatewayAvailable() bool {
	return d.Breaker == nil || d.Breaker.State() != resilience.Open
}

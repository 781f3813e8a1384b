package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mindcare/checkout-api/internal/checkout"
	"github.com/mindcare/checkout-api/internal/common"
	"github.com/mindcare/checkout-api/internal/health"
	"github.com/mindcare/checkout-api/internal/obs"
	"github.com/mindcare/checkout-api/internal/ratelimit"
	"github.com/mindcare/checkout-api/internal/security"
)

// SessionRoute is where the trigger posts session requests.
const SessionRoute = "/create-checkout-session"

// NewRouter builds the HTTP handler tree.
func NewRouter(d *Dependencies) http.Handler {
	cfg := d.Config
	logger := d.Logger

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if d.Tracing {
		r.Use(obs.TracingMiddleware)
	}
	if d.HTTPMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: d.HTTPMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(corsOptions(cfg.CORSAllowedOrigins)))
	r.Use(security.Headers{Enable: true, EnableHSTS: cfg.AppEnv == "production"}.Middleware)

	healthHandler := health.Handler{Checker: d}
	r.Get("/", healthHandler.Root)
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)
	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	var limiter ratelimit.Limiter = ratelimit.NewMemory("rl:checkout")
	if d.Redis != nil {
		limiter = ratelimit.SlidingWindow{Client: d.Redis, Prefix: "rl:checkout:"}
	}
	limit := ratelimit.Handler{
		Limiter: limiter,
		Config: ratelimit.Config{
			Key:    ratelimit.ByClientIP,
			Window: cfg.RateLimitWindow,
			Max:    cfg.RateLimitMax,
		},
		OnError: func(err error) {
			logger.Warn().Err(err).Msg("rate limiter unavailable")
		},
	}
	idem := common.Idem{R: d.Redis, TTL: cfg.IdempotencyTTL}
	sessions := &checkout.Handler{Svc: d.Checkout}

	r.With(
		security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware,
		limit.Middleware,
		idem.Middleware,
	).Post(SessionRoute, sessions.CreateSession)

	return r
}

// corsOptions reflects any caller origin unless an allow-list is configured.
func corsOptions(allowed []string) cors.Options {
	opts := cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", common.IdempotencyHeader, "traceparent", "tracestate"},
		ExposedHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:         300,
	}
	if len(allowed) == 0 {
		opts.AllowOriginFunc = func(*http.Request, string) bool { return true }
		return opts
	}
	opts.AllowedOrigins = allowed
	return opts
}

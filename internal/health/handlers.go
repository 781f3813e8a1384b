package health

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/mindcare/checkout-api/internal/common"
)

var ready atomic.Bool

func init() {
	ready.Store(true)
}

// SetReady toggles readiness; main flips it off when shutdown begins so load
// balancers drain the instance before the listener closes.
func SetReady(v bool) {
	ready.Store(v)
}

// Checker probes optional dependencies. Implementations return nil for
// dependencies that are not configured.
type Checker interface {
	PingRedis(ctx context.Context, timeout time.Duration) error
	GatewayAvailable() bool
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Checker      Checker
	RedisTimeout time.Duration
}

// Root is the fixed liveness payload served at "/".
func (h Handler) Root(w http.ResponseWriter, _ *http.Request) {
	common.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness based on dependency probes. An open gateway breaker
// is reported but does not fail readiness: the instance can still answer
// validation errors and recover on its own.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !ready.Load() {
		common.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "shutting_down"})
		return
	}
	status := map[string]string{"redis": "ok", "gateway": "ok"}
	code := http.StatusOK
	if h.Checker != nil {
		if err := h.Checker.PingRedis(r.Context(), h.redisTimeout()); err != nil {
			status["redis"] = err.Error()
			code = http.StatusServiceUnavailable
		}
		if !h.Checker.GatewayAvailable() {
			status["gateway"] = "circuit_open"
		}
	}
	common.JSON(w, code, status)
}

func (h Handler) redisTimeout() time.Duration {
	if h.RedisTimeout <= 0 {
		return 300 * time.Millisecond
	}
	return h.RedisTimeout
}

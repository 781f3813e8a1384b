package resilience

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Transport is an http.RoundTripper that consults a Breaker before every
// request and reports the outcome afterwards. It never retries: callers decide
// what to do with a failed or rejected request.
type Transport struct {
	Base    http.RoundTripper
	Breaker *Breaker
	// Timeout bounds a single round trip when the request context has no
	// earlier deadline.
	Timeout time.Duration
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	breaker := t.Breaker
	if breaker != nil && !breaker.Allow(ctx) {
		if req.Body != nil {
			_ = req.Body.Close()
		}
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Host, ErrOpenCircuit)
	}

	if t.Timeout > 0 {
		if deadline, ok := ctx.Deadline(); !ok || time.Until(deadline) > t.Timeout {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, t.Timeout)
			req = req.WithContext(ctx)
			resp, err := t.base().RoundTrip(req)
			t.report(ctx, resp, err)
			if err != nil {
				cancel()
				return nil, err
			}
			resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
			return resp, nil
		}
	}

	resp, err := t.base().RoundTrip(req)
	t.report(ctx, resp, err)
	return resp, err
}

func (t *Transport) base() http.RoundTripper {
	if t.Base == nil {
		return http.DefaultTransport
	}
	return t.Base
}

func (t *Transport) report(ctx context.Context, resp *http.Response, err error) {
	if t.Breaker == nil {
		return
	}
	t.Breaker.Report(ctx, err == nil && healthyStatus(resp.StatusCode))
}

// healthyStatus treats client errors as healthy: a rejected price reference
// says nothing about gateway availability. Throttling and server errors do.
func healthyStatus(code int) bool {
	return code < http.StatusInternalServerError && code != http.StatusTooManyRequests
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

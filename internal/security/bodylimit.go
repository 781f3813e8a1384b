package security

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/mindcare/checkout-api/internal/common"
)

// BodyLimit enforces a maximum request payload size. Session requests are a
// few dozen bytes, so the limit is small.
type BodyLimit struct {
	Max int64
}

// Middleware rejects requests exceeding the configured limit with HTTP 413.
func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if b.Max <= 0 || r.Body == nil {
			next.ServeHTTP(w, r)
			return
		}

		if r.ContentLength > b.Max && r.ContentLength != -1 {
			common.JSONMessage(w, http.StatusRequestEntityTooLarge, "request entity too large")
			return
		}

		limited := io.LimitReader(r.Body, b.Max+1)
		buf, err := io.ReadAll(limited)
		if err != nil && !errors.Is(err, io.EOF) {
			common.JSONMessage(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if int64(len(buf)) > b.Max {
			common.JSONMessage(w, http.StatusRequestEntityTooLarge, "request entity too large")
			return
		}

		_ = r.Body.Close()

		r.Body = io.NopCloser(bytes.NewReader(buf))
		r.ContentLength = int64(len(buf))
		next.ServeHTTP(w, r)
	})
}

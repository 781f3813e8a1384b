package trigger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mindcare/checkout-api/internal/checkout"
)

// SessionPath is the API route that mints checkout sessions.
const SessionPath = "/create-checkout-session"

const (
	PendingLabel       = "Redirecting…"
	MsgUnableToStart   = "Unable to start checkout"
	MsgNetworkError    = "Network error starting checkout."
	maxResponseBytes   = 64 << 10
	defaultContentType = "application/json"
)

// Outcome is what an activation resolved to.
type Outcome int

const (
	// OutcomeIgnored means the element is not a purchase element, or a
	// request for it is already in flight.
	OutcomeIgnored Outcome = iota
	// OutcomeAborted means the element is registered without a price reference.
	OutcomeAborted
	// OutcomeRedirected means the page navigated to the gateway.
	OutcomeRedirected
	// OutcomeFailed means the element was restored and the user notified.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeAborted:
		return "aborted"
	case OutcomeRedirected:
		return "redirected"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Handler reacts to element activations.
type Handler struct {
	Registry *Registry
	// ServerOrigin is resolved once at load time, see ResolveServerOrigin.
	ServerOrigin string
	Page         Page
	HTTPClient   *http.Client
	Logger       zerolog.Logger

	inFlight sync.Map
}

// NewHTTPClient returns a client that propagates trace context to the API.
func NewHTTPClient() *http.Client {
	return &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
}

type sessionResponse struct {
	RedirectURL  string `json:"redirectUrl"`
	URL          string `json:"url"`
	ErrorMessage string `json:"errorMessage"`
	Error        string `json:"error"`
}

// Activate handles one activation of el. Except on a successful redirect, the
// element's label and enabled state are restored before Activate returns.
func (h *Handler) Activate(ctx context.Context, el Element) (Outcome, error) {
	if h == nil || h.Registry == nil {
		return OutcomeIgnored, nil
	}
	target, intent, ok := h.resolve(el)
	if !ok {
		return OutcomeIgnored, nil
	}
	price := strings.TrimSpace(intent.PriceReference)
	if price == "" {
		return OutcomeAborted, nil
	}
	if _, busy := h.inFlight.LoadOrStore(target.ID(), struct{}{}); busy {
		return OutcomeIgnored, nil
	}
	defer h.inFlight.Delete(target.ID())

	original := target.Label()
	target.SetDisabled(true)
	target.SetLabel(PendingLabel)

	redirected := false
	defer func() {
		if redirected {
			return
		}
		target.SetDisabled(false)
		target.SetLabel(original)
	}()

	resp, err := h.post(ctx, checkout.SessionRequest{PriceReference: price, Mode: intent.Mode.OrDefault()})
	if err != nil {
		h.Logger.Error().Err(err).Str("price_reference", price).Msg("checkout request failed")
		h.notify(MsgNetworkError)
		return OutcomeFailed, err
	}

	if url := firstNonBlank(resp.body.RedirectURL, resp.body.URL); url != "" {
		redirected = true
		if h.Page != nil {
			h.Page.Navigate(url)
		}
		return OutcomeRedirected, nil
	}

	message := firstNonBlank(resp.body.ErrorMessage, resp.body.Error, MsgUnableToStart)
	h.Logger.Warn().Int("status", resp.status).Str("price_reference", price).Str("message", message).Msg("checkout rejected")
	h.notify(message)
	return OutcomeFailed, &SessionError{StatusCode: resp.status, Message: message}
}

type decodedResponse struct {
	status int
	body   sessionResponse
}

func (h *Handler) post(ctx context.Context, req checkout.SessionRequest) (decodedResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return decodedResponse{}, &TransportError{Op: "encode", Err: err}
	}
	endpoint := strings.TrimRight(h.ServerOrigin, "/") + SessionPath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return decodedResponse{}, &TransportError{Op: "build request", Err: err}
	}
	httpReq.Header.Set("Content-Type", defaultContentType)
	httpReq.Header.Set("Accept", defaultContentType)

	client := h.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(httpReq)
	if err != nil {
		return decodedResponse{}, &TransportError{Op: "send", Err: err}
	}
	defer res.Body.Close()

	var body sessionResponse
	if err := json.NewDecoder(io.LimitReader(res.Body, maxResponseBytes)).Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			err = fmt.Errorf("empty response body (status %d)", res.StatusCode)
		}
		return decodedResponse{}, &TransportError{Op: "decode", Err: err}
	}
	return decodedResponse{status: res.StatusCode, body: body}, nil
}

func (h *Handler) notify(message string) {
	if h.Page != nil {
		h.Page.Notify(message)
	}
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

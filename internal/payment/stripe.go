package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/client"

	"github.com/mindcare/checkout-api/internal/checkout"
	"github.com/mindcare/checkout-api/internal/resilience"
)

const msgUnavailable = "payment gateway temporarily unavailable"

// StripeConfig configures the Stripe Checkout adapter.
type StripeConfig struct {
	SecretKey string
	// BaseURL overrides the Stripe API host. Empty means api.stripe.com.
	BaseURL string
	// HTTPClient carries the breaker and tracing transports.
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Stripe implements checkout.Gateway on top of Stripe Checkout Sessions.
type Stripe struct {
	api *client.API
}

// NewStripe constructs a Stripe gateway. The SDK's own retries are disabled so
// the caller's timeout and breaker are the only policies in effect.
func NewStripe(cfg StripeConfig) (*Stripe, error) {
	key := strings.TrimSpace(cfg.SecretKey)
	if key == "" {
		return nil, errors.New("stripe secret key is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	backendCfg := &stripe.BackendConfig{
		HTTPClient:        httpClient,
		LeveledLogger:     leveledLogger{logger: cfg.Logger},
		MaxNetworkRetries: stripe.Int64(0),
	}
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		backendCfg.URL = stripe.String(base)
	}
	backends := &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, backendCfg),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendCfg),
	}
	return &Stripe{api: client.New(key, backends)}, nil
}

// CreateCheckoutSession implements checkout.Gateway.
func (s *Stripe) CreateCheckoutSession(ctx context.Context, params checkout.GatewaySessionParams) (checkout.GatewaySession, error) {
	if s == nil || s.api == nil {
		return checkout.GatewaySession{}, errors.New("stripe gateway is not configured")
	}
	if len(params.LineItems) == 0 {
		return checkout.GatewaySession{}, errors.New("at least one line item is required")
	}

	sp := &stripe.CheckoutSessionParams{
		Mode:                stripe.String(string(params.Mode.OrDefault())),
		SuccessURL:          stripe.String(params.SuccessURL),
		CancelURL:           stripe.String(params.CancelURL),
		AllowPromotionCodes: stripe.Bool(params.AllowPromotionCodes),
	}
	if params.AutomaticTax {
		sp.AutomaticTax = &stripe.CheckoutSessionAutomaticTaxParams{Enabled: stripe.Bool(true)}
	}
	for _, item := range params.LineItems {
		quantity := item.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		sp.LineItems = append(sp.LineItems, &stripe.CheckoutSessionLineItemParams{
			Price:    stripe.String(item.PriceReference),
			Quantity: stripe.Int64(quantity),
		})
	}
	sp.Context = ctx

	sess, err := s.api.CheckoutSessions.New(sp)
	if err != nil {
		return checkout.GatewaySession{}, stripeError(err)
	}
	return checkout.GatewaySession{ID: sess.ID, URL: sess.URL}, nil
}

// stripeError keeps the wrapped chain intact while surfacing the message
// Stripe returned, which is what the checkout client displays.
func stripeError(err error) error {
	var se *stripe.Error
	switch {
	case errors.As(err, &se) && strings.TrimSpace(se.Msg) != "":
		return &gatewayError{msg: se.Msg, err: err}
	case errors.Is(err, resilience.ErrOpenCircuit):
		return &gatewayError{msg: msgUnavailable, err: err}
	}
	return err
}

type gatewayError struct {
	msg string
	err error
}

func (e *gatewayError) Error() string { return e.msg }

func (e *gatewayError) Unwrap() error { return e.err }

// leveledLogger routes SDK logging through zerolog.
type leveledLogger struct {
	logger zerolog.Logger
}

func (l leveledLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug().Str("component", "stripe").Msg(fmt.Sprintf(format, v...))
}

func (l leveledLogger) Infof(format string, v ...interface{}) {
	l.logger.Debug().Str("component", "stripe").Msg(fmt.Sprintf(format, v...))
}

func (l leveledLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn().Str("component", "stripe").Msg(fmt.Sprintf(format, v...))
}

func (l leveledLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error().Str("component", "stripe").Msg(fmt.Sprintf(format, v...))
}

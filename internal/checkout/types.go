// Package checkout turns a validated session request into a hosted checkout
// redirect by asking the payment gateway to mint a session.
package checkout

import (
	"context"
	"strings"
)

// Mode selects one-off payment or recurring subscription checkout.
type Mode string

const (
	ModePayment      Mode = "payment"
	ModeSubscription Mode = "subscription"
)

// OrDefault returns m, or ModePayment when m is blank.
func (m Mode) OrDefault() Mode {
	if strings.TrimSpace(string(m)) == "" {
		return ModePayment
	}
	return m
}

// SessionRequest is the wire payload sent by the checkout trigger.
type SessionRequest struct {
	PriceReference string `json:"priceReference" validate:"required"`
	Mode           Mode   `json:"mode,omitempty" validate:"omitempty,oneof=payment subscription"`
}

// SessionResult carries the redirect URL for a created session.
type SessionResult struct {
	RedirectURL string `json:"redirectUrl"`
}

// LineItem is a single purchasable price in a gateway session.
type LineItem struct {
	PriceReference string
	Quantity       int64
}

// GatewaySessionParams describes the session the gateway is asked to create.
// SuccessURL may contain the gateway's session id placeholder verbatim.
type GatewaySessionParams struct {
	LineItems           []LineItem
	Mode                Mode
	SuccessURL          string
	CancelURL           string
	AllowPromotionCodes bool
	AutomaticTax        bool
}

// GatewaySession is the part of the gateway's session object we use.
type GatewaySession struct {
	ID  string
	URL string
}

// Gateway mints hosted checkout sessions. Implementations must honour ctx
// cancellation and return the gateway's own message in errors.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, params GatewaySessionParams) (GatewaySession, error)
}

// GatewayFunc adapts a function to Gateway.
type GatewayFunc func(ctx context.Context, params GatewaySessionParams) (GatewaySession, error)

// CreateCheckoutSession implements Gateway.
func (f GatewayFunc) CreateCheckoutSession(ctx context.Context, params GatewaySessionParams) (GatewaySession, error) {
	return f(ctx, params)
}

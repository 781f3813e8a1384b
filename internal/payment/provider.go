// Package payment holds the payment gateway adapters behind checkout.Gateway.
package payment

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/mindcare/checkout-api/internal/checkout"
	"github.com/mindcare/checkout-api/internal/config"
)

// NewGateway selects the adapter named by cfg.GatewayProvider.
func NewGateway(cfg *config.Config, httpClient *http.Client, logger zerolog.Logger) (checkout.Gateway, error) {
	switch cfg.GatewayProvider {
	case config.ProviderStripe:
		return NewStripe(StripeConfig{
			SecretKey:  cfg.StripeSecretKey,
			BaseURL:    cfg.StripeAPIBase,
			HTTPClient: httpClient,
			Logger:     logger,
		})
	case config.ProviderStub:
		return Stub{}, nil
	default:
		return nil, fmt.Errorf("payment: unsupported provider %q", cfg.GatewayProvider)
	}
}

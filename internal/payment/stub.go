package payment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/mindcare/checkout-api/internal/checkout"
)

// Stub mints deterministic sessions without any network call. It backs local
// development and demos where no Stripe key is available.
type Stub struct {
	BaseURL string
}

// CreateCheckoutSession implements checkout.Gateway.
func (s Stub) CreateCheckoutSession(ctx context.Context, params checkout.GatewaySessionParams) (checkout.GatewaySession, error) {
	if err := ctx.Err(); err != nil {
		return checkout.GatewaySession{}, err
	}
	if len(params.LineItems) == 0 || strings.TrimSpace(params.LineItems[0].PriceReference) == "" {
		return checkout.GatewaySession{}, errors.New("at least one line item is required")
	}
	host := strings.TrimRight(strings.TrimSpace(s.BaseURL), "/")
	if host == "" {
		host = "https://checkout.stub"
	}
	id := "cs_stub_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	return checkout.GatewaySession{
		ID:  id,
		URL: fmt.Sprintf("%s/session/%s?session=%s", host, url.PathEscape(params.LineItems[0].PriceReference), id),
	}, nil
}

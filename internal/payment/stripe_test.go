package payment

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mindcare/checkout-api/internal/checkout"
	"github.com/mindcare/checkout-api/internal/resilience"
)

const (
	testAPIBase     = "https://api.stripe.test"
	sessionEndpoint = testAPIBase + "/v1/checkout/sessions"
)

func newTestStripe(t *testing.T, rt http.RoundTripper) *Stripe {
	t.Helper()
	gw, err := NewStripe(StripeConfig{
		SecretKey:  "sk_test_123",
		BaseURL:    testAPIBase + "/",
		HTTPClient: &http.Client{Transport: rt},
		Logger:     zerolog.Nop(),
	})
	require.NoError(t, err)
	return gw
}

func sessionParams(price string) checkout.GatewaySessionParams {
	return checkout.GatewaySessionParams{
		LineItems:           []checkout.LineItem{{PriceReference: price, Quantity: 1}},
		Mode:                checkout.ModeSubscription,
		SuccessURL:          "https://mindcare.example/success.html?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:           "https://mindcare.example/cancel.html",
		AllowPromotionCodes: true,
		AutomaticTax:        true,
	}
}

func TestNewStripeRequiresKey(t *testing.T) {
	_, err := NewStripe(StripeConfig{SecretKey: "  "})
	require.Error(t, err)
}

func TestStripeCreateCheckoutSession(t *testing.T) {
	mt := httpmock.NewMockTransport()
	var form map[string]string
	var auth string
	mt.RegisterResponder(http.MethodPost, sessionEndpoint, func(req *http.Request) (*http.Response, error) {
		auth = req.Header.Get("Authorization")
		if err := req.ParseForm(); err != nil {
			return nil, err
		}
		form = map[string]string{}
		for key := range req.PostForm {
			form[key] = req.PostForm.Get(key)
		}
		return httpmock.NewStringResponse(http.StatusOK,
			`{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.stripe.com/c/pay/cs_test_1"}`), nil
	})

	gw := newTestStripe(t, mt)
	sess, err := gw.CreateCheckoutSession(context.Background(), sessionParams("price_123"))
	require.NoError(t, err)
	require.Equal(t, "cs_test_1", sess.ID)
	require.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", sess.URL)

	require.Equal(t, "Bearer sk_test_123", auth)
	require.Equal(t, "subscription", form["mode"])
	require.Equal(t, "price_123", form["line_items[0][price]"])
	require.Equal(t, "1", form["line_items[0][quantity]"])
	require.Equal(t, "true", form["allow_promotion_codes"])
	require.Equal(t, "true", form["automatic_tax[enabled]"])
	require.Equal(t, "https://mindcare.example/success.html?session_id={CHECKOUT_SESSION_ID}", form["success_url"])
	require.Equal(t, "https://mindcare.example/cancel.html", form["cancel_url"])
}

func TestStripeSurfacesGatewayMessage(t *testing.T) {
	mt := httpmock.NewMockTransport()
	mt.RegisterResponder(http.MethodPost, sessionEndpoint, httpmock.NewStringResponder(http.StatusBadRequest,
		`{"error":{"type":"invalid_request_error","message":"No such price: 'price_missing'","param":"line_items[0][price]"}}`))

	gw := newTestStripe(t, mt)
	_, err := gw.CreateCheckoutSession(context.Background(), sessionParams("price_missing"))
	require.Error(t, err)
	require.Equal(t, "No such price: 'price_missing'", err.Error())
	require.Equal(t, 1, mt.GetTotalCallCount(), "sdk retries must stay disabled")
}

func TestStripeOpenCircuitFailsFast(t *testing.T) {
	mt := httpmock.NewMockTransport()
	mt.RegisterResponder(http.MethodPost, sessionEndpoint, httpmock.NewStringResponder(http.StatusBadGateway,
		`{"error":{"type":"api_error","message":"upstream unavailable"}}`))

	breaker := resilience.NewBreaker(1, 0.5, time.Minute).WithTarget("stripe")
	gw := newTestStripe(t, &resilience.Transport{Base: mt, Breaker: breaker})

	_, err := gw.CreateCheckoutSession(context.Background(), sessionParams("price_123"))
	require.Error(t, err)
	require.Equal(t, resilience.Open, breaker.State())

	_, err = gw.CreateCheckoutSession(context.Background(), sessionParams("price_123"))
	require.Error(t, err)
	require.True(t, errors.Is(err, resilience.ErrOpenCircuit))
	require.Equal(t, msgUnavailable, err.Error())
	require.Equal(t, 1, mt.GetTotalCallCount())
}

func TestStripeHonoursContextDeadline(t *testing.T) {
	mt := httpmock.NewMockTransport()
	mt.RegisterResponder(http.MethodPost, sessionEndpoint, func(req *http.Request) (*http.Response, error) {
		<-req.Context().Done()
		return nil, req.Context().Err()
	})

	gw := newTestStripe(t, mt)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := gw.CreateCheckoutSession(ctx, sessionParams("price_123"))
	require.Error(t, err)
	require.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestStripeRejectsEmptyLineItems(t *testing.T) {
	gw := newTestStripe(t, httpmock.NewMockTransport())
	_, err := gw.CreateCheckoutSession(context.Background(), checkout.GatewaySessionParams{})
	require.Error(t, err)
}

func TestStubGateway(t *testing.T) {
	sess, err := Stub{}.CreateCheckoutSession(context.Background(), sessionParams("price 1"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(sess.ID, "cs_stub_"))
	require.True(t, strings.HasPrefix(sess.URL, "https://checkout.stub/session/price%201?session=cs_stub_"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Stub{}.CreateCheckoutSession(ctx, sessionParams("price_1"))
	require.ErrorIs(t, err, context.Canceled)
}

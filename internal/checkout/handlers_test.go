package checkout_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mindcare/checkout-api/internal/checkout"
)

func serve(t *testing.T, gw checkout.Gateway, opts checkout.Options, body, origin string) *httptest.ResponseRecorder {
	t.Helper()
	h := &checkout.Handler{Svc: newService(t, gw, opts)}
	req := httptest.NewRequest(http.MethodPost, "/create-checkout-session", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	h.CreateSession(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHandlerReturnsRedirectURL(t *testing.T) {
	gw := checkout.GatewayFunc(func(context.Context, checkout.GatewaySessionParams) (checkout.GatewaySession, error) {
		return checkout.GatewaySession{ID: "cs_1", URL: "https://pay.example/s/1"}, nil
	})
	rec := serve(t, gw, checkout.Options{}, `{"priceReference":"price_123","mode":"payment"}`, "https://mindcare.example")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, map[string]string{"redirectUrl": "https://pay.example/s/1"}, decodeBody(t, rec))
}

func TestHandlerAcceptsLegacyPriceID(t *testing.T) {
	gw := &stubGateway{}
	rec := serve(t, gw, checkout.Options{}, `{"priceId":"price_legacy"}`, "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "price_legacy", gw.last().LineItems[0].PriceReference)
}

func TestHandlerValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"empty body", ``, "Missing priceReference"},
		{"empty object", `{}`, "Missing priceReference"},
		{"blank price", `{"priceReference":"  "}`, "Missing priceReference"},
		{"bad mode", `{"priceReference":"price_1","mode":"weekly"}`, "Invalid mode"},
		{"malformed json", `{"priceReference":`, "Invalid request body"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gw := &stubGateway{}
			rec := serve(t, gw, checkout.Options{}, tc.body, "")
			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Equal(t, map[string]string{"errorMessage": tc.want}, decodeBody(t, rec))
			require.Zero(t, gw.calls.Load())
		})
	}
}

func TestHandlerSurfacesGatewayMessage(t *testing.T) {
	gw := checkout.GatewayFunc(func(context.Context, checkout.GatewaySessionParams) (checkout.GatewaySession, error) {
		return checkout.GatewaySession{}, errors.New("card price not found")
	})
	rec := serve(t, gw, checkout.Options{}, `{"priceReference":"price_missing"}`, "")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, map[string]string{"errorMessage": "card price not found"}, decodeBody(t, rec))
}

func TestHandlerNilServiceFails(t *testing.T) {
	h := &checkout.Handler{}
	rec := httptest.NewRecorder()
	h.CreateSession(rec, httptest.NewRequest(http.MethodPost, "/create-checkout-session", strings.NewReader(`{}`)))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

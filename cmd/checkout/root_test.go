package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCheckoutCommandRedirects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"redirectUrl":"https://pay.example/s/1"}`))
	}))
	defer srv.Close()

	out, err := execute(t, "--server", srv.URL, "--price", "price_123")
	require.NoError(t, err)
	require.Equal(t, "[button] disabled\n[button] Redirecting…\nredirect: https://pay.example/s/1\n", out)
}

func TestCheckoutCommandReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"errorMessage":"card price not found"}`))
	}))
	defer srv.Close()

	out, err := execute(t, "--server", srv.URL, "--price", "price_missing")
	require.Error(t, err)
	require.Contains(t, out, "alert: card price not found\n")
	require.Contains(t, out, "[button] Buy now\n")
}

func TestCheckoutCommandRequiresPrice(t *testing.T) {
	_, err := execute(t, "--server", "http://127.0.0.1:1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "--price")
}

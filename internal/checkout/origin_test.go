package checkout

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveReturnOrigin(t *testing.T) {
	cases := []struct {
		client, origin, fallback, want string
	}{
		{"https://site.example/", "https://caller.example", "http://localhost:5500", "https://site.example"},
		{"", "https://caller.example", "http://localhost:5500", "https://caller.example"},
		{"  ", "null", "http://localhost:5500", "http://localhost:5500"},
		{"", "", "", ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ResolveReturnOrigin(tc.client, tc.origin, tc.fallback))
	}
}

func TestModeOrDefault(t *testing.T) {
	require.Equal(t, ModePayment, Mode("").OrDefault())
	require.Equal(t, ModeSubscription, ModeSubscription.OrDefault())
}

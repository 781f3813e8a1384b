package checkout

import "strings"

// ResolveReturnOrigin picks the base URL the gateway sends the customer back
// to: the configured client URL, else the caller's Origin header, else the
// fallback. Trailing slashes are dropped so paths can be appended directly.
func ResolveReturnOrigin(clientURL, requestOrigin, fallback string) string {
	for _, candidate := range []string{clientURL, requestOrigin, fallback} {
		candidate = strings.TrimSpace(candidate)
		// Browsers send "null" for opaque origins such as file:// pages.
		if candidate == "" || candidate == "null" {
			continue
		}
		return strings.TrimRight(candidate, "/")
	}
	return ""
}

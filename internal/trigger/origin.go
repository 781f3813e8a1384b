package trigger

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultDevPort is the API port assumed when the page is served locally.
const DefaultDevPort = 4242

// ResolveServerOrigin returns the base URL of the checkout API: override when
// set, the local API port when the page is viewed from a development host,
// otherwise the page's own origin.
func ResolveServerOrigin(override string, page *url.URL, devPort int) string {
	if o := strings.TrimRight(strings.TrimSpace(override), "/"); o != "" {
		return o
	}
	if devPort <= 0 {
		devPort = DefaultDevPort
	}
	if page == nil {
		return fmt.Sprintf("http://localhost:%d", devPort)
	}
	switch page.Hostname() {
	case "localhost", "127.0.0.1":
		return fmt.Sprintf("http://localhost:%d", devPort)
	}
	return page.Scheme + "://" + page.Host
}

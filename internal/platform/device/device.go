// Package device turns raw user-agent strings into a display name recorded
// alongside writes, so staff can see which device a change came from.
package device

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"reentry/pkg/requestcontext"
)

// ParseUserAgent renders a user-agent string as "Browser on OS" for display.
func ParseUserAgent(rawUA string) string {
	if rawUA == "" {
		return "Unknown Device"
	}
	ua := useragent.New(rawUA)
	browser, _ := ua.Browser()
	os := ua.OSInfo().Name
	if os == "" {
		os = ua.Platform()
	}
	if browser == "" {
		browser = "Unknown Browser"
	}
	if os == "" {
		os = "Unknown OS"
	}
	return strings.TrimSpace(browser + " on " + os)
}

// Middleware records the request's device display name in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithDevice(r.Context(), ParseUserAgent(r.Header.Get("User-Agent")))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

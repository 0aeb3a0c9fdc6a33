// Package metadata captures client details every handler and audit event needs.
package metadata

import (
	"net/http"
	"strings"

	"exclusioncheck/pkg/requestcontext"
)

// ExportSessionHeader lets a browser tab scope the export in-flight flag to itself.
const ExportSessionHeader = "X-Export-Session"

// ClientMetadata extracts client IP address and User-Agent from the request
// and adds them to the context, together with the export session key.
// This middleware should be applied early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIPFromRequest(r)

		ctx := requestcontext.WithClientMetadata(r.Context(), ip, r.Header.Get("User-Agent"))
		ctx = requestcontext.WithExportKey(ctx, ExportKeyFromRequest(r, ip))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ExportKeyFromRequest returns the export session header, falling back to the client IP.
func ExportKeyFromRequest(r *http.Request, clientIP string) string {
	if key := strings.TrimSpace(r.Header.Get(ExportSessionHeader)); key != "" {
		return "session:" + key
	}
	return "ip:" + clientIP
}

// ClientIPFromRequest extracts the real client IP from the request, handling proxies and load balancers.
func ClientIPFromRequest(r *http.Request) string {
	// X-Forwarded-For: client, proxy1, proxy2
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr is ip:port, or [::1]:port for IPv6
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return strings.Trim(addr[:idx], "[]")
		}
		return addr
	}

	return "unknown"
}

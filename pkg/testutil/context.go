package testutil

import (
	"net/http"

	"exclusioncheck/pkg/requestcontext"
)

// WithRequestID adds a request ID to the request context, as the request ID middleware would.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}

// WithExportKey scopes the request to an export session, as the client metadata middleware would.
func WithExportKey(req *http.Request, key string) *http.Request {
	return req.WithContext(requestcontext.WithExportKey(req.Context(), key))
}

package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
)

type rawBodyKey struct{}

// CaptureBody reads the full request body once and stashes the raw
// bytes in the request context (§4.6 step 1) before restoring an
// io.Reader so downstream json.Decode calls still work. Every signature
// verification and digest computation in this codebase reads from the
// captured bytes, never from a re-marshaled struct — re-serializing
// would silently break verification per §4.2's edge case.
func CaptureBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		ctx := context.WithValue(r.Context(), rawBodyKey{}, body)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RawBody retrieves the raw body bytes captured by CaptureBody.
func RawBody(ctx context.Context) ([]byte, bool) {
	body, ok := ctx.Value(rawBodyKey{}).([]byte)
	return body, ok
}

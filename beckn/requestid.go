package beckn

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type requestIDKey struct{}

// RequestIDHeader is the header a correlated request ID is read from and
// echoed back on, matching how peer logs and ours line up a single
// request across a network hop.
const RequestIDHeader = "X-Request-Id"

// RequestIDMiddleware stamps every request with a correlation ID — the
// caller's own X-Request-Id if it sent one, otherwise a fresh UUID — and
// echoes it back on the response so a Registry/Gateway/participant log
// line can be traced across process boundaries.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDFromContext returns the correlation ID stamped by
// RequestIDMiddleware, or "" if the request was never wrapped by it.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

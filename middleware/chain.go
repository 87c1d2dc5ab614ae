// Package middleware implements the shared compliance pipeline of §4.3:
// rate limiting, duplicate message_id suppression, and network policy
// enforcement, wired in strict order in front of every protocol route.
package middleware

import "net/http"

// Chain composes http.Handler middleware in the fixed order §4.3
// mandates: rate limiter, then duplicate detector, then network policy.
// Any handler in the chain that writes a response short-circuits the
// rest — Go's http.Handler composition already gives this for free as
// long as each middleware returns without calling next on rejection.
func Chain(handler http.Handler, rateLimit, dedup, policy func(http.Handler) http.Handler) http.Handler {
	return rateLimit(dedup(policy(handler)))
}

// Package middleware provides the server's request-processing wrappers:
// panic recovery, request IDs, access logging, and the fixed-size
// concurrency pool.
package middleware

import "net/http"

// Middleware wraps an http.Handler with additional behavior. This is the
// standard Go middleware signature; handler-level middleware covers every
// route regardless of router.
type Middleware func(http.Handler) http.Handler

// Chain composes multiple middleware. The first in the list is the
// outermost (runs first on a request, last on a response).
func Chain(middlewares ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

package middleware

import (
	"net/http"

	"github.com/zetalabs/teliads/internal/resilience"
)

// ConcurrencyLimit returns middleware that caps the number of requests in
// flight at maxConcurrent. A request arriving while all slots are busy
// waits for a free slot rather than being rejected, so the queue forms at
// this layer exactly like it would at a fixed thread pool. maxConcurrent
// <= 0 disables the limit.
func ConcurrencyLimit(maxConcurrent int) Middleware {
	if maxConcurrent <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	pool := resilience.NewBulkhead("request-pool", maxConcurrent)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := pool.Acquire(r.Context()); err != nil {
				// Client went away while queued.
				http.Error(w, "request canceled", http.StatusServiceUnavailable)
				return
			}
			defer pool.Release()
			next.ServeHTTP(w, r)
		})
	}
}

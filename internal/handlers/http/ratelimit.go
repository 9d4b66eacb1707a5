package http

import (
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

const (
	limiterRPS   = 20
	limiterBurst = 40
)

// rateLimit token-bucket лимитер на клиентский IP
func rateLimit(next http.Handler) http.Handler {
	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)

		mu.Lock()
		limiter, ok := limiters[key]
		if !ok {
			limiter = rate.NewLimiter(rate.Limit(limiterRPS), limiterBurst)
			limiters[key] = limiter
		}
		mu.Unlock()

		if !limiter.Allow() {
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

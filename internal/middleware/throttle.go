package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type throttledClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type clientThrottle struct {
	mu      sync.Mutex
	clients map[string]*throttledClient
	rps     rate.Limit
	burst   int
}

func newClientThrottle(rps float64, burst int) *clientThrottle {
	t := &clientThrottle{
		clients: make(map[string]*throttledClient),
		rps:     rate.Limit(rps),
		burst:   burst,
	}
	go t.cleanup()
	return t
}

func (t *clientThrottle) getLimiter(key string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, exists := t.clients[key]
	if !exists {
		limiter := rate.NewLimiter(t.rps, t.burst)
		t.clients[key] = &throttledClient{limiter: limiter, lastSeen: time.Now()}
		return limiter
	}

	c.lastSeen = time.Now()
	return c.limiter
}

func (t *clientThrottle) cleanup() {
	for {
		time.Sleep(10 * time.Minute)
		t.mu.Lock()
		for key, c := range t.clients {
			if time.Since(c.lastSeen) > 10*time.Minute {
				delete(t.clients, key)
			}
		}
		t.mu.Unlock()
	}
}

// Throttle returns middleware applying a process-wide token-bucket limit
// per client address across the whole API. The auth endpoints additionally
// carry their own fixed-window limits via RateLimit.
func Throttle(rps float64, burst int) func(http.Handler) http.Handler {
	throttle := newClientThrottle(rps, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !throttle.getLimiter(clientKey(r)).Allow() {
				writeError(w, http.StatusTooManyRequests, "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

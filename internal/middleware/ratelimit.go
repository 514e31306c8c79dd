package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// CounterStore counts requests per key within a fixed window. Implementations
// must be safe for concurrent use; the in-memory store below can be swapped
// for an external counter service without touching handler code.
type CounterStore interface {
	// Incr records one request for key and returns the request count in the
	// current window together with the window's reset time. The window clock
	// starts at the first request, not on a wall-clock boundary.
	Incr(key string, window time.Duration) (count int, reset time.Time)
}

type windowEntry struct {
	count int
	reset time.Time
}

// MemoryCounterStore is a mutex-guarded in-memory CounterStore. Expired
// windows reset lazily on next access; a background sweep bounds memory.
type MemoryCounterStore struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
	now     func() time.Time
}

// NewMemoryCounterStore creates a MemoryCounterStore and starts its
// periodic cleanup of stale entries.
func NewMemoryCounterStore() *MemoryCounterStore {
	s := &MemoryCounterStore{
		entries: make(map[string]*windowEntry),
		now:     time.Now,
	}
	go s.cleanupLoop()
	return s
}

// Incr implements CounterStore.
func (s *MemoryCounterStore) Incr(key string, window time.Duration) (int, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.entries[key]
	if !ok || now.After(e.reset) {
		e = &windowEntry{reset: now.Add(window)}
		s.entries[key] = e
	}
	e.count++
	return e.count, e.reset
}

func (s *MemoryCounterStore) cleanupLoop() {
	for {
		time.Sleep(10 * time.Minute)
		s.removeExpired()
	}
}

func (s *MemoryCounterStore) removeExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, e := range s.entries {
		if now.After(e.reset) {
			delete(s.entries, key)
		}
	}
}

// RateLimit returns middleware enforcing a fixed-window request limit per
// client address. The rejection carries the standard rate-limit headers
// and a 429 body.
func RateLimit(store CounterStore, limit int, window time.Duration, message string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			count, reset := store.Incr(clientKey(r), window)

			if count > limit {
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(0, limit-count)))
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]any{
					"success": false,
					"message": message,
					"error":   "rate_limit_exceeded",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientKey derives the rate-limit key for a request: the first
// X-Forwarded-For entry, then X-Real-IP, then the connection address.
// Unidentifiable clients all share the "unknown" bucket.
func clientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if ip := strings.TrimSpace(strings.Split(fwd, ",")[0]); ip != "" {
			return ip
		}
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			return host
		}
		return r.RemoteAddr
	}
	return "unknown"
}

package api

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"jet-fighter/internal/config"
	"jet-fighter/internal/metrics"
)

const defaultIdleTimeout = 10 * time.Minute

// RateLimitConfig configures the per-IP request limiter.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	// IdleTimeout drops a client's bucket after this long without requests.
	IdleTimeout time.Duration
}

// RateLimitConfigFrom derives limiter settings from the resource limits.
func RateLimitConfigFrom(limits config.ResourceLimits) RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: limits.RateLimitRPS,
		Burst:             limits.RateLimitBurst,
		IdleTimeout:       defaultIdleTimeout,
	}
}

type visitor struct {
	bucket *rate.Limiter
	seen   time.Time
}

// IPRateLimiter keeps one token bucket per client IP. Idle buckets are
// pruned from inside Allow, so the limiter owns no goroutine.
type IPRateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	idle      time.Duration
	nextPrune time.Time
	now       func() time.Time

	allowed  atomic.Uint64
	rejected atomic.Uint64
}

// NewIPRateLimiter creates a limiter. It is ready to use and needs no Stop.
func NewIPRateLimiter(cfg RateLimitConfig) *IPRateLimiter {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
	return &IPRateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(cfg.RequestsPerSecond),
		burst:    cfg.Burst,
		idle:     cfg.IdleTimeout,
		now:      time.Now,
	}
}

// Allow takes a token from ip's bucket.
func (rl *IPRateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	now := rl.now()
	if !now.Before(rl.nextPrune) {
		rl.prune(now)
	}
	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{bucket: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.seen = now
	ok = v.bucket.AllowN(now, 1)
	rl.mu.Unlock()

	if ok {
		rl.allowed.Add(1)
	} else {
		rl.rejected.Add(1)
	}
	return ok
}

// prune drops visitors idle for longer than the idle timeout. Caller holds mu.
func (rl *IPRateLimiter) prune(now time.Time) {
	cutoff := now.Add(-rl.idle)
	for ip, v := range rl.visitors {
		if v.seen.Before(cutoff) {
			delete(rl.visitors, ip)
		}
	}
	rl.nextPrune = now.Add(rl.idle)
}

// Len returns the number of tracked clients.
func (rl *IPRateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

// Allowed and Rejected count decisions since creation.
func (rl *IPRateLimiter) Allowed() uint64  { return rl.allowed.Load() }
func (rl *IPRateLimiter) Rejected() uint64 { return rl.rejected.Load() }

// Middleware answers 429 once a client runs out of tokens.
func (rl *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(GetClientIP(r)) {
			metrics.RecordConnectionRejected("rate_limit")
			w.Header().Set("Retry-After", "1")
			writeError(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetClientIP returns the first X-Forwarded-For hop, then X-Real-IP, then
// the remote address. Forwarding headers are trusted as-is.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ipSlots caps concurrent WebSocket connections per client IP.
type ipSlots struct {
	mu    sync.Mutex
	held  map[string]int
	limit int
}

func newIPSlots(limit int) *ipSlots {
	return &ipSlots{held: make(map[string]int), limit: limit}
}

// acquire reserves a slot for ip if one is free.
func (s *ipSlots) acquire(ip string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.held[ip] >= s.limit {
		return false
	}
	s.held[ip]++
	return true
}

// release frees one slot. Entries are dropped when they reach zero.
func (s *ipSlots) release(ip string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch n := s.held[ip]; {
	case n > 1:
		s.held[ip] = n - 1
	case n == 1:
		delete(s.held, ip)
	}
}

func (s *ipSlots) count(ip string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.held[ip]
}

// OriginChecker matches request origins against an allow list. Entries may
// end in ":*" to accept any port on that host.
type OriginChecker struct {
	exact    map[string]bool
	anyPort  []string
	allowAll bool
}

// NewOriginChecker builds a checker. A "*" entry allows every origin.
func NewOriginChecker(origins []string) *OriginChecker {
	oc := &OriginChecker{exact: make(map[string]bool, len(origins))}
	for _, o := range origins {
		switch {
		case o == "*":
			oc.allowAll = true
		case strings.HasSuffix(o, ":*"):
			oc.anyPort = append(oc.anyPort, strings.TrimSuffix(o, "*"))
		default:
			oc.exact[o] = true
		}
	}
	return oc
}

// Allowed reports whether origin may connect. Requests without an Origin
// header come from non-browser clients and are allowed.
func (oc *OriginChecker) Allowed(origin string) bool {
	if origin == "" || oc.allowAll || oc.exact[origin] {
		return true
	}
	for _, prefix := range oc.anyPort {
		if strings.HasPrefix(origin, prefix) {
			return true
		}
	}
	return false
}

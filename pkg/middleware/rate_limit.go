package middleware

import (
	"net"
	"net/http"
	"roombook/pkg/auth"
	"roombook/pkg/logger"
	"strconv"
	"sync"
	"time"
)

// PrincipalExtractor names the caller a request is counted against.
type PrincipalExtractor func(r *http.Request) string

// PrincipalRateLimiter is a sliding-window limiter keyed by caller.
type PrincipalRateLimiter struct {
	mu        sync.RWMutex
	requests  map[string][]time.Time
	limit     int
	window    time.Duration
	extractor PrincipalExtractor
	log       *logger.Logger
	stopCh    chan struct{}
	stopOnce  sync.Once
}

func NewPrincipalRateLimiter(limit int, window time.Duration, extractor PrincipalExtractor, log *logger.Logger) *PrincipalRateLimiter {
	if extractor == nil {
		extractor = DefaultPrincipalExtractor
	}

	limiter := &PrincipalRateLimiter{
		requests:  make(map[string][]time.Time),
		limit:     limit,
		window:    window,
		extractor: extractor,
		log:       log,
		stopCh:    make(chan struct{}),
	}

	go limiter.cleanup()

	return limiter
}

func (rl *PrincipalRateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for principal, timestamps := range rl.requests {
				if len(timestamps) == 0 || time.Since(timestamps[len(timestamps)-1]) > rl.window {
					delete(rl.requests, principal)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *PrincipalRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

func (rl *PrincipalRateLimiter) Allow(principal string) bool {
	if principal == "" {
		return true
	}

	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	timestamps := rl.requests[principal]
	valid := timestamps[:0]
	for _, ts := range timestamps {
		if now.Sub(ts) < rl.window {
			valid = append(valid, ts)
		}
	}

	if len(valid) >= rl.limit {
		rl.requests[principal] = valid
		return false
	}

	rl.requests[principal] = append(valid, now)
	return true
}

func RateLimit(limiter *PrincipalRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := limiter.extractor(r)

			if !limiter.Allow(principal) {
				limiter.log.WithContext(r.Context()).Warn("Rate limit exceeded",
					"principal", principal,
					"path", r.URL.Path,
				)
				w.Header().Set("Retry-After", retryAfter(limiter.window))
				writeError(w, r, limiter.log, rateLimited())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// DefaultPrincipalExtractor uses the authenticated actor and falls back to
// the remote address for anonymous requests.
func DefaultPrincipalExtractor(r *http.Request) string {
	if actor, ok := auth.ActorFromContext(r.Context()); ok {
		return "actor:" + actor.ID
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

func retryAfter(window time.Duration) string {
	seconds := int(window.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}

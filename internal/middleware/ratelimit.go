// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/carterperez-dev/sharaka/internal/core"
)

// RateLimitConfig describes one limiter. Name shows up in logs and keeps
// the counters of different limiters apart.
type RateLimitConfig struct {
	Name       string
	Limit      redis_rate.Limit
	KeyFunc    func(*http.Request) string
	BypassFunc func(*http.Request) bool
}

// RateLimiter counts requests in Redis. While Redis is unreachable it
// counts in process memory instead, so a replica keeps limiting on its own.
type RateLimiter struct {
	redis  *redis_rate.Limiter
	local  *memoryBuckets
	config RateLimitConfig
	logger *slog.Logger
}

func NewRateLimiter(rdb *redis.Client, cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = KeyByIP
	}
	if cfg.Name == "" {
		cfg.Name = "global"
	}

	return &RateLimiter{
		redis:  redis_rate.NewLimiter(rdb),
		local:  newMemoryBuckets(),
		config: cfg,
		logger: slog.Default().With("limiter", cfg.Name),
	}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if bypass := rl.config.BypassFunc; bypass != nil && bypass(r) {
			next.ServeHTTP(w, r)
			return
		}

		key := rl.key(r)
		res := rl.allow(r.Context(), key)

		writeQuota(w.Header(), rl.config.Limit, res)
		if res.Allowed == 0 {
			rl.reject(w, r, key, res)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) key(r *http.Request) string {
	key := rl.config.KeyFunc(r)
	if rl.config.Name == "global" {
		return key
	}
	return key + ":" + rl.config.Name
}

func (rl *RateLimiter) allow(ctx context.Context, key string) *redis_rate.Result {
	res, err := rl.redis.Allow(ctx, key, rl.config.Limit)
	if err == nil {
		return res
	}
	rl.logger.WarnContext(ctx, "redis unavailable, counting locally",
		"error", err,
		"key", key,
	)
	return rl.local.take(key, rl.config.Limit)
}

func (rl *RateLimiter) reject(
	w http.ResponseWriter,
	r *http.Request,
	key string,
	res *redis_rate.Result,
) {
	wait := int(math.Ceil(res.RetryAfter.Seconds()))
	if wait < 1 {
		wait = 1
	}

	rl.logger.InfoContext(r.Context(), "rate limited",
		"key", key,
		"retry_after", wait,
	)

	w.Header().Set("Retry-After", strconv.Itoa(wait))
	core.JSONError(w, core.NewAppError(
		"RATE_LIMITED",
		fmt.Sprintf("Rate limit exceeded. Retry after %d seconds.", wait),
		http.StatusTooManyRequests,
		nil,
	))
}

// KeyByIP keys by client address. Behind a proxy the last X-Forwarded-For
// hop is the one the proxy saw.
func KeyByIP(r *http.Request) string {
	return "ratelimit:ip:" + clientIP(r)
}

// KeyByIPAndEndpoint keys anonymous endpoints such as sign-in, where the
// caller has no user id yet.
func KeyByIPAndEndpoint(r *http.Request) string {
	return fmt.Sprintf("%s:endpoint:%s", KeyByIP(r), normalizeEndpoint(r.URL.Path))
}

// KeyByUser keys by the signed-in user so one account cannot flood the
// marketplace from many addresses. Anonymous requests fall back to the
// client address.
func KeyByUser(r *http.Request) string {
	if id := GetUserID(r.Context()); id != "" {
		return "ratelimit:user:" + id
	}
	return KeyByIP(r)
}

// IsProbe reports whether r is a health probe, which the global limiter
// never counts.
func IsProbe(r *http.Request) bool {
	switch r.URL.Path {
	case "/healthz", "/livez", "/readyz":
		return true
	}
	return false
}

// IsRead reports whether r only reads. The write limiter skips these.
func IsRead(r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		return strings.TrimSpace(hops[len(hops)-1])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// normalizeEndpoint replaces ids in path with {id} so every project or
// user shares one counter per route.
func normalizeEndpoint(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segments {
		if looksLikeID(seg) {
			segments[i] = "{id}"
		}
	}
	return "/" + strings.Join(segments, "/")
}

func looksLikeID(seg string) bool {
	if len(seg) == 36 && seg[8] == '-' && seg[13] == '-' && seg[18] == '-' && seg[23] == '-' {
		return true
	}
	if seg == "" {
		return false
	}
	for _, c := range seg {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func writeQuota(h http.Header, limit redis_rate.Limit, res *redis_rate.Result) {
	reset := res.ResetAfter
	h.Set("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(reset).Unix(), 10))
	h.Set("RateLimit-Policy", fmt.Sprintf("%d;w=%d", limit.Rate, int(limit.Period.Seconds())))
	h.Set("RateLimit", fmt.Sprintf("%d;t=%d", res.Remaining, int(reset.Seconds())))
}

const bucketIdleTTL = 10 * time.Minute

type bucket struct {
	tokens   *rate.Limiter
	lastSeen time.Time
}

// memoryBuckets is the in-process token bucket used while Redis is down.
// Idle buckets are swept on access rather than by a background goroutine.
type memoryBuckets struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

func newMemoryBuckets() *memoryBuckets {
	return &memoryBuckets{
		buckets:   make(map[string]*bucket),
		lastSweep: time.Now(),
	}
}

func (m *memoryBuckets) take(key string, limit redis_rate.Limit) *redis_rate.Result {
	perToken := time.Duration(float64(limit.Period) / float64(limit.Rate))
	now := time.Now()

	m.mu.Lock()
	if now.Sub(m.lastSweep) > bucketIdleTTL/2 {
		for k, b := range m.buckets {
			if now.Sub(b.lastSeen) > bucketIdleTTL {
				delete(m.buckets, k)
			}
		}
		m.lastSweep = now
	}

	b, ok := m.buckets[key]
	if !ok {
		b = &bucket{tokens: rate.NewLimiter(rate.Every(perToken), limit.Burst)}
		m.buckets[key] = b
	}
	b.lastSeen = now
	m.mu.Unlock()

	res := &redis_rate.Result{
		Limit:      limit,
		Remaining:  max(int(b.tokens.TokensAt(now)), 0),
		RetryAfter: -1,
		ResetAfter: perToken,
	}
	if b.tokens.AllowN(now, 1) {
		res.Allowed = 1
		res.Remaining = max(res.Remaining-1, 0)
	} else {
		res.RetryAfter = perToken
	}
	return res
}

// PerMinute allows rate requests per minute.
func PerMinute(rate, burst int) redis_rate.Limit {
	return PerWindow(rate, burst, time.Minute)
}

// PerWindow allows rate requests per window. A non-positive window means
// one minute.
func PerWindow(rate, burst int, window time.Duration) redis_rate.Limit {
	if window <= 0 {
		window = time.Minute
	}
	return redis_rate.Limit{
		Rate:   rate,
		Burst:  burst,
		Period: window,
	}
}

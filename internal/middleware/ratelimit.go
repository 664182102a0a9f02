package middleware

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"bannergen/internal/quota"
)

const rateLimitPrefix = "ratelimit:"

// Decision is the outcome of one rate-limit check.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

// Limiter is a per-client sliding window. Requests are counted in aligned
// fixed buckets and the previous bucket is weighted by how much of it still
// overlaps the window ending now.
type Limiter struct {
	counter quota.Counter
	limit   int
	window  time.Duration
	now     func() time.Time
}

func NewLimiter(counter quota.Counter, limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{counter: counter, limit: limit, window: window, now: time.Now}
}

func (l *Limiter) bucketKey(clientIP string, start time.Time) string {
	return rateLimitPrefix + clientIP + ":" + strconv.FormatInt(start.UnixMilli(), 10)
}

// Allow records one request from clientIP and reports whether it fits the window.
func (l *Limiter) Allow(ctx context.Context, clientIP string) (Decision, error) {
	now := l.now()
	start := now.Truncate(l.window)
	elapsed := now.Sub(start)

	prev, err := l.counter.Get(ctx, l.bucketKey(clientIP, start.Add(-l.window)))
	if err != nil {
		return Decision{Allowed: true, Remaining: l.limit}, err
	}
	overlap := 1 - float64(elapsed)/float64(l.window)
	carried := int64(math.Floor(float64(prev.Count) * overlap))
	budget := int64(l.limit) - carried

	// Buckets live for two windows so each serves as the next one's previous.
	curKey := l.bucketKey(clientIP, start)
	var cur quota.Entry
	allowed := false
	if budget > 0 {
		cur, allowed, err = l.counter.IncrBelow(ctx, curKey, budget, start.Add(2*l.window))
	} else {
		cur, err = l.counter.Get(ctx, curKey)
	}
	if err != nil {
		return Decision{Allowed: true, Remaining: l.limit}, err
	}

	d := Decision{Allowed: allowed, Remaining: int(budget - cur.Count)}
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	if allowed {
		d.ResetIn = l.window - elapsed
	} else {
		d.ResetIn = l.retryIn(elapsed, prev.Count, cur.Count)
	}
	if d.ResetIn <= 0 {
		d.ResetIn = time.Second
	}
	return d, nil
}

// retryIn estimates when one more request fits: either the previous bucket
// decays enough inside the current window, or the current bucket decays
// during the next one.
func (l *Limiter) retryIn(elapsed time.Duration, prev, cur int64) time.Duration {
	limit := int64(l.limit)
	if cur < limit && prev > 0 {
		at := time.Duration(int64(l.window) * (prev - (limit - cur)) / prev)
		return at - elapsed
	}
	wait := l.window - elapsed
	if cur > limit {
		wait += time.Duration(int64(l.window) * (cur - limit) / cur)
	}
	return wait
}

type rateLimitBody struct {
	Success     bool   `json:"success"`
	Error       string `json:"error"`
	RateLimited bool   `json:"rateLimited"`
	ResetIn     int    `json:"resetIn"`
}

// RateLimit rejects requests over the limiter's budget with 429. Store
// failures let the request through.
func RateLimit(l *Limiter, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIPForRateLimit(r)
			d, err := l.Allow(r.Context(), ip)
			if err != nil {
				logger.Warn().Err(err).Str("ip", ip).Msg("rate limit store unavailable")
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			if d.Allowed {
				next.ServeHTTP(w, r)
				return
			}
			secs := int(math.Ceil(d.ResetIn.Seconds()))
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(rateLimitBody{
				Error:       "Too many requests. Please try again in " + strconv.Itoa(secs) + " seconds.",
				RateLimited: true,
				ResetIn:     secs,
			})
		})
	}
}

// clientIPForRateLimit keys on the socket peer. RealIP has already replaced
// it with the forwarded client when the peer is a trusted proxy.
func clientIPForRateLimit(r *http.Request) string {
	return peerIP(r)
}

package api

import (
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	shortWindow = 1 * time.Minute
	longWindow  = 1 * time.Hour
)

// rateLimiter is per-client sliding-window admission control. Two windows
// are checked per request: a one-minute window and a one-hour window. A
// request is admitted only when both caps have headroom.
//
// Each client's accepted-request timestamps are kept in order; entries
// older than the long window are pruned on every check, which bounds
// memory at active clients x the hourly cap.
type rateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time

	perMinute int
	perHour   int
}

func newRateLimiter(perMinute, perHour int) *rateLimiter {
	return &rateLimiter{
		requests:  make(map[string][]time.Time),
		perMinute: perMinute,
		perHour:   perHour,
	}
}

// quota is the remaining headroom after an admission, reported back in the
// informational response headers.
type quota struct {
	minuteRemaining int
	hourRemaining   int
}

// admit records the request for the client and reports whether it is
// admitted. The check is synchronous and never blocks.
func (rl *rateLimiter) admit(clientIP string, now time.Time) (bool, quota) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Prune everything older than the long window first, then count both
	// windows off the pruned sequence.
	stamps := rl.requests[clientIP]
	cutoff := now.Add(-longWindow)
	start := 0
	for start < len(stamps) && stamps[start].Before(cutoff) {
		start++
	}
	stamps = stamps[start:]

	minuteCutoff := now.Add(-shortWindow)
	minuteCount := 0
	for i := len(stamps) - 1; i >= 0; i-- {
		if !stamps[i].After(minuteCutoff) {
			break
		}
		minuteCount++
	}

	if minuteCount >= rl.perMinute || len(stamps) >= rl.perHour {
		rl.requests[clientIP] = stamps
		return false, quota{}
	}

	stamps = append(stamps, now)
	rl.requests[clientIP] = stamps
	return true, quota{
		minuteRemaining: rl.perMinute - minuteCount - 1,
		hourRemaining:   rl.perHour - len(stamps),
	}
}

// sweep drops clients whose entire history has aged out of the long
// window. Call periodically from a background goroutine.
func (rl *rateLimiter) sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := now.Add(-longWindow)
	for ip, stamps := range rl.requests {
		if len(stamps) == 0 || stamps[len(stamps)-1].Before(cutoff) {
			delete(rl.requests, ip)
		}
	}
}

// writeRateLimited sends the fixed 429 rejection with the retry hint.
func writeRateLimited(w http.ResponseWriter) {
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
}

// clientIP derives the limiter key: the first entry of X-Forwarded-For
// when present, else the direct peer address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	host := r.RemoteAddr
	if strings.HasPrefix(host, "[") {
		if j := strings.IndexByte(host, ']'); j > 0 {
			return host[1:j]
		}
	}
	if i := strings.LastIndexByte(host, ':'); i > 0 {
		return host[:i]
	}
	return host
}

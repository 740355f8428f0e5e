package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/alchemorsel/fridgechef/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// idleLimiterTTL is how long an address may stay quiet before its limiter
// is dropped
const idleLimiterTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiters keeps one token bucket per client address
type ipLimiters struct {
	perSecond rate.Limit
	burst     int
	visitors  map[string]*visitor
	lastSweep time.Time
	now       func() time.Time
	mu        sync.Mutex
}

func newIPLimiters(requestsPerMin, burst int) *ipLimiters {
	if burst <= 0 {
		burst = 1
	}
	return &ipLimiters{
		perSecond: rate.Limit(float64(requestsPerMin) / 60),
		burst:     burst,
		visitors:  make(map[string]*visitor),
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (l *ipLimiters) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > idleLimiterTTL {
		for key, v := range l.visitors {
			if now.Sub(v.lastSeen) > idleLimiterTTL {
				delete(l.visitors, key)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.perSecond, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// RateLimit rejects clients that exceed the per-address budget with 429
func (m *Middleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.config.RateLimit.Enable {
			next.ServeHTTP(w, r)
			return
		}

		ip := clientIP(r)
		if !m.limiters.allow(ip) {
			m.logger.Warn("Rate limit exceeded", zap.String("ip", ip), zap.String("path", r.URL.Path))
			w.Header().Set("Retry-After", strconv.Itoa(60))
			writeError(w, r, errors.NewTooManyRequestsError())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP strips the port from RemoteAddr. chi's RealIP has already
// replaced it with the forwarded address when one was sent.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

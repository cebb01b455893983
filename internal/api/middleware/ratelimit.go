package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/d60-Lab/eventboard/pkg/response"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter 按客户端 IP 限流，用于登录/注册提交
type IPRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
	idle     time.Duration
}

func NewIPRateLimiter(rps float64, burst int) *IPRateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &IPRateLimiter{visitors: make(map[string]*visitor), rps: rate.Limit(rps), burst: burst, idle: 10 * time.Minute}
}

// Allow reports whether ip may make another request now.
func (l *IPRateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	if len(l.visitors) > 1024 {
		for k, other := range l.visitors {
			if now.Sub(other.lastSeen) > l.idle {
				delete(l.visitors, k)
			}
		}
	}
	return v.limiter.Allow()
}

// RateLimit applies l to POST requests only; page views are never limited.
func RateLimit(l *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		if !l.Allow(c.ClientIP()) {
			response.Abort(c, http.StatusTooManyRequests, "")
			return
		}
		c.Next()
	}
}

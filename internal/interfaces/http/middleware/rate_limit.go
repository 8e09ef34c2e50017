// internal/interfaces/http/middleware/rate_limit.go
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/elegant-store/storefront/internal/config"
)

// RateLimit limits requests per client IP. With Redis the limit is a
// fixed one-minute window shared by every instance; without it, or while
// Redis is unreachable, an in-process token bucket per IP applies.
func RateLimit(cfg config.SecurityConfig, redisClient *redis.Client, logger logrus.FieldLogger) gin.HandlerFunc {
	local := newLocalLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst)

	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		if redisClient != nil {
			count, err := incrementWindow(c.Request.Context(), redisClient, clientIP)
			if err == nil {
				c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.RateLimitPerMinute))
				c.Header("X-RateLimit-Remaining", strconv.Itoa(max(cfg.RateLimitPerMinute-count, 0)))
				if count > cfg.RateLimitPerMinute {
					tooManyRequests(c)
					return
				}
				c.Next()
				return
			}
			logger.WithError(err).Warn("Rate limit store unavailable, using in-process limiter")
		}

		if !local.allow(clientIP) {
			tooManyRequests(c)
			return
		}
		c.Next()
	}
}

func incrementWindow(ctx context.Context, redisClient *redis.Client, clientIP string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	window := time.Now().Unix() / 60
	key := fmt.Sprintf("rate_limit:%s:%d", clientIP, window)

	pipe := redisClient.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int(incr.Val()), nil
}

func tooManyRequests(c *gin.Context) {
	c.Header("Retry-After", "60")
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error":       "Rate limit exceeded",
		"retry_after": 60,
	})
}

// visitorIdleTTL is how long an idle client keeps its bucket. A bucket
// idle this long has refilled, so dropping it changes no decision.
const visitorIdleTTL = 3 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type localLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	visitors  map[string]*visitor
	lastSweep time.Time
	now       func() time.Time
}

func newLocalLimiter(perMinute, burst int) *localLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	if burst <= 0 {
		burst = perMinute
	}
	return &localLimiter{
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

func (l *localLimiter) allow(clientIP string) bool {
	l.mu.Lock()
	now := l.now()
	l.sweep(now)

	v, ok := l.visitors[clientIP]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[clientIP] = v
	}
	v.lastSeen = now
	l.mu.Unlock()

	return v.limiter.AllowN(now, 1)
}

// sweep drops idle visitors at most once per visitorIdleTTL. Callers hold mu.
func (l *localLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < visitorIdleTTL {
		return
	}
	l.lastSweep = now

	for ip, v := range l.visitors {
		if now.Sub(v.lastSeen) > visitorIdleTTL {
			delete(l.visitors, ip)
		}
	}
}

func (l *localLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/langbridge/pkg/metrics"
	"github.com/oksasatya/langbridge/pkg/response"
)

// KeyFunc identifies the caller a quota is charged to.
type KeyFunc func(c *gin.Context) string

// AllowFunc returns true when the request skips the limiter entirely.
type AllowFunc func(*gin.Context) bool

// Limit is a fixed-window quota. Name scopes the redis key and labels the
// rejection counter, so two limits keyed by the same caller never share a window.
type Limit struct {
	Name   string
	Max    int
	Window time.Duration
	Key    KeyFunc
}

func clientIP(c *gin.Context) string {
	if ip := c.GetString(CtxRealIPKey); ip != "" {
		return ip
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}

// KeyByIP charges the client address.
func KeyByIP() KeyFunc {
	return func(c *gin.Context) string { return "ip:" + clientIP(c) }
}

// KeyByUserID charges the authenticated user; anonymous callers fall back to IP.
func KeyByUserID() KeyFunc {
	return func(c *gin.Context) string {
		if uid := c.GetString(CtxUserIDKey); uid != "" {
			return "user:" + uid
		}
		return "anon:" + clientIP(c)
	}
}

// Returns {hits, pttl}; the window starts on the first hit.
var fixedWindow = redis.NewScript(`
local hits = redis.call("INCR", KEYS[1])
if hits == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {hits, redis.call("PTTL", KEYS[1])}
`)

// RateLimit enforces l against redis. Without redis, or with an unusable
// limit, it is a no-op. Redis errors fail open.
func RateLimit(rdb *redis.Client, l Limit, allow AllowFunc) gin.HandlerFunc {
	if rdb == nil || l.Max <= 0 || l.Window <= 0 || l.Key == nil {
		return func(c *gin.Context) { c.Next() }
	}
	prefix := "rl:" + l.Name + ":"
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || (allow != nil && allow(c)) {
			c.Next()
			return
		}

		res, err := fixedWindow.Run(c.Request.Context(), rdb, []string{prefix + l.Key(c)}, l.Window.Milliseconds()).Int64Slice()
		if err != nil || len(res) != 2 {
			c.Next()
			return
		}
		hits, pttl := int(res[0]), time.Duration(res[1])*time.Millisecond
		reset := int(pttl.Round(time.Second) / time.Second)

		h := c.Writer.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(l.Max))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(max(l.Max-hits, 0)))
		h.Set("X-RateLimit-Reset", strconv.Itoa(reset))

		if hits > l.Max {
			metrics.RateLimited.WithLabelValues(l.Name).Inc()
			if reset > 0 {
				h.Set("Retry-After", strconv.Itoa(reset))
			}
			response.Abort(c, http.StatusTooManyRequests, "rate limit exceeded", nil)
			return
		}
		c.Next()
	}
}

package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/oksasatya/linkcircle/pkg/response"
)

// ipFromCtx extracts the client IP from Gin context, falling back to "unknown"
func ipFromCtx(c *gin.Context) string {
	if ip := c.GetString("real_ip"); ip != "" {
		return ip
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}

func normalizePath(c *gin.Context) string {
	if fp := c.FullPath(); fp != "" {
		return fp
	}
	return c.Request.URL.Path
}

// KeyFunc builds a rate-limit key from the request
type KeyFunc func(c *gin.Context) string

// KeyByIP limits by client IP only
func KeyByIP() KeyFunc {
	return func(c *gin.Context) string {
		return "rl:ip:" + ipFromCtx(c)
	}
}

// KeyByIPAndPath limits by client IP and route
func KeyByIPAndPath() KeyFunc {
	return func(c *gin.Context) string {
		return "rl:path:" + normalizePath(c) + ":ip:" + ipFromCtx(c)
	}
}

// KeyByUserID limits by session user, or by IP for anonymous requests
func KeyByUserID() KeyFunc {
	return func(c *gin.Context) string {
		uid := c.GetString(CtxUserIDKey)
		if uid == "" {
			return "rl:user:anon:ip:" + ipFromCtx(c)
		}
		return "rl:user:" + uid
	}
}

// atomic INCR, setting the window expiry on the first hit
var incrExpireScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

type AllowFunc func(*gin.Context) bool // return true to bypass the limit

// RateLimit allows max requests per window per key. With Redis the window
// is a shared fixed window; without it each process keeps a token bucket
// per key. Redis errors fail open.
func RateLimit(rdb *redis.Client, max int, window time.Duration, keyFn KeyFunc, allow AllowFunc) gin.HandlerFunc {
	if max <= 0 || window <= 0 || keyFn == nil {
		return func(c *gin.Context) { c.Next() }
	}
	var local *localLimiter
	if rdb == nil {
		local = newLocalLimiter(max, window)
	}
	return func(c *gin.Context) {
		if allow != nil && allow(c) {
			c.Next()
			return
		}
		if strings.EqualFold(c.Request.Method, http.MethodOptions) {
			c.Next()
			return
		}

		key := keyFn(c)
		var (
			remaining int
			resetSec  int
			exceeded  bool
		)
		if local != nil {
			remaining, resetSec, exceeded = local.take(key)
		} else {
			ctx := c.Request.Context()
			countI, err := incrExpireScript.Run(ctx, rdb, []string{key}, window.Milliseconds()).Result()
			if err != nil {
				c.Next()
				return
			}
			count := toInt(countI)
			ttl, _ := rdb.PTTL(ctx, key).Result()
			if ttl > 0 {
				resetSec = int((ttl + time.Second - 1) / time.Second)
			}
			remaining = max - count
			exceeded = count > max
		}
		if remaining < 0 {
			remaining = 0
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(max))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(resetSec))

		if exceeded {
			if resetSec > 0 {
				c.Header("Retry-After", strconv.Itoa(resetSec))
			}
			response.Abort(c, http.StatusTooManyRequests, "rate limit exceeded", response.ErrorBody{Code: "RATE_LIMITED"})
			return
		}
		c.Next()
	}
}

func toInt(v interface{}) int {
	switch x := v.(type) {
	case int64:
		return int(x)
	case int:
		return x
	case string:
		i, _ := strconv.Atoi(x)
		return i
	}
	return 0
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// localLimiter is the in-process fallback: one token bucket per key that
// refills max tokens per window.
type localLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	every   rate.Limit
	burst   int
	window  time.Duration
	swept   time.Time
}

func newLocalLimiter(max int, window time.Duration) *localLimiter {
	return &localLimiter{
		buckets: map[string]*bucket{},
		every:   rate.Every(window / time.Duration(max)),
		burst:   max,
		window:  window,
		swept:   time.Now(),
	}
}

func (l *localLimiter) take(key string) (remaining, resetSec int, exceeded bool) {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.swept) > l.window {
		for k, b := range l.buckets {
			if now.Sub(b.seen) > l.window {
				delete(l.buckets, k)
			}
		}
		l.swept = now
	}
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.every, l.burst)}
		l.buckets[key] = b
	}
	b.seen = now

	if !b.lim.AllowN(now, 1) {
		wait := b.lim.ReserveN(now, 1)
		delay := wait.DelayFrom(now)
		wait.CancelAt(now)
		return 0, int((delay + time.Second - 1) / time.Second), true
	}
	return int(b.lim.TokensAt(now)), 0, false
}

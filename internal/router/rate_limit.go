package router

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/tixgate/internal/http/response"
	"github.com/tixgate/internal/i18n"
	"github.com/tixgate/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimitKeyFunc 生成限流 key 的函数
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 限流规则
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
	MessageKey    string
}

var rateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("TTL", KEYS[1])
return {current, ttl}
`)

// RateLimitMiddleware 频率限制中间件：优先 Redis 固定窗口，Redis 不可用时退回进程内令牌桶
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	local := newLocalLimiter(rule)
	return func(c *gin.Context) {
		if rule.WindowSeconds <= 0 || rule.MaxRequests <= 0 {
			c.Next()
			return
		}

		key := ""
		if keyFunc != nil {
			key = strings.TrimSpace(keyFunc(c))
		}
		if key == "" {
			key = c.ClientIP()
		}
		if rule.Prefix != "" {
			key = fmt.Sprintf("%s:%s", rule.Prefix, key)
		}

		allowed, waitSeconds := true, 0
		if client != nil {
			var err error
			allowed, waitSeconds, err = redisAllow(c, client, key, rule)
			if err != nil {
				logger.Warnw("rate_limit_redis_failed", "key", key, "error", err)
				allowed, waitSeconds = local.allow(key)
			}
		} else {
			allowed, waitSeconds = local.allow(key)
		}
		if !allowed {
			if waitSeconds < 1 {
				waitSeconds = 1
			}
			msgKey := strings.TrimSpace(rule.MessageKey)
			if msgKey == "" {
				msgKey = "error.rate_limited"
			}
			msg := i18n.Sprintf(i18n.ResolveLocale(c), msgKey, waitSeconds)
			response.Error(c, response.CodeTooManyRequests, msg)
			c.Abort()
			return
		}

		c.Next()
	}
}

func redisAllow(c *gin.Context, client *redis.Client, key string, rule RateLimitRule) (bool, int, error) {
	result, err := rateLimitScript.Run(c.Request.Context(), client, []string{key}, rule.WindowSeconds).Result()
	if err != nil {
		return false, 0, err
	}
	values, ok := result.([]interface{})
	if !ok || len(values) < 2 {
		return false, 0, fmt.Errorf("unexpected rate limit result %T", result)
	}
	count, ok := toInt64(values[0])
	if !ok {
		return false, 0, fmt.Errorf("unexpected rate limit counter %T", values[0])
	}
	ttlSeconds, _ := toInt64(values[1])
	if count > int64(rule.MaxRequests) {
		waitSeconds := int(ttlSeconds)
		if waitSeconds < 1 {
			waitSeconds = rule.WindowSeconds
		}
		return false, waitSeconds, nil
	}
	return true, 0, nil
}

const localLimiterIdleTTL = 10 * time.Minute

type localLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// localLimiter 进程内按 key 的令牌桶，窗口内最多 MaxRequests 次
type localLimiter struct {
	mu       sync.Mutex
	every    rate.Limit
	burst    int
	entries  map[string]*localLimiterEntry
	lastScan time.Time
}

func newLocalLimiter(rule RateLimitRule) *localLimiter {
	l := &localLimiter{entries: make(map[string]*localLimiterEntry)}
	if rule.WindowSeconds > 0 && rule.MaxRequests > 0 {
		l.every = rate.Limit(float64(rule.MaxRequests) / float64(rule.WindowSeconds))
		l.burst = rule.MaxRequests
	}
	return l
}

func (l *localLimiter) allow(key string) (bool, int) {
	if l.burst <= 0 {
		return true, 0
	}
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastScan) > localLimiterIdleTTL {
		for k, entry := range l.entries {
			if now.Sub(entry.lastSeen) > localLimiterIdleTTL {
				delete(l.entries, k)
			}
		}
		l.lastScan = now
	}

	entry, ok := l.entries[key]
	if !ok {
		entry = &localLimiterEntry{limiter: rate.NewLimiter(l.every, l.burst)}
		l.entries[key] = entry
	}
	entry.lastSeen = now
	reservation := entry.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return false, 1
	}
	delay := reservation.DelayFrom(now)
	if delay <= 0 {
		return true, 0
	}
	reservation.CancelAt(now)
	return false, int(math.Ceil(delay.Seconds()))
}

// KeyByIP 使用 IP 作为限流 key
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

func toInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int16:
		return int64(v), true
	case int8:
		return int64(v), true
	case uint64:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint8:
		return int64(v), true
	case float64:
		return int64(v), true
	case float32:
		return int64(v), true
	default:
		return 0, false
	}
}

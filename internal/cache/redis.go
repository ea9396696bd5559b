package cache

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/tixgate/internal/config"
	"github.com/tixgate/internal/logger"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cast"
)

const (
	defaultKeyPrefix   = "tg"
	defaultLockTTL     = 30 * time.Second
	initialPingTimeout = 3 * time.Second
)

var (
	redisClient  *redis.Client
	redisPrefix  string
	redisEnabled bool
)

// Addr 拼接 Redis 地址，缺省 127.0.0.1:6379
func Addr(host string, port int) string {
	host = strings.TrimSpace(host)
	if host == "" {
		host = "127.0.0.1"
	}
	if port <= 0 {
		port = 6379
	}
	return net.JoinHostPort(host, cast.ToString(port))
}

// InitRedis 初始化缓存客户端；Redis 暂不可达时仅告警，命令失败由调用方降级
func InitRedis(cfg *config.RedisConfig) error {
	redisEnabled = false
	if cfg == nil || !cfg.Enabled {
		return nil
	}
	redisPrefix = strings.TrimSpace(cfg.Prefix)
	if redisPrefix == "" {
		redisPrefix = defaultKeyPrefix
	}
	redisClient = redis.NewClient(&redis.Options{
		Addr:     Addr(cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	redisEnabled = true

	ctx, cancel := context.WithTimeout(context.Background(), initialPingTimeout)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warnw("cache_redis_ping_failed", "addr", redisClient.Options().Addr, "error", err)
	}
	return nil
}

// Close 关闭客户端
func Close() error {
	if redisClient == nil {
		return nil
	}
	redisEnabled = false
	return redisClient.Close()
}

// Enabled 缓存是否可用
func Enabled() bool {
	return redisEnabled && redisClient != nil
}

// Client 未启用时返回 nil
func Client() *redis.Client {
	if Enabled() {
		return redisClient
	}
	return nil
}

// GetJSON 读取并解码缓存，未命中返回 false
func GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !Enabled() {
		return false, nil
	}
	raw, err := redisClient.Get(ctx, buildKey(key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON 编码写入缓存
func SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !Enabled() {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return redisClient.Set(ctx, buildKey(key), payload, ttl).Err()
}

// Del 删除缓存
func Del(ctx context.Context, key string) error {
	if !Enabled() {
		return nil
	}
	return redisClient.Del(ctx, buildKey(key)).Err()
}

func buildKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return redisPrefix
	}
	return redisPrefix + ":" + key
}

// TryLock 尝试获取分布式锁，Redis 未启用时视为成功
func TryLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	if !Enabled() {
		return true, nil
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return redisClient.SetNX(ctx, buildKey(key), token, ttl).Result()
}

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Unlock 仅当 token 与持有者一致时删除
func Unlock(ctx context.Context, key, token string) error {
	if !Enabled() {
		return nil
	}
	return unlockScript.Run(ctx, redisClient, []string{buildKey(key)}, token).Err()
}

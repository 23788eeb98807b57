package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"CareCompanion/config"
	"CareCompanion/pkg/errors"
	"CareCompanion/pkg/logger"
	"CareCompanion/pkg/response"
	"CareCompanion/storage/redis"
)

// RateLimitConfig 滑动窗口限流配置
type RateLimitConfig struct {
	KeyPrefix   string
	Window      time.Duration
	MaxRequests int
	// 已认证时按用户限流，否则按 IP
	ByUserID bool
}

// DefaultRateLimitConfig 通用限流，上限来自 RATE_LIMIT_RPS
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		KeyPrefix:   "rate:api",
		Window:      time.Second,
		MaxRequests: config.Cfg.RateLimitRPS,
		ByUserID:    true,
	}
}

// AssistantRateLimitConfig 对话代理调用外部模型，单独收紧
var AssistantRateLimitConfig = RateLimitConfig{
	KeyPrefix:   "rate:assistant",
	Window:      time.Minute,
	MaxRequests: 20,
	ByUserID:    true,
}

// AuthRateLimitConfig 刷新 token 按 IP 限流
var AuthRateLimitConfig = RateLimitConfig{
	KeyPrefix:   "rate:auth",
	Window:      time.Minute,
	MaxRequests: 10,
}

type RateLimiter struct {
	config RateLimitConfig
}

func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	return &RateLimiter{config: cfg}
}

func (rl *RateLimiter) key(ctx context.Context, c *app.RequestContext) string {
	if rl.config.ByUserID {
		if uid, ok := GetUserID(ctx, c); ok {
			return redis.Key(rl.config.KeyPrefix, "user", strconv.FormatInt(uid, 10))
		}
	}
	return redis.Key(rl.config.KeyPrefix, "ip", c.ClientIP())
}

// Allow zset 滑动窗口，返回是否放行与窗口内请求数
func (rl *RateLimiter) Allow(ctx context.Context, c *app.RequestContext) (bool, int, error) {
	key := rl.key(ctx, c)
	now := time.Now()
	windowStart := now.Add(-rl.config.Window)

	pipe := redis.Client().Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	pipe.ZAdd(ctx, key, redislib.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
	card := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, rl.config.Window+10*time.Second)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("failed to execute pipeline: %w", err)
	}

	count := int(card.Val())
	return count <= rl.config.MaxRequests, count, nil
}

// RateLimitMiddleware Redis 不可用时放行，限流不应挡住服药确认
func RateLimitMiddleware(cfg RateLimitConfig) app.HandlerFunc {
	limiter := NewRateLimiter(cfg)

	return func(ctx context.Context, c *app.RequestContext) {
		if !config.Cfg.RateLimitEnabled || cfg.MaxRequests <= 0 {
			c.Next(ctx)
			return
		}

		allowed, count, err := limiter.Allow(ctx, c)
		if err != nil {
			logger.Logger.Warn("Rate limit check failed, allowing request", zap.Error(err))
			c.Next(ctx)
			return
		}

		remaining := cfg.MaxRequests - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.MaxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			response.Error(ctx, c, errors.TooManyRequests)
			c.Abort()
			return
		}

		c.Next(ctx)
	}
}

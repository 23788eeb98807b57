package cache

import (
	"context"
	"strconv"
	"time"

	"CareCompanion/config"
	"CareCompanion/storage/redis"
)

const tokenPrefix = "token"

func refreshKey(userID int64) string {
	return redis.Key(tokenPrefix, "refresh", strconv.FormatInt(userID, 10))
}

// SetRefreshToken 每个用户只保留最新的 refresh token
func SetRefreshToken(ctx context.Context, userID int64, refreshToken string) error {
	ttl := time.Duration(config.Cfg.JWTRefreshDays) * 24 * time.Hour
	return redis.Client().Set(ctx, refreshKey(userID), refreshToken, ttl).Err()
}

// DeleteRefreshToken 登出或轮换失败时调用
func DeleteRefreshToken(ctx context.Context, userID int64) error {
	return redis.Client().Del(ctx, refreshKey(userID)).Err()
}

// ValidateRefreshTokenExists 检查 refresh token 是否为最新签发的那个
func ValidateRefreshTokenExists(ctx context.Context, userID int64, refreshToken string) bool {
	stored, err := redis.Client().Get(ctx, refreshKey(userID)).Result()
	if err != nil {
		return false
	}
	return stored == refreshToken
}

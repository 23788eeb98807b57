package cache

import (
	"context"
	"fmt"
	"time"

	"CareCompanion/storage/redis"
)

// 消费端幂等：处理前 SETNX 占位，成功后延长 TTL，失败时删除以允许重试
const (
	messageProcessedPrefix = "mq:processed"
	processingTTL          = 24 * time.Hour
	processedTTL           = 48 * time.Hour
)

// TryMarkMessageProcessing 返回 true 表示首次处理
func TryMarkMessageProcessing(ctx context.Context, messageID string) (bool, error) {
	key := redis.Key(messageProcessedPrefix, messageID)

	ok, err := redis.Client().SetNX(ctx, key, "processing", processingTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark message as processing: %w", err)
	}
	return ok, nil
}

// UnmarkMessageProcessing 处理失败时调用
func UnmarkMessageProcessing(ctx context.Context, messageID string) error {
	return redis.Client().Del(ctx, redis.Key(messageProcessedPrefix, messageID)).Err()
}

// MarkMessageProcessed 处理成功时调用
func MarkMessageProcessed(ctx context.Context, messageID string) error {
	return redis.Client().Set(ctx, redis.Key(messageProcessedPrefix, messageID), "completed", processedTTL).Err()
}

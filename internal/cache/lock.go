package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	ri "github.com/redis/go-redis/v9"

	"CareCompanion/storage/redis"
)

// 基于 SETNX 的分布式锁，用于多个 scheduler 实例之间互斥
const lockPrefix = "lock"

// 只有持有者才能释放
var unlockScript = ri.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Lock 已获取的锁
type Lock struct {
	key   string
	token string
}

// TryLock 尝试获取锁，未获取到时返回 nil
func TryLock(ctx context.Context, name string, ttl time.Duration) (*Lock, error) {
	l := &Lock{key: redis.Key(lockPrefix, name), token: uuid.NewString()}

	ok, err := redis.Client().SetNX(ctx, l.key, l.token, ttl).Result()
	if err != nil || !ok {
		return nil, err
	}
	return l, nil
}

// Unlock 释放锁，锁已过期或被他人持有时不做任何事
func (l *Lock) Unlock(ctx context.Context) error {
	return unlockScript.Run(ctx, redis.Client(), []string{l.key}, l.token).Err()
}

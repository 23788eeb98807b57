package cache

import (
	"context"
	stderrors "errors"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	ri "github.com/redis/go-redis/v9"

	"CareCompanion/pkg/redis"
	storage "CareCompanion/storage/redis"
)

const (
	// 空值缓存标识，防止穿透
	emptyValueFlag = "__EMPTY__"
	emptyValueTTL  = 5 * time.Minute
	// TTL 随机抖动上限，防止同时过期
	ttlJitterMax   = 2 * time.Minute
)

// ProtectedCache 带空值保护、TTL 抖动和熔断的 JSON 缓存
type ProtectedCache struct {
	name    string
	ttl     time.Duration
	breaker *CircuitBreaker
}

func NewProtectedCache(name string, ttl time.Duration, breaker *CircuitBreaker) *ProtectedCache {
	return &ProtectedCache{name: name, ttl: ttl, breaker: breaker}
}

func (pc *ProtectedCache) key(id string) string {
	return storage.Key(pc.name, id)
}

// Set value 为 nil 时写入空值标识
func (pc *ProtectedCache) Set(ctx context.Context, id string, value interface{}) error {
	data, ttl := emptyValueFlag, emptyValueTTL
	if value != nil {
		b, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal cache value: %w", err)
		}
		data = string(b)
		ttl = pc.ttl + time.Duration(rand.Int63n(int64(ttlJitterMax)))
	}

	return pc.breaker.Call(ctx, func(ctx context.Context) error {
		return storage.Client().Set(ctx, pc.key(id), data, ttl).Err()
	})
}

// Get 返回 (命中, 是否为空值, error)
// 熔断打开时直接返回 ErrCircuitOpen，调用方应回源
func (pc *ProtectedCache) Get(ctx context.Context, id string, dest interface{}) (hit bool, empty bool, err error) {
	var data string
	err = pc.breaker.Call(ctx, func(ctx context.Context) error {
		var getErr error
		data, getErr = storage.Client().Get(ctx, pc.key(id)).Result()
		if stderrors.Is(getErr, ri.Nil) {
			return nil
		}
		return getErr
	})
	if err != nil {
		return false, false, err
	}

	redis.RecordCacheLookup(ctx, pc.name, data != "")
	switch data {
	case "":
		return false, false, nil
	case emptyValueFlag:
		return true, true, nil
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return false, false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, false, nil
}

func (pc *ProtectedCache) Delete(ctx context.Context, id string) error {
	return pc.breaker.Call(ctx, func(ctx context.Context) error {
		return storage.Client().Del(ctx, pc.key(id)).Err()
	})
}

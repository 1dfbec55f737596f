package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	MemorizeSetTTL       = 24 * time.Hour
	MemorizeCntTTL       = 24 * time.Hour
	MemorizeSetKeyPrefix = "memorize:set:map" // 收藏了某张音乐地图的用户ID集合
	MemorizeCntKeyPrefix = "memorize:cnt:map" // 某张音乐地图的收藏计数缓存
)

// MemorizeCacheRepository 音乐地图收藏的读缓存，真值在文档库里
type MemorizeCacheRepository struct {
	memorizeSetTTL time.Duration
	memorizeCntTTL time.Duration
}

func NewMemorizeCacheRepository() *MemorizeCacheRepository {
	return &MemorizeCacheRepository{
		memorizeSetTTL: MemorizeSetTTL,
		memorizeCntTTL: MemorizeCntTTL,
	}
}

func (r *MemorizeCacheRepository) setKey(mapID string) string {
	return fmt.Sprintf("%s:%s", MemorizeSetKeyPrefix, mapID)
}
func (r *MemorizeCacheRepository) cntKey(mapID string) string {
	return fmt.Sprintf("%s:%s", MemorizeCntKeyPrefix, mapID)
}

// AddMemorize 写路径：文档库更新成功后再写缓存
func (r *MemorizeCacheRepository) AddMemorize(ctx context.Context, userID uint64, mapID string) error {
	k := r.setKey(mapID)
	if err := Client.SAdd(ctx, k, userID).Err(); err != nil {
		return err
	}
	_ = Client.Expire(ctx, k, r.memorizeSetTTL).Err()

	ck := r.cntKey(mapID)
	if err := Client.Incr(ctx, ck).Err(); err != nil {
		return err
	}
	_ = Client.Expire(ctx, ck, r.memorizeCntTTL).Err()
	return nil
}

func (r *MemorizeCacheRepository) RemoveMemorize(ctx context.Context, userID uint64, mapID string) error {
	k := r.setKey(mapID)
	if err := Client.SRem(ctx, k, userID).Err(); err != nil {
		return err
	}
	ck := r.cntKey(mapID)
	// 计数防负数
	if err := Client.Watch(ctx, func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, ck).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if val <= 0 {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Decr(ctx, ck)
			return nil
		})
		return err
	}, ck); err != nil {
		return err
	}
	return nil
}

// IsMemorizedCached 第二个返回值表示缓存是否命中
func (r *MemorizeCacheRepository) IsMemorizedCached(ctx context.Context, userID uint64, mapID string) (bool, bool, error) {
	k := r.setKey(mapID)
	exists, err := Client.Exists(ctx, k).Result()
	if err != nil {
		return false, false, err
	}
	if exists == 0 {
		return false, false, nil
	}
	b, err := Client.SIsMember(ctx, k, userID).Result()
	return b, true, err
}

// GetMemorizeCountCached 读取收藏计数缓存
func (r *MemorizeCacheRepository) GetMemorizeCountCached(ctx context.Context, mapID string) (int64, bool, error) {
	ck := r.cntKey(mapID)
	val, err := Client.Get(ctx, ck).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	return val, true, err
}

// SetMemorizeCount 回填收藏计数
func (r *MemorizeCacheRepository) SetMemorizeCount(ctx context.Context, mapID string, cnt int64) error {
	ck := r.cntKey(mapID)
	return Client.Set(ctx, ck, cnt, r.memorizeCntTTL).Err()
}

// WarmMemorized 惰性回填：集合已存在才写，避免无界扩张
func (r *MemorizeCacheRepository) WarmMemorized(ctx context.Context, userID uint64, mapID string, memorized bool) {
	k := r.setKey(mapID)
	if ok, _ := Client.Exists(ctx, k).Result(); ok > 0 {
		if memorized {
			_ = Client.SAdd(ctx, k, userID).Err()
		} else {
			_ = Client.SRem(ctx, k, userID).Err()
		}
		_ = Client.Expire(ctx, k, r.memorizeSetTTL).Err()
	}
}

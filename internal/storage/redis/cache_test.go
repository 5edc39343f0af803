package redis

import (
	"context"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guestbook/backend/internal/config"
	"guestbook/backend/internal/domain"
)

// startRedis 启动 Redis 容器，没有 Docker 时跳过
func startRedis(t *testing.T) *Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker unavailable: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Tag:        "7-alpine",
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Purge(resource) })
	_ = resource.Expire(120)

	var client *Client
	require.NoError(t, pool.Retry(func() error {
		c, err := New(context.Background(), config.RedisConfig{Address: "localhost:" + resource.GetPort("6379/tcp")}, nil)
		if err != nil {
			return err
		}
		client = c
		return nil
	}))
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNewUnreachable(t *testing.T) {
	_, err := New(context.Background(), config.RedisConfig{Address: "127.0.0.1:1"}, nil)
	assert.Error(t, err)
}

func TestMediaListCache(t *testing.T) {
	client := startRedis(t)
	cache := NewCache(client, time.Minute)
	ctx := context.Background()

	_, hit, err := cache.GetMediaList(ctx)
	require.NoError(t, err)
	assert.False(t, hit)

	assets := []domain.MediaAsset{
		{ID: 2, Filename: "b.png", ContentType: "image/png", Size: 10, CreatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{ID: 1, Filename: "a.jpg", ContentType: "image/jpeg", Size: 5, CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	gen, err := cache.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), gen)
	stored, err := cache.SetMediaList(ctx, gen, assets)
	require.NoError(t, err)
	assert.True(t, stored)

	got, hit, err := cache.GetMediaList(ctx)
	require.NoError(t, err)
	assert.True(t, hit)
	require.Len(t, got, 2)
	assert.Equal(t, "b.png", got[0].Filename)
	assert.True(t, assets[0].CreatedAt.Equal(got[0].CreatedAt))

	require.NoError(t, cache.InvalidateMediaList(ctx))
	_, hit, err = cache.GetMediaList(ctx)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestMediaListCacheRejectsStaleGeneration(t *testing.T) {
	client := startRedis(t)
	cache := NewCache(client, time.Minute)
	ctx := context.Background()

	// 查询前读取代数，查询期间发生写入
	gen, err := cache.Generation(ctx)
	require.NoError(t, err)
	require.NoError(t, cache.InvalidateMediaList(ctx))

	stale := []domain.MediaAsset{{ID: 1, Filename: "a.jpg"}}
	stored, err := cache.SetMediaList(ctx, gen, stale)
	require.NoError(t, err)
	assert.False(t, stored)
	_, hit, err := cache.GetMediaList(ctx)
	require.NoError(t, err)
	assert.False(t, hit)

	current, err := cache.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, gen+1, current)
	stored, err = cache.SetMediaList(ctx, current, stale)
	require.NoError(t, err)
	assert.True(t, stored)
	_, hit, err = cache.GetMediaList(ctx)
	require.NoError(t, err)
	assert.True(t, hit)
}

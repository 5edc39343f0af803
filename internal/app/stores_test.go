package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"guestbook/backend/internal/config"
	"guestbook/backend/internal/domain"
	"guestbook/backend/internal/storage/filesystem"
	"guestbook/backend/internal/storage/hybrid"
	"guestbook/backend/internal/storage/memory"
)

func TestOpenSubmissionStoreMemory(t *testing.T) {
	store, err := OpenSubmissionStore(context.Background(), &config.Config{}, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &memory.Store{}, store)
}

func TestOpenSubmissionStoreSQLite(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Type: "sqlite",
			DSN:  filepath.Join(t.TempDir(), "guestbook.db"),
		},
		// 指向不可达端口，应退回进程内缓存
		Redis: config.RedisConfig{Address: "127.0.0.1:1", ListTTL: time.Minute},
	}

	store, err := OpenSubmissionStore(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()
	require.IsType(t, &hybrid.Store{}, store)

	ctx := context.Background()
	require.NoError(t, store.InsertMediaAsset(ctx, &domain.MediaAsset{Filename: "a.png", ContentType: "image/png", Size: 1}))
	assets, err := store.ListMediaAssets(ctx)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "a.png", assets[0].Filename)
	assert.NoError(t, store.Health(ctx))
}

func TestOpenSubmissionStoreBadDSN(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{Type: "pgx", DSN: "postgres://u:p@127.0.0.1:1/db?sslmode=disable&connect_timeout=1"},
	}
	_, err := OpenSubmissionStore(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestOpenContentStoreFilesystem(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	cfg := &config.Config{Upload: config.UploadConfig{Backend: "filesystem", Dir: dir}}

	store, err := OpenContentStore(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	require.IsType(t, &filesystem.Store{}, store)
	assert.NoError(t, store.Health(context.Background()))
}

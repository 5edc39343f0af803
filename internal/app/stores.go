// Package app 按配置组装存储组件，供 server 和 guestbookctl 共用。
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"guestbook/backend/internal/config"
	"guestbook/backend/internal/storage"
	"guestbook/backend/internal/storage/filesystem"
	"guestbook/backend/internal/storage/hybrid"
	"guestbook/backend/internal/storage/memory"
	"guestbook/backend/internal/storage/objectstore"
	"guestbook/backend/internal/storage/postgres"
	"guestbook/backend/internal/storage/redis"
	sqlstore "guestbook/backend/internal/storage/sql"
)

// OpenSubmissionStore 根据 database.type 创建关系型存储
//
// 留空使用内存存储；数据库存储外层包一层图片列表缓存（Redis 或进程内）。
func OpenSubmissionStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (storage.SubmissionStore, error) {
	var base storage.SubmissionStore

	switch cfg.Database.Type {
	case "":
		log.Info("using memory storage (development mode)")
		return memory.NewStore(), nil
	case "pgx":
		client, err := postgres.New(ctx, cfg.Database, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect postgres: %w", err)
		}
		store, err := postgres.NewStore(ctx, client)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to initialize postgres store: %w", err)
		}
		base = store
	default:
		store, err := sqlstore.NewStore(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize %s store: %w", cfg.Database.Type, err)
		}
		base = store
	}

	log.Info("database storage initialized", zap.String("database_type", cfg.Database.Type))
	return hybrid.NewStore(base, openListCache(ctx, cfg, log), log), nil
}

// openListCache Redis 不可用时退回进程内缓存
func openListCache(ctx context.Context, cfg *config.Config, log *zap.Logger) hybrid.ListCache {
	if cfg.Redis.Address == "" {
		return hybrid.NewLocalListCache(cfg.Redis.ListTTL)
	}

	client, err := redis.New(ctx, cfg.Redis, log)
	if err != nil {
		log.Warn("redis unavailable, falling back to local list cache",
			zap.String("address", cfg.Redis.Address),
			zap.Error(err),
		)
		return hybrid.NewLocalListCache(cfg.Redis.ListTTL)
	}

	log.Info("using redis list cache", zap.String("address", cfg.Redis.Address))
	return redis.NewCache(client, cfg.Redis.ListTTL)
}

// OpenContentStore 根据 upload.backend 创建图片内容存储
func OpenContentStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (storage.ContentStore, error) {
	switch cfg.Upload.Backend {
	case "s3":
		store, err := objectstore.NewStore(ctx, cfg.ObjectStore)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize object store: %w", err)
		}
		log.Info("object storage initialized",
			zap.String("endpoint", cfg.ObjectStore.Endpoint),
			zap.String("bucket", cfg.ObjectStore.Bucket),
		)
		return store, nil
	default:
		store, err := filesystem.NewStore(cfg.Upload.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize upload directory: %w", err)
		}
		log.Info("filesystem storage initialized", zap.String("path", store.BasePath()))
		return store, nil
	}
}

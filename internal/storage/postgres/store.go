package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"guestbook/backend/internal/domain"
)

// schema 与 migrations/postgres 中的初始迁移保持一致，已存在时跳过
const schema = `
CREATE TABLE IF NOT EXISTS submissions (
	id         BIGSERIAL PRIMARY KEY,
	name       VARCHAR(50)  NOT NULL,
	message    VARCHAR(500) NOT NULL,
	created_at TIMESTAMPTZ  NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_submissions_created_at ON submissions (created_at);
CREATE TABLE IF NOT EXISTS media_assets (
	id           BIGSERIAL PRIMARY KEY,
	filename     VARCHAR(64) NOT NULL,
	content_type VARCHAR(32) NOT NULL DEFAULT '',
	size         BIGINT      NOT NULL DEFAULT 0,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_media_assets_filename ON media_assets (filename);
CREATE INDEX IF NOT EXISTS idx_media_assets_created_at ON media_assets (created_at);
`

// Store 基于 pgx 连接池的原生 SQL 存储
type Store struct {
	client *Client
}

// NewStore 创建存储并确保表结构存在
func NewStore(ctx context.Context, client *Client) (*Store, error) {
	if _, err := client.Pool().Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}
	return &Store{client: client}, nil
}

// InsertMessage 保存留言，ID 和创建时间由数据库生成
func (s *Store) InsertMessage(ctx context.Context, submission *domain.Submission) error {
	const query = `
		INSERT INTO submissions (name, message)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	err := s.client.Pool().QueryRow(ctx, query, submission.Name, submission.Message).
		Scan(&submission.ID, &submission.CreatedAt)
	if err != nil {
		return domain.NewStoreError("insert message", err)
	}
	return nil
}

// InsertMediaAsset 保存图片记录
func (s *Store) InsertMediaAsset(ctx context.Context, asset *domain.MediaAsset) error {
	const query = `
		INSERT INTO media_assets (filename, content_type, size, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
		RETURNING id, created_at
	`
	var createdAt any
	if !asset.CreatedAt.IsZero() {
		createdAt = asset.CreatedAt
	}
	err := s.client.Pool().QueryRow(ctx, query, asset.Filename, asset.ContentType, asset.Size, createdAt).
		Scan(&asset.ID, &asset.CreatedAt)
	if err != nil {
		return domain.NewStoreError("insert media asset", err)
	}
	return nil
}

// ListMediaAssets 按创建时间倒序返回全部图片记录
func (s *Store) ListMediaAssets(ctx context.Context) ([]domain.MediaAsset, error) {
	const query = `
		SELECT id, filename, content_type, size, created_at
		FROM media_assets
		ORDER BY created_at DESC, id DESC
	`
	rows, err := s.client.Pool().Query(ctx, query)
	if err != nil {
		return nil, domain.NewStoreError("list media assets", err)
	}

	assets, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.MediaAsset, error) {
		var a domain.MediaAsset
		err := row.Scan(&a.ID, &a.Filename, &a.ContentType, &a.Size, &a.CreatedAt)
		return a, err
	})
	if err != nil {
		return nil, domain.NewStoreError("list media assets", err)
	}
	if assets == nil {
		assets = []domain.MediaAsset{}
	}
	return assets, nil
}

// Health 检查数据库健康状态
func (s *Store) Health(ctx context.Context) error {
	return s.client.Ping(ctx)
}

// Close 关闭连接池
func (s *Store) Close() error {
	s.client.Close()
	return nil
}

package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"guestbook/backend/internal/domain"
)

var (
	// ErrContentNotFound 内容文件不存在
	ErrContentNotFound = errors.New("content not found")
	// ErrInvalidContentName 内容文件名不合法（路径穿越、分隔符等）
	ErrInvalidContentName = errors.New("invalid content name")
)

// SubmissionRepository 定义留言数据存取操作。
type SubmissionRepository interface {
	InsertMessage(ctx context.Context, submission *domain.Submission) error
}

// MediaRepository 定义图片记录存取操作。
type MediaRepository interface {
	InsertMediaAsset(ctx context.Context, asset *domain.MediaAsset) error
	// ListMediaAssets 按 created_at DESC, id DESC 返回全部记录
	ListMediaAssets(ctx context.Context) ([]domain.MediaAsset, error)
}

// SubmissionStore 聚合所有关系型存储操作
//
// 所有实现返回的错误都包装为 *domain.StoreError，调用方不重试。
type SubmissionStore interface {
	SubmissionRepository
	MediaRepository

	Health(ctx context.Context) error
	Close() error
}

// ContentInfo 内容文件的元信息
type ContentInfo struct {
	Name        string
	Size        int64
	ContentType string
	ModTime     time.Time
}

// ContentStore 图片内容存储（本地目录或对象存储）
type ContentStore interface {
	// Save 写入完整文件，失败时不留下半截文件
	Save(ctx context.Context, name, contentType string, data []byte) error
	// Open 读取文件，不存在时返回 ErrContentNotFound
	Open(ctx context.Context, name string) (io.ReadCloser, *ContentInfo, error)
	List(ctx context.Context) ([]ContentInfo, error)
	Remove(ctx context.Context, name string) error
	Health(ctx context.Context) error
}

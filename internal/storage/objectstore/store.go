package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"guestbook/backend/internal/config"
	"guestbook/backend/internal/domain"
	"guestbook/backend/internal/storage"
)

// Store S3 兼容对象存储（MinIO）
//
// 所有图片平铺在 bucket 根下，对象名即文件名。
type Store struct {
	client *minio.Client
	bucket string
}

// normaliseEndpoint 接受 "minio:9000" 或 "http(s)://minio:9000"
func normaliseEndpoint(raw string) (endpoint string, secure bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, fmt.Errorf("empty endpoint")
	}

	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", false, err
		}
		if u.Host == "" {
			return "", false, fmt.Errorf("invalid endpoint")
		}
		if u.Path != "" && u.Path != "/" {
			return "", false, fmt.Errorf("endpoint must not contain a path")
		}
		return u.Host, u.Scheme == "https", nil
	}

	// 无协议时按本地 MinIO 处理，不启用 TLS
	return raw, false, nil
}

// NewStore 连接对象存储，bucket 不存在时创建
func NewStore(ctx context.Context, cfg config.ObjectStoreConfig) (*Store, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("objectstore configuration incomplete")
	}

	endpoint, secure, err := normaliseEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid objectstore endpoint: %w", err)
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &Store{client: client, bucket: cfg.Bucket}, nil
}

// Save 上传对象，PutObject 成功前对象不可见
func (s *Store) Save(ctx context.Context, name, contentType string, data []byte) error {
	if !validName(name) {
		return &domain.IOError{Path: name, Err: storage.ErrInvalidContentName}
	}
	_, err := s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return &domain.IOError{Path: name, Err: err}
	}
	return nil
}

// Open 读取对象
func (s *Store) Open(ctx context.Context, name string) (io.ReadCloser, *storage.ContentInfo, error) {
	if !validName(name) {
		return nil, nil, storage.ErrInvalidContentName
	}

	obj, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, mapError(err)
	}

	// GetObject 是惰性的，Stat 提前暴露对象不存在等错误
	stat, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, nil, mapError(err)
	}

	return obj, &storage.ContentInfo{
		Name:        stat.Key,
		Size:        stat.Size,
		ContentType: stat.ContentType,
		ModTime:     stat.LastModified,
	}, nil
}

// List 列出 bucket 根下全部对象，按名称排序
func (s *Store) List(ctx context.Context) ([]storage.ContentInfo, error) {
	var items []storage.ContentInfo
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", obj.Err)
		}
		if !validName(obj.Key) {
			continue
		}
		items = append(items, storage.ContentInfo{
			Name:        obj.Key,
			Size:        obj.Size,
			ContentType: obj.ContentType,
			ModTime:     obj.LastModified,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

// Remove 删除对象，不存在视为成功
func (s *Store) Remove(ctx context.Context, name string) error {
	if !validName(name) {
		return storage.ErrInvalidContentName
	}
	if err := s.client.RemoveObject(ctx, s.bucket, name, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object: %w", err)
	}
	return nil
}

// Health 检查 bucket 可访问
func (s *Store) Health(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("objectstore unreachable: %w", err)
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", s.bucket)
	}
	return nil
}

func validName(name string) bool {
	return name != "" && !strings.HasPrefix(name, ".") && !strings.ContainsAny(name, "/\\\x00")
}

func mapError(err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
		return storage.ErrContentNotFound
	}
	return fmt.Errorf("objectstore: %w", err)
}

package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"guestbook/backend/internal/domain"
	"guestbook/backend/internal/storage"
)

// tempPattern 写入中的临时文件，以点开头，List 和 Open 都不可见
const tempPattern = ".upload-*"

// contentTypes 按扩展名推断内容类型
var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// Store 本地目录内容存储
type Store struct {
	basePath      string         // 内容根目录
	platformUtils *PlatformUtils // 平台兼容性工具
}

// NewStore 创建本地目录内容存储，目录不存在时自动创建
func NewStore(basePath string) (*Store, error) {
	platformUtils := NewPlatformUtils()

	if err := platformUtils.ValidatePath(basePath); err != nil {
		return nil, fmt.Errorf("invalid base path: %w", err)
	}

	normalizedPath := platformUtils.NormalizePath(basePath)

	if err := os.MkdirAll(normalizedPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Store{
		basePath:      normalizedPath,
		platformUtils: platformUtils,
	}, nil
}

// BasePath 返回内容根目录
func (s *Store) BasePath() string {
	return s.basePath
}

// Save 写入文件
//
// 先写入同目录的临时文件再重命名，读者只会看到完整文件。
func (s *Store) Save(ctx context.Context, name, contentType string, data []byte) error {
	target, err := s.resolve(name)
	if err != nil {
		return &domain.IOError{Path: name, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return &domain.IOError{Path: name, Err: err}
	}

	tmp, err := os.CreateTemp(s.basePath, tempPattern)
	if err != nil {
		return &domain.IOError{Path: name, Err: fmt.Errorf("create temp file: %w", err)}
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return &domain.IOError{Path: name, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return &domain.IOError{Path: name, Err: err}
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return &domain.IOError{Path: name, Err: err}
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		cleanup()
		return &domain.IOError{Path: name, Err: err}
	}
	if err := os.Rename(tmpName, target); err != nil {
		cleanup()
		return &domain.IOError{Path: name, Err: err}
	}
	return nil
}

// Open 打开文件用于读取
func (s *Store) Open(ctx context.Context, name string) (io.ReadCloser, *storage.ContentInfo, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, storage.ErrContentNotFound
		}
		return nil, nil, fmt.Errorf("failed to open content: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("failed to stat content: %w", err)
	}
	if stat.IsDir() {
		_ = f.Close()
		return nil, nil, storage.ErrContentNotFound
	}

	return f, s.info(stat), nil
}

// List 列出根目录下的全部内容文件，按名称排序
func (s *Store) List(ctx context.Context) ([]storage.ContentInfo, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read content directory: %w", err)
	}

	items := make([]storage.ContentInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !s.platformUtils.IsValidFilename(entry.Name()) {
			continue
		}
		stat, err := entry.Info()
		if err != nil {
			// 列举期间被删除
			continue
		}
		items = append(items, *s.info(stat))
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

// Remove 删除文件，不存在视为成功
func (s *Store) Remove(ctx context.Context, name string) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove content: %w", err)
	}
	return nil
}

// Health 检查根目录可写
func (s *Store) Health(ctx context.Context) error {
	f, err := os.CreateTemp(s.basePath, ".health-*")
	if err != nil {
		return fmt.Errorf("content directory not writable: %w", err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

// resolve 校验文件名并返回完整路径
func (s *Store) resolve(name string) (string, error) {
	if !s.platformUtils.IsValidFilename(name) {
		return "", storage.ErrInvalidContentName
	}
	path := filepath.Join(s.basePath, name)
	if filepath.Dir(path) != s.basePath {
		return "", storage.ErrInvalidContentName
	}
	return path, nil
}

func (s *Store) info(stat os.FileInfo) *storage.ContentInfo {
	return &storage.ContentInfo{
		Name:        stat.Name(),
		Size:        stat.Size(),
		ContentType: contentTypes[strings.ToLower(filepath.Ext(stat.Name()))],
		ModTime:     stat.ModTime(),
	}
}

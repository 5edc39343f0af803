package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"guestbook/backend/internal/domain"
)

var (
	// ErrDuplicateFilename 图片文件名已存在
	ErrDuplicateFilename = errors.New("duplicate media filename")
	// ErrClosed 存储已关闭
	ErrClosed = errors.New("store closed")
)

// Store 使用内存保存留言与图片记录，主要用于开发验证。
type Store struct {
	mu          sync.RWMutex
	submissions []domain.Submission
	assets      []domain.MediaAsset
	byFilename  map[string]struct{}
	nextID      uint64
	closed      bool

	now func() time.Time
}

// NewStore 创建内存存储
func NewStore() *Store {
	return &Store{
		byFilename: make(map[string]struct{}),
		now:        time.Now,
	}
}

// InsertMessage 保存留言，分配 ID 和创建时间
func (s *Store) InsertMessage(ctx context.Context, submission *domain.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(ctx); err != nil {
		return domain.NewStoreError("insert message", err)
	}

	s.nextID++
	submission.ID = s.nextID
	if submission.CreatedAt.IsZero() {
		submission.CreatedAt = s.now()
	}
	s.submissions = append(s.submissions, *submission)
	return nil
}

// InsertMediaAsset 保存图片记录，文件名唯一
func (s *Store) InsertMediaAsset(ctx context.Context, asset *domain.MediaAsset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(ctx); err != nil {
		return domain.NewStoreError("insert media asset", err)
	}
	if _, exists := s.byFilename[asset.Filename]; exists {
		return domain.NewStoreError("insert media asset", fmt.Errorf("%w: %s", ErrDuplicateFilename, asset.Filename))
	}

	s.nextID++
	asset.ID = s.nextID
	if asset.CreatedAt.IsZero() {
		asset.CreatedAt = s.now()
	}
	s.assets = append(s.assets, *asset)
	s.byFilename[asset.Filename] = struct{}{}
	return nil
}

// ListMediaAssets 按创建时间倒序返回全部图片记录，时间相同按 ID 倒序
func (s *Store) ListMediaAssets(ctx context.Context) ([]domain.MediaAsset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.check(ctx); err != nil {
		return nil, domain.NewStoreError("list media assets", err)
	}

	result := make([]domain.MediaAsset, len(s.assets))
	copy(result, s.assets)
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

// ListSubmissions 返回全部留言（按写入顺序），供测试和命令行使用
func (s *Store) ListSubmissions() []domain.Submission {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Submission, len(s.submissions))
	copy(result, s.submissions)
	return result
}

// Health 健康检查
func (s *Store) Health(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.check(ctx)
}

// Close 关闭存储，之后的操作都返回 ErrClosed
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) check(ctx context.Context) error {
	if s.closed {
		return ErrClosed
	}
	return ctx.Err()
}

package hybrid

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"guestbook/backend/internal/cache"
	"guestbook/backend/internal/domain"
	"guestbook/backend/internal/storage"
)

// invalidateTimeout 失效操作的超时，与请求上下文无关
const invalidateTimeout = 3 * time.Second

// ListCache 图片列表缓存
//
// 每次失效都会递增代数。SetMediaList 只在代数未变化时写入，
// 避免把失效之前取得的旧快照写回缓存。
type ListCache interface {
	GetMediaList(ctx context.Context) ([]domain.MediaAsset, bool, error)
	// Generation 返回当前代数
	Generation(ctx context.Context) (uint64, error)
	// SetMediaList 代数仍为 gen 时写入，返回是否写入
	SetMediaList(ctx context.Context, gen uint64, assets []domain.MediaAsset) (bool, error)
	// InvalidateMediaList 递增代数并删除缓存的列表
	InvalidateMediaList(ctx context.Context) error
	Close() error
}

// Store 混合存储实现：写入直达底层存储，图片列表读取走缓存
//
// 缓存故障只记录日志，不影响请求结果。
type Store struct {
	storage.SubmissionStore
	cache ListCache
	log   *zap.Logger
}

// NewStore 创建混合存储实例
func NewStore(base storage.SubmissionStore, listCache ListCache, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		SubmissionStore: base,
		cache:           listCache,
		log:             log.Named("hybrid"),
	}
}

// InsertMediaAsset 写入图片记录并使列表缓存失效
//
// 记录提交后客户端可能已断开，失效使用独立的上下文。
func (s *Store) InsertMediaAsset(ctx context.Context, asset *domain.MediaAsset) error {
	if err := s.SubmissionStore.InsertMediaAsset(ctx, asset); err != nil {
		return err
	}

	invCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), invalidateTimeout)
	defer cancel()
	if err := s.cache.InvalidateMediaList(invCtx); err != nil {
		s.log.Error("failed to invalidate media list cache",
			zap.String("filename", asset.Filename),
			zap.Error(err),
		)
	}
	return nil
}

// ListMediaAssets 先读缓存，未命中时查询底层存储并回填
//
// 代数在查询之前读取；查询期间发生写入时放弃回填。
func (s *Store) ListMediaAssets(ctx context.Context) ([]domain.MediaAsset, error) {
	if assets, hit, err := s.cache.GetMediaList(ctx); err != nil {
		s.log.Warn("failed to read media list cache", zap.Error(err))
	} else if hit {
		return assets, nil
	}

	gen, genErr := s.cache.Generation(ctx)
	if genErr != nil {
		s.log.Warn("failed to read media list generation", zap.Error(genErr))
	}

	assets, err := s.SubmissionStore.ListMediaAssets(ctx)
	if err != nil {
		return nil, err
	}

	if genErr != nil {
		return assets, nil
	}
	if stored, err := s.cache.SetMediaList(ctx, gen, assets); err != nil {
		s.log.Warn("failed to fill media list cache", zap.Error(err))
	} else if !stored {
		s.log.Debug("media list changed during query, cache not filled")
	}
	return assets, nil
}

// Close 关闭缓存和底层存储
func (s *Store) Close() error {
	if err := s.cache.Close(); err != nil {
		s.log.Warn("failed to close media list cache", zap.Error(err))
	}
	return s.SubmissionStore.Close()
}

// localListCache 基于进程内 LocalCache 的列表缓存
type localListCache struct {
	mu    sync.Mutex
	gen   uint64
	cache *cache.LocalCache
}

const localListKey = "media:list"

// NewLocalListCache 创建进程内列表缓存
func NewLocalListCache(ttl time.Duration) ListCache {
	return &localListCache{cache: cache.NewLocalCache(ttl, time.Minute)}
}

func (c *localListCache) GetMediaList(ctx context.Context) ([]domain.MediaAsset, bool, error) {
	v, ok := c.cache.Get(localListKey)
	if !ok {
		return nil, false, nil
	}
	cached := v.([]domain.MediaAsset)
	// 返回副本，调用方修改不影响缓存
	assets := make([]domain.MediaAsset, len(cached))
	copy(assets, cached)
	return assets, true, nil
}

func (c *localListCache) Generation(ctx context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen, nil
}

func (c *localListCache) SetMediaList(ctx context.Context, gen uint64, assets []domain.MediaAsset) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false, nil
	}
	stored := make([]domain.MediaAsset, len(assets))
	copy(stored, assets)
	c.cache.Set(localListKey, stored, 0)
	return true, nil
}

func (c *localListCache) InvalidateMediaList(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.cache.Delete(localListKey)
	return nil
}

func (c *localListCache) Close() error {
	c.cache.Close()
	return nil
}

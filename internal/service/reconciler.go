package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"guestbook/backend/internal/monitoring"
	"guestbook/backend/internal/pool"
	"guestbook/backend/internal/storage"
)

// removeWorkers 并发删除的协程数
const removeWorkers = 4

// MinGracePeriod 宽限期下限，更小的值会被提升到这里
const MinGracePeriod = time.Minute

// taskPool 执行删除任务的协程池
type taskPool interface {
	Start()
	TrySubmit(task func()) bool
	Stop()
}

// ReconcileReport 一次巡检的结果
type ReconcileReport struct {
	Scanned int      `json:"scanned"` // 内容存储中的文件数
	Records int      `json:"records"` // 图片记录数
	Orphans []string `json:"orphans"` // 超过宽限期且没有记录的文件
	Removed []string `json:"removed"`
	Failed  []string `json:"failed,omitempty"`
}

// Reconciler 找出内容存储中没有对应图片记录的文件
//
// 上传流程先写文件再落库，落库失败会留下孤儿文件；这里定期找出并按需删除。
type Reconciler struct {
	content     storage.ContentStore
	records     storage.MediaRepository
	gracePeriod time.Duration
	limiter     *rate.Limiter
	log         *zap.Logger
	metrics     *monitoring.Metrics

	now     func() time.Time
	newPool func(queueSize int) taskPool
}

// NewReconciler 创建巡检器，removalsPerSecond <= 0 时不限速
//
// gracePeriod 小于 MinGracePeriod 时使用 MinGracePeriod。
func NewReconciler(
	content storage.ContentStore,
	records storage.MediaRepository,
	gracePeriod time.Duration,
	removalsPerSecond float64,
	log *zap.Logger,
	metrics *monitoring.Metrics,
) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("reconciler")
	if gracePeriod < MinGracePeriod {
		log.Warn("grace period too short, using minimum",
			zap.Duration("grace_period", gracePeriod),
			zap.Duration("minimum", MinGracePeriod),
		)
		gracePeriod = MinGracePeriod
	}
	limit := rate.Inf
	if removalsPerSecond > 0 {
		limit = rate.Limit(removalsPerSecond)
	}
	return &Reconciler{
		content:     content,
		records:     records,
		gracePeriod: gracePeriod,
		limiter:     rate.NewLimiter(limit, 1),
		log:         log,
		metrics:     metrics,
		now:         time.Now,
		newPool: func(queueSize int) taskPool {
			return pool.NewWorkerPool(removeWorkers, queueSize, log)
		},
	}
}

// Reconcile 执行一次巡检，remove 为 true 时删除孤儿文件
func (r *Reconciler) Reconcile(ctx context.Context, remove bool) (*ReconcileReport, error) {
	files, err := r.content.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list content: %w", err)
	}
	assets, err := r.records.ListMediaAssets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list media records: %w", err)
	}

	known := make(map[string]struct{}, len(assets))
	for _, a := range assets {
		known[a.Filename] = struct{}{}
	}

	report := &ReconcileReport{
		Scanned: len(files),
		Records: len(assets),
		Orphans: []string{},
		Removed: []string{},
	}

	cutoff := r.now().Add(-r.gracePeriod)
	for _, f := range files {
		if _, ok := known[f.Name]; ok {
			continue
		}
		// 宽限期内的文件可能正在等待落库
		if f.ModTime.After(cutoff) {
			continue
		}
		report.Orphans = append(report.Orphans, f.Name)
	}

	if remove {
		if err := r.removeOrphans(ctx, report); err != nil {
			return report, err
		}
	}

	r.metrics.RecordOrphans(len(report.Orphans), len(report.Removed))
	if len(report.Orphans) > 0 {
		r.log.Info("reconciliation found orphan files",
			zap.Int("scanned", report.Scanned),
			zap.Int("orphans", len(report.Orphans)),
			zap.Int("removed", len(report.Removed)),
		)
	}
	return report, nil
}

// removeOrphans 限速提交删除任务，由协程池并发执行
func (r *Reconciler) removeOrphans(ctx context.Context, report *ReconcileReport) error {
	workers := r.newPool(len(report.Orphans))
	workers.Start()

	var mu sync.Mutex
	var waitErr error
	for _, name := range report.Orphans {
		if waitErr = r.limiter.Wait(ctx); waitErr != nil {
			break
		}
		name := name
		submitted := workers.TrySubmit(func() {
			err := r.content.Remove(ctx, name)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				r.log.Warn("failed to remove orphan file", zap.String("filename", name), zap.Error(err))
				report.Failed = append(report.Failed, name)
				return
			}
			report.Removed = append(report.Removed, name)
		})
		if !submitted {
			r.log.Warn("remove queue full, orphan file skipped", zap.String("filename", name))
			mu.Lock()
			report.Failed = append(report.Failed, name)
			mu.Unlock()
		}
	}
	workers.Stop()

	sort.Strings(report.Removed)
	sort.Strings(report.Failed)
	return waitErr
}

// Run 按固定间隔巡检，直到 ctx 结束
func (r *Reconciler) Run(ctx context.Context, interval time.Duration, remove bool) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := r.Reconcile(ctx, remove); err != nil && ctx.Err() == nil {
				r.log.Error("reconciliation failed", zap.Error(err))
			}
		}
	}
}

package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/heptiolabs/healthcheck"
	"go.uber.org/zap"
)

// checkTimeout 单项检查超时
const checkTimeout = 5 * time.Second

// Pinger 可检查健康状态的依赖
type Pinger interface {
	Health(ctx context.Context) error
}

// HealthChecker 健康检查器
//
// 存活检查只看进程本身；就绪检查依次探测数据库和内容存储。
type HealthChecker struct {
	health     healthcheck.Handler
	components map[string]Pinger
	order      []string
	logger     *zap.Logger
}

// NewHealthChecker 创建健康检查器
func NewHealthChecker(logger *zap.Logger) *HealthChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	hc := &HealthChecker{
		health:     healthcheck.NewHandler(),
		components: make(map[string]Pinger),
		logger:     logger.Named("health"),
	}

	hc.health.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(10000))

	return hc
}

// AddComponent 注册一个就绪检查
func (hc *HealthChecker) AddComponent(name string, p Pinger) {
	hc.components[name] = p
	hc.order = append(hc.order, name)
	hc.health.AddReadinessCheck(name, healthcheck.Timeout(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
		defer cancel()
		return p.Health(ctx)
	}, checkTimeout))
}

// LiveEndpoint 存活检查处理器
func (hc *HealthChecker) LiveEndpoint(w http.ResponseWriter, r *http.Request) {
	hc.health.LiveEndpoint(w, r)
}

// ReadyEndpoint 就绪检查处理器
func (hc *HealthChecker) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	hc.health.ReadyEndpoint(w, r)
}

// CheckHealth 执行全部检查，返回每个组件的状态
func (hc *HealthChecker) CheckHealth(ctx context.Context) (map[string]string, bool) {
	results := make(map[string]string, len(hc.order)+1)
	healthy := true

	for _, name := range hc.order {
		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := hc.components[name].Health(checkCtx)
		cancel()

		if err != nil {
			healthy = false
			results[name] = fmt.Sprintf("ERROR: %v", err)
			hc.logger.Warn("health check failed", zap.String("component", name), zap.Error(err))
			continue
		}
		results[name] = "OK"
	}

	results["timestamp"] = time.Now().Format(time.RFC3339)
	return results, healthy
}

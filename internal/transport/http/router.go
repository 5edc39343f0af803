package httptransport

import (
	"net/http"
	"strings"
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"guestbook/backend/internal/config"
	"guestbook/backend/internal/health"
	"guestbook/backend/internal/middleware"
	"guestbook/backend/internal/monitoring"
	"guestbook/backend/internal/service"
	"guestbook/backend/internal/storage"
)

// RouterDependencies 路由器依赖项
type RouterDependencies struct {
	Config        *config.Config
	IntakeService *service.IntakeService
	ContentStore  storage.ContentStore  // 图片内容（本地目录或对象存储）
	HealthChecker *health.HealthChecker // 可选
	Metrics       *monitoring.Metrics   // 可选
	Logger        *zap.Logger
}

// NewRouter 创建并返回 Gin 路由实例。
func NewRouter(deps RouterDependencies) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	cfg := deps.Config

	router := gin.New()

	router.Use(middleware.RecoveryHandler(log, deps.Metrics))
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.SecurityHeaders())
	if deps.Metrics != nil {
		router.Use(middleware.HTTPMetrics(deps.Metrics))
	}

	// 全局请求体上限，单张图片的上限由 acceptor 判断
	router.Use(middleware.BodySizeLimit(middleware.DefaultBodyLimit))

	// CORS 配置
	corsConfig := gincors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "X-Max-Body-Size"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	// 如果允许所有来源，则需清空凭证支持。
	for _, origin := range corsConfig.AllowOrigins {
		if origin == "*" {
			corsConfig.AllowCredentials = false
			break
		}
	}
	if len(corsConfig.AllowOrigins) > 0 {
		router.Use(gincors.New(corsConfig))
	}

	handler := NewHandler(deps.IntakeService, deps.ContentStore, cfg.Upload.MaxBytes, log)

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		if deps.HealthChecker == nil {
			Success(c, gin.H{"status": "ok"})
			return
		}
		results, healthy := deps.HealthChecker.CheckHealth(c.Request.Context())
		if !healthy {
			c.JSON(http.StatusServiceUnavailable, Response{
				Code: CodeServiceUnavailable,
				Msg:  MsgUnhealthy,
				Data: results,
			})
			return
		}
		Success(c, results)
	})
	if deps.HealthChecker != nil {
		router.GET("/health/live", gin.WrapF(deps.HealthChecker.LiveEndpoint))
		router.GET("/health/ready", gin.WrapF(deps.HealthChecker.ReadyEndpoint))
	}
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.HTTPHandler()))
	}

	router.POST("/submit", handler.submit)
	router.POST("/upload", handler.upload)
	router.GET("/images", handler.listImages)

	prefix := "/" + strings.Trim(cfg.Upload.PublicPrefix, "/")
	if prefix == "/" {
		prefix = "/uploads"
	}
	router.GET(prefix+"/:filename", handler.serveUpload)

	router.NoRoute(staticHandler(cfg.Static.Dir))

	return router
}

// staticHandler 未匹配路由回落到静态资源目录
func staticHandler(dir string) gin.HandlerFunc {
	if dir == "" {
		return func(c *gin.Context) {
			NotFound(c, MsgNotFound)
		}
	}
	files := http.FileServer(http.Dir(dir))
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			NotFound(c, MsgNotFound)
			return
		}
		files.ServeHTTP(c.Writer, c.Request)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"guestbook/backend/internal/app"
	"guestbook/backend/internal/captcha"
	"guestbook/backend/internal/config"
	"guestbook/backend/internal/health"
	"guestbook/backend/internal/logger"
	"guestbook/backend/internal/media"
	"guestbook/backend/internal/monitoring"
	"guestbook/backend/internal/service"
	httptransport "guestbook/backend/internal/transport/http"
)

// main 启动留言板 HTTP 服务和孤儿文件巡检。
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 设置 Gin 模式（基于开发环境标志）
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting guestbook server",
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("development", cfg.Log.Development),
	)

	// 信号处理
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := app.OpenSubmissionStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to initialize storage", zap.Error(err))
	}
	defer store.Close()

	content, err := app.OpenContentStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to initialize content storage", zap.Error(err))
	}

	metrics := monitoring.NewMetrics(nil)

	healthChecker := health.NewHealthChecker(log)
	healthChecker.AddComponent("database", store)
	healthChecker.AddComponent("content", content)

	if cfg.Captcha.Secret == "" {
		log.Warn("captcha secret is empty, every submission will be rejected")
	}
	verifier := captcha.NewVerifier(cfg.Captcha, log, metrics)
	acceptor := media.NewAcceptor(content, cfg.Upload.MaxBytes)
	intake := service.NewIntakeService(store, verifier, acceptor, cfg.Upload.PublicPrefix, log, metrics)

	router := httptransport.NewRouter(httptransport.RouterDependencies{
		Config:        cfg,
		IntakeService: intake,
		ContentStore:  content,
		HealthChecker: healthChecker,
		Metrics:       metrics,
		Logger:        log,
	})

	httpAddr := cfg.Addr()
	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           router,
		ReadHeaderTimeout: config.ServerReadHeaderTimeout,
		ReadTimeout:       config.ServerReadTimeout,
		WriteTimeout:      config.ServerWriteTimeout,
		IdleTimeout:       config.ServerIdleTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	// HTTP 服务器 goroutine
	group.Go(func() error {
		log.Info("starting HTTP server", zap.String("address", httpAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", zap.Error(err))
			return err
		}
		return nil
	})

	// 孤儿文件巡检 goroutine
	if cfg.Reconcile.Interval > 0 {
		reconciler := service.NewReconciler(
			content,
			store,
			cfg.Reconcile.GracePeriod,
			cfg.Reconcile.RemovalsPerSecond,
			log,
			metrics,
		)
		group.Go(func() error {
			log.Info("starting orphan file reconciler",
				zap.Duration("interval", cfg.Reconcile.Interval),
				zap.Bool("remove", cfg.Reconcile.RemoveOrphans),
			)
			err := reconciler.Run(groupCtx, cfg.Reconcile.Interval, cfg.Reconcile.RemoveOrphans)
			log.Info("reconciler stopped")
			return err
		})
	}

	// 优雅关闭 goroutine
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutdown signal received, gracefully shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", zap.Error(err))
		}

		log.Info("servers stopped")
		return nil
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server error", zap.Error(err))
		return
	}

	log.Info("server exited cleanly")
}

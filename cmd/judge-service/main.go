package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"judgegate/internal/common/cache"
	commonmw "judgegate/internal/common/http/middleware"
	"judgegate/internal/judge/comparator"
	"judgegate/internal/judge/controller"
	"judgegate/internal/judge/execclient"
	"judgegate/internal/judge/guard"
	"judgegate/internal/judge/recordclient"
	"judgegate/internal/judge/service"
	"judgegate/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "Path to optional config file")
	flag.Parse()

	// Local development convenience; the environment wins either way.
	_ = godotenv.Load()

	appCfg, err := loadAppConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load app config failed: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(appCfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	guardCache, err := newGuardCache(appCfg.Redis)
	if err != nil {
		logger.Error(context.Background(), "init guard cache failed", zap.Error(err))
		return
	}
	defer func() {
		_ = guardCache.Close()
	}()
	inflightGuard := guard.New(guardCache, appCfg.Judge.InflightTTL)

	execClient, err := execclient.NewClient(execclient.Config{
		BaseURL: appCfg.Judge0.BaseURL,
		AuthKey: appCfg.Judge0.AuthKey,
		Timeout: appCfg.Judge0.Timeout,
	})
	if err != nil {
		logger.Error(context.Background(), "init execution client failed", zap.Error(err))
		return
	}

	recordClient, err := recordclient.NewClient(recordclient.Config{
		BaseURL: appCfg.RecordStore.BaseURL,
		Timeout: appCfg.RecordStore.Timeout,
	})
	if err != nil {
		logger.Error(context.Background(), "init record store client failed", zap.Error(err))
		return
	}

	judgeSvc, err := service.NewService(service.Config{
		RecordStore:    recordClient,
		Executor:       execClient,
		Guard:          inflightGuard,
		MaxTestCases:   appCfg.Judge.MaxTestCases,
		WorkerPoolSize: appCfg.Judge.WorkerPoolSize,
		CompareOptions: comparator.DefaultOptions(),
	})
	if err != nil {
		logger.Error(context.Background(), "init judge service failed", zap.Error(err))
		return
	}

	httpServer := buildHTTPServer(appCfg, judgeSvc, execClient)
	listener, err := net.Listen("tcp", appCfg.Server.Addr)
	if err != nil {
		logger.Error(context.Background(), "init http listener failed", zap.Error(err))
		return
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(context.Background(), "judge http server started", zap.String("addr", appCfg.Server.Addr))
		errCh <- httpServer.Serve(listener)
	}()

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), "http server stopped", zap.Error(err))
		}
	case <-shutdownCtx.Done():
		logger.Info(context.Background(), "shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error(context.Background(), "http server shutdown failed", zap.Error(err))
	}
}

func newGuardCache(cfg RedisConfig) (cache.Cache, error) {
	if cfg.Addr == "" {
		return cache.NewMemoryCache(), nil
	}
	redisConfig := cache.DefaultRedisConfig()
	redisConfig.Addr = cfg.Addr
	redisConfig.Password = cfg.Password
	redisConfig.DB = cfg.DB
	return cache.NewRedisCacheWithConfig(redisConfig)
}

func buildHTTPServer(cfg *AppConfig, judgeSvc *service.Service, execClient *execclient.Client) *http.Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(commonmw.TraceContextMiddleware())
	router.Use(requestLogger())

	judgeController := controller.NewJudgeController(judgeSvc, cfg.Judge.MaxSourceBytes)
	healthController := controller.NewHealthController(execClient)

	router.POST("/v1/judge-question", judgeController.JudgeQuestion)
	router.GET("/healthz", healthController.Healthz)
	router.GET("/readyz", healthController.Readyz)

	return &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		logger.Info(
			c.Request.Context(),
			"request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

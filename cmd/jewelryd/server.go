// =============================================================================
// 🖥️ 网关服务器
// =============================================================================
// 组装 HTTP 服务器：路由注册、中间件链、依赖注入、优雅关闭
// =============================================================================

package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/amywork777/jewelry-sub001/api/handlers"
	"github.com/amywork777/jewelry-sub001/config"
	"github.com/amywork777/jewelry-sub001/internal/cache"
	"github.com/amywork777/jewelry-sub001/internal/metrics"
	"github.com/amywork777/jewelry-sub001/internal/server"
	"github.com/amywork777/jewelry-sub001/internal/telemetry"
	"github.com/amywork777/jewelry-sub001/llm"
	"github.com/amywork777/jewelry-sub001/llm/openai"
	"github.com/amywork777/jewelry-sub001/proxy"
)

// =============================================================================
// 🎯 服务器结构
// =============================================================================

// Server 网关服务器，持有全部运行时依赖
type Server struct {
	config *config.Config
	logger *zap.Logger

	// 核心组件
	httpServer    *server.Manager
	metricsServer *server.Manager
	metrics       *metrics.Collector
	cache         *cache.Manager
	otel          *telemetry.Providers

	// 业务组件
	provider *openai.Provider
	enhancer *llm.Enhancer
	fetcher  *proxy.Fetcher

	// 处理器
	enhanceHandler    *handlers.EnhanceHandler
	modelProxyHandler *handlers.ModelProxyHandler
	convertHandler    *handlers.ConvertHandler
	imageProxyHandler *handlers.ImageProxyHandler
	meshHandler       *handlers.MeshHandler
	healthHandler     *handlers.HealthHandler

	// 限流器清理 goroutine 的取消函数
	rateLimiterCancel context.CancelFunc
}

// NewServer 创建网关服务器
func NewServer(cfg *config.Config, logger *zap.Logger, otelProviders *telemetry.Providers) *Server {
	return &Server{
		config: cfg,
		logger: logger,
		otel:   otelProviders,
	}
}

// =============================================================================
// 🚀 启动流程
// =============================================================================

// Start 启动服务器
func (s *Server) Start() error {
	s.logger.Info("Initializing jewelry gateway server")

	// 1. 初始化指标收集器
	s.metrics = metrics.NewCollector("jewelry", s.logger)

	// 2. 初始化缓存（可选；Redis 不可用时降级为直连 LLM）
	if s.config.Redis.Addr != "" {
		mgr, err := cache.NewManager(cache.Config{
			Addr:         s.config.Redis.Addr,
			Password:     s.config.Redis.Password,
			DB:           s.config.Redis.DB,
			DefaultTTL:   s.config.Redis.EnhanceTTL,
			MaxRetries:   3,
			PoolSize:     s.config.Redis.PoolSize,
			MinIdleConns: s.config.Redis.MinIdleConns,

			HealthCheckInterval: 30 * time.Second,
		}, s.logger)
		if err != nil {
			s.logger.Warn("Redis unavailable, running without enhance cache", zap.Error(err))
		} else {
			s.cache = mgr
		}
	} else {
		s.logger.Info("Redis not configured, enhance cache disabled")
	}

	// 3. 初始化业务组件和处理器
	s.initComponents()
	s.initHandlers()

	// 4. 构建路由和中间件链
	handler := s.buildHandler()

	// 5. 启动 HTTP 服务器
	s.httpServer = server.NewManager(handler, server.Config{
		Addr:            fmt.Sprintf(":%d", s.config.Server.HTTPPort),
		ReadTimeout:     s.config.Server.ReadTimeout,
		WriteTimeout:    s.config.Server.WriteTimeout,
		IdleTimeout:     2 * s.config.Server.ReadTimeout,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: s.config.Server.ShutdownTimeout,
	}, s.logger)

	if err := s.httpServer.Start(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	s.logger.Info("HTTP server started",
		zap.Int("port", s.config.Server.HTTPPort))

	// 6. 启动 Metrics 服务器
	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	return nil
}

// initComponents 初始化业务组件
func (s *Server) initComponents() {
	// 资产抓取器
	s.fetcher = proxy.NewFetcher(proxy.FetcherConfig{
		BearerToken:  s.config.Assets.APIKey,
		AllowedHosts: s.config.Assets.AllowedHosts,
		Timeout:      s.config.Assets.FetchTimeout,
		MaxBytes:     s.config.Assets.MaxAssetBytes,
	}, s.logger)

	// 提示词增强器（未配置 API Key 时不启用对应路由）
	if s.config.LLM.APIKey != "" {
		s.provider = openai.NewProvider(openai.Config{
			APIKey:  s.config.LLM.APIKey,
			BaseURL: s.config.LLM.BaseURL,
			Model:   s.config.LLM.Model,
			Timeout: s.config.LLM.Timeout,
		}, s.logger)

		s.enhancer = llm.NewEnhancer(s.provider, llm.EnhancerConfig{
			Model:       s.config.LLM.Model,
			Temperature: float32(s.config.LLM.Temperature),
			MaxTokens:   s.config.LLM.MaxTokens,
			Timeout:     s.config.LLM.Timeout,
			CacheTTL:    s.config.Redis.EnhanceTTL,
		}, s.logger).WithMetrics(s.metrics)

		if s.cache != nil {
			s.enhancer = s.enhancer.WithCache(s.cache)
		}
	} else {
		s.logger.Info("LLM API key not configured, prompt enhancement disabled")
	}
}

// initHandlers 初始化处理器
func (s *Server) initHandlers() {
	if s.enhancer != nil {
		s.enhanceHandler = handlers.NewEnhanceHandler(s.enhancer, s.logger)
	}

	s.modelProxyHandler = handlers.NewModelProxyHandler(s.fetcher, s.logger).
		WithMetrics(s.metrics)
	s.convertHandler = handlers.NewConvertHandler(s.logger)
	s.imageProxyHandler = handlers.NewImageProxyHandler(
		s.fetcher, s.config.Assets.PreviewURLPattern, s.logger)
	s.meshHandler = handlers.NewMeshHandler(s.logger)

	// 健康检查
	s.healthHandler = handlers.NewHealthHandler(s.logger)
	if s.cache != nil {
		s.healthHandler.RegisterCheck(handlers.NewPingHealthCheck("redis", s.cache.Ping))
	}
	if s.provider != nil {
		s.healthHandler.RegisterCheck(handlers.NewPingHealthCheck("llm", func(ctx context.Context) error {
			status, err := s.provider.HealthCheck(ctx)
			if err != nil {
				return err
			}
			if !status.Healthy {
				return fmt.Errorf("llm provider unhealthy")
			}
			return nil
		}))
	}
}

// =============================================================================
// 🌐 路由和中间件
// =============================================================================

// buildHandler 构建完整的 HTTP 处理器（路由 + 中间件链）
func (s *Server) buildHandler() http.Handler {
	mux := http.NewServeMux()

	// 健康检查路由
	mux.HandleFunc("/health", s.healthHandler.HandleHealth)
	mux.HandleFunc("/healthz", s.healthHandler.HandleHealthz)
	mux.HandleFunc("/ready", s.healthHandler.HandleReady)
	mux.HandleFunc("/readyz", s.healthHandler.HandleReady)
	mux.HandleFunc("/version", s.healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	// 业务路由
	if s.enhanceHandler != nil {
		mux.HandleFunc("/api/v1/enhance", s.enhanceHandler.HandleEnhance)
	}
	mux.HandleFunc("/api/v1/model-proxy", s.modelProxyHandler.HandleModelProxy)
	mux.HandleFunc("/api/v1/convert-stl", s.convertHandler.HandleConvertSTL)
	mux.HandleFunc("/api/v1/image-proxy", s.imageProxyHandler.HandleImageProxy)
	mux.HandleFunc("/api/v1/mesh/necklace", s.meshHandler.HandleNecklace)

	// 限流器（带后台清理 goroutine）
	rateLimiterCtx, cancel := context.WithCancel(context.Background())
	s.rateLimiterCancel = cancel
	rateLimiter := NewRateLimiter(rateLimiterCtx,
		s.config.Server.RateLimitRPS, s.config.Server.RateLimitBurst, s.logger)

	// 中间件链（从外到内）
	return Chain(mux,
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		OTelTracing(),
		MetricsMiddleware(s.metrics),
		RequestLogger(s.logger),
		CORS(s.config.Server.CORSAllowedOrigins),
		rateLimiter.Middleware(),
	)
}

// startMetricsServer 启动独立的 Prometheus 指标服务器
func (s *Server) startMetricsServer() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	s.metricsServer = server.NewManager(mux, server.Config{
		Addr:            fmt.Sprintf(":%d", s.config.Server.MetricsPort),
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}, s.logger.With(zap.String("server", "metrics")))

	if err := s.metricsServer.Start(); err != nil {
		return err
	}

	s.logger.Info("Metrics server started",
		zap.Int("port", s.config.Server.MetricsPort))

	return nil
}

// =============================================================================
// 🛑 关闭流程
// =============================================================================

// WaitForShutdown 等待关闭信号并执行优雅关闭
func (s *Server) WaitForShutdown() {
	s.httpServer.WaitForShutdown()
	s.shutdownDependencies()
}

// Shutdown 主动关闭服务器
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}
	s.shutdownDependencies()
	return nil
}

// shutdownDependencies 按依赖顺序释放资源
func (s *Server) shutdownDependencies() {
	if s.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.metricsServer.Shutdown(ctx); err != nil {
			s.logger.Error("Failed to shutdown metrics server", zap.Error(err))
		}
		cancel()
	}

	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}

	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.logger.Error("Failed to close cache", zap.Error(err))
		}
	}

	if s.otel != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.otel.Shutdown(ctx); err != nil {
			s.logger.Error("Failed to shutdown telemetry", zap.Error(err))
		}
	}
}

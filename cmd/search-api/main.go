// Package main 游戏发现 API 服务入口
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kaleckh/steam-recs-sub001/internal/application/discovery"
	"github.com/kaleckh/steam-recs-sub001/internal/config"
	"github.com/kaleckh/steam-recs-sub001/internal/infrastructure/embedding"
	"github.com/kaleckh/steam-recs-sub001/internal/infrastructure/llm"
	"github.com/kaleckh/steam-recs-sub001/internal/infrastructure/persistence/milvus"
	"github.com/kaleckh/steam-recs-sub001/internal/infrastructure/persistence/postgres"
	"github.com/kaleckh/steam-recs-sub001/internal/infrastructure/persistence/redis"
	"github.com/kaleckh/steam-recs-sub001/internal/interfaces/http/handler"
	"github.com/kaleckh/steam-recs-sub001/internal/interfaces/http/middleware"
	"github.com/kaleckh/steam-recs-sub001/internal/interfaces/http/router"
	"github.com/kaleckh/steam-recs-sub001/pkg/logger"
	"github.com/kaleckh/steam-recs-sub001/pkg/tracer"
)

// Version 版本信息，构建时注入
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件（如果存在）
	_ = godotenv.Load()

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger.Init(
		cfg.Observability.Logging.Level,
		cfg.Observability.Logging.Format,
	)

	ctx := context.Background()
	log := logger.FromContext(ctx)
	log.Info("starting search-api",
		"version", Version,
		"build_time", BuildTime,
		"env", cfg.App.Env,
	)

	// 初始化追踪
	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName: cfg.App.Name,
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		log.Error("failed to init tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			log.Error("failed to shutdown tracer", "error", err)
		}
	}()

	// 存储层
	pgClient, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		logger.Fatal(ctx, "failed to init postgres", err)
	}
	defer func() { _ = pgClient.Close() }()

	milvusClient, err := milvus.NewClient(ctx, &cfg.Vector.Milvus)
	if err != nil {
		logger.Fatal(ctx, "failed to init milvus", err)
	}
	defer func() { _ = milvusClient.Close() }()

	gameIndex := milvus.NewGameIndex(milvusClient, cfg.Embedding.Dimension)
	if err := gameIndex.EnsureGamesCollection(ctx); err != nil {
		logger.Fatal(ctx, "failed to ensure games collection", err)
	}

	// Redis 可选：不可用时跳过缓存与限流
	var (
		redisClient *redis.Client
		queryCache  *redis.Cache
		rateLimiter *redis.RateLimiter
	)
	redisClient, err = redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		log.Warn("redis unavailable, cache and rate limiting disabled", "error", err)
	} else {
		defer func() { _ = redisClient.Close() }()
		queryCache = redis.NewCache(redisClient)
		rateLimiter = redis.NewRateLimiter(redisClient)
	}

	// Embedding 与生成式模型
	embedder, err := embedding.NewEmbedder(ctx, &cfg.Embedding)
	if err != nil {
		logger.Fatal(ctx, "failed to init embedder", err)
	}
	if queryCache != nil {
		embedder = embedding.NewCachedEmbedder(embedder, queryCache, cfg.Embedding.Model, cfg.Cache.EmbeddingTTL)
	}

	llmFactory := llm.NewEinoFactory(cfg)

	// 仓储与发现管线
	gameRepo := postgres.NewGameRepo(pgClient)
	profileRepo := postgres.NewProfileRepo(pgClient)

	provider := cfg.LLM.DefaultProvider
	engine := discovery.NewEngine(
		discovery.NewEinoClassifier(llmFactory, provider),
		discovery.NewEinoSelector(llmFactory, provider),
		discovery.NewResolver(gameRepo, gameIndex, discovery.NewEinoDescriber(llmFactory, provider), embedder),
		gameRepo,
		profileRepo,
		gameIndex,
		discovery.Options{
			CandidateLimit: cfg.Discovery.CandidateLimit,
			ResultLimitCap: cfg.Discovery.ResultLimitCap,
			MaxRounds:      cfg.Discovery.MaxRounds,
		},
	)

	// 路由
	var limiter middleware.RateLimiter
	if rateLimiter != nil {
		limiter = rateLimiter
	}
	r := router.New(cfg, router.Handlers{
		Health:         handler.NewHealthHandler(pgClient, redisClient, milvusClient),
		Search:         handler.NewSearchHandler(engine),
		Recommendation: handler.NewRecommendationHandler(engine),
	}, limiter)

	// 创建 HTTP 服务器
	addr := fmt.Sprintf("%s:%d", cfg.Server.HTTP.Host, cfg.Server.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
		IdleTimeout:  cfg.Server.HTTP.IdleTimeout,
	}

	// 启动服务器
	go func() {
		log.Info("http server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// 优雅关闭
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("server exited")
}

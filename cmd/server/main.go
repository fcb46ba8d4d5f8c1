package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/adaptmath/backend/internal/api"
	"github.com/adaptmath/backend/internal/auth"
	"github.com/adaptmath/backend/internal/cache"
	"github.com/adaptmath/backend/internal/config"
	"github.com/adaptmath/backend/internal/db"
	apperrors "github.com/adaptmath/backend/internal/errors"
	"github.com/adaptmath/backend/internal/generator"
	"github.com/adaptmath/backend/internal/health"
	"github.com/adaptmath/backend/internal/knowledge"
	"github.com/adaptmath/backend/internal/logger"
	"github.com/adaptmath/backend/internal/metrics"
	"github.com/adaptmath/backend/internal/middleware"
	"github.com/adaptmath/backend/internal/websocket"
)

const version = "1.0.0"

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.Error(ctx, "failed to load configuration", err)
		os.Exit(1)
	}

	log := logger.New(&logger.Config{
		Output: os.Stdout,
		Level:  logger.ParseLevel(cfg.LogLevel),
	})
	logger.SetDefault(log)

	// Postgres may come up after us; retry before giving up.
	database, err := apperrors.RetryWithResult(ctx, apperrors.DatabaseRetryConfig(), func(ctx context.Context) (*db.DB, error) {
		d, err := db.New(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)
		if err != nil {
			return nil, apperrors.DatabaseError("failed to connect").WithCause(err)
		}
		return d, nil
	})
	if err != nil {
		log.Error(ctx, "failed to connect to database", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		log.Error(ctx, "failed to run migrations", err)
		os.Exit(1)
	}

	accountRepo := db.NewAccountRepository(database)
	sessionRepo := db.NewSessionRepository(database)
	progressionRepo := db.NewProgressionRepository(database)

	hasher := auth.NewHasher(cfg.HashWorkers)
	tokens := auth.NewTokenService(cfg.JWTSecret)
	authService := auth.NewService(accountRepo, sessionRepo, hasher, tokens)
	authHandlers := auth.NewHandlers(authService)

	// The cache is optional; without it module listings always hit the sidecar.
	var moduleCache *cache.Cache
	if c, err := cache.New(cfg.RedisAddr); err != nil {
		log.Warn(ctx, "redis unavailable, caching disabled", map[string]any{"error": err.Error()})
	} else {
		moduleCache = c
		defer moduleCache.Close()
	}

	generatorClient := generator.NewClient(cfg.GeneratorURL)
	generatorHandlers := generator.NewHandlers(generatorClient, moduleCache)

	// Each generator module is a trackable skill. Best effort: the sidecar
	// may come up after us, and the catalog re-syncs on next restart.
	if modules, err := generatorClient.Modules(ctx); err != nil {
		log.Warn(ctx, "skipping skill catalog sync, generator unavailable", map[string]any{"error": err.Error()})
	} else if created, err := knowledge.SyncSkillCatalog(ctx, progressionRepo, modules); err != nil {
		log.Error(ctx, "skill catalog sync failed", err)
	} else if created > 0 {
		log.Info(ctx, "skill catalog synced", map[string]any{"created": created})
	}

	hub := websocket.NewHub()
	go hub.Run()
	wsHandler := websocket.NewHandler(hub, authService)
	notifier := websocket.NewProgressNotifier(hub)

	knowledgeService := knowledge.NewService(progressionRepo, nil, notifier)
	knowledgeHandlers := knowledge.NewHandlers(knowledgeService)

	checkerCfg := &health.CheckerConfig{
		DB:             database.DB,
		GeneratorCheck: generatorClient.Ping,
		Version:        version,
		Timeout:        5 * time.Second,
	}
	if moduleCache != nil {
		checkerCfg.Redis = moduleCache.Client()
	}
	healthHandler := health.NewHandler(health.NewChecker(checkerCfg))

	router := api.NewRouter(&api.RouterConfig{
		AuthHandlers:      authHandlers,
		AuthService:       authService,
		KnowledgeHandlers: knowledgeHandlers,
		GeneratorHandlers: generatorHandlers,
		HealthHandler:     healthHandler,
		WSHandler:         wsHandler,
	})

	handler := middleware.Chain(
		router,
		apperrors.RequestIDMiddleware,
		logger.Middleware,
		metrics.Middleware(metrics.Default()),
		middleware.Gzip,
		middleware.CORS([]string{"*"}),
		middleware.Recoverer(log),
	)

	log.Info(ctx, "starting server", map[string]any{"addr": cfg.ServerAddr})
	if err := http.ListenAndServe(cfg.ServerAddr, handler); err != nil {
		log.Error(ctx, "server failed", err)
		os.Exit(1)
	}
}

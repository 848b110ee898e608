package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/shift-planner-api/api/swagger"
	"github.com/noah-isme/shift-planner-api/internal/gateway"
	"github.com/noah-isme/shift-planner-api/internal/handler"
	internalmiddleware "github.com/noah-isme/shift-planner-api/internal/middleware"
	"github.com/noah-isme/shift-planner-api/internal/repository"
	"github.com/noah-isme/shift-planner-api/internal/service"
	"github.com/noah-isme/shift-planner-api/internal/session"
	"github.com/noah-isme/shift-planner-api/pkg/cache"
	"github.com/noah-isme/shift-planner-api/pkg/config"
	"github.com/noah-isme/shift-planner-api/pkg/database"
	"github.com/noah-isme/shift-planner-api/pkg/export"
	"github.com/noah-isme/shift-planner-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/shift-planner-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/shift-planner-api/pkg/middleware/requestid"
	"github.com/noah-isme/shift-planner-api/pkg/richtext"
)

// @title Shift Planner API
// @version 1.0.0
// @description Session-scoped orchestration of shift schedule generation, review and editing.
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gw, db, err := openGateway(rootCtx, cfg, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to init gateway", "mode", cfg.Gateway.Mode, "error", err)
	}
	if db != nil {
		defer db.Close() //nolint:errcheck
	}

	metrics := service.NewMetricsService()
	cacheSvc, redisClient := openCache(rootCtx, cfg, metrics, logr)
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	validate := validator.New()
	renderer := richtext.New()

	manager := session.NewManager(session.ManagerConfig{IdleTTL: cfg.Sessions.IdleTTL}, metrics, logr)
	manager.StartCleanup(rootCtx, cfg.Sessions.CleanupInterval)

	loopCtx, cancelLoops := context.WithCancel(context.Background())
	defer cancelLoops()

	patternSvc := service.NewPatternService(gw, renderer, logr)
	generationSvc := service.NewGenerationService(loopCtx, gw, patternSvc, metrics, service.GenerationConfig{
		PollInterval:        cfg.Generation.PollInterval,
		DefaultPatternCount: cfg.Generation.DefaultPatternCount,
		MaxPatternCount:     cfg.Generation.MaxPatternCount,
		HeuristicCap:        cfg.Generation.HeuristicCap,
		HeuristicRate:       cfg.Generation.HeuristicRate,
	}, logr)
	editorSvc := service.NewEditorService(gw, validate, metrics, logr)
	constraintSvc := service.NewConstraintService(gw, cacheSvc, renderer, validate, cfg.Cache.ConstraintsTTL, logr)
	plannerSvc := service.NewRequestPlannerService(gw, renderer, validate, logr)
	exportSvc := service.NewExportService(gw, export.NewCSVExporter(true), logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))
	r.Use(internalmiddleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(metrics, gw)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	secret := cfg.Sessions.CookieSecret
	if secret == "" {
		if cfg.Env == config.EnvProduction {
			logr.Sugar().Fatalw("SESSION_SECRET is required in production")
		}
		secret = "shift-planner-development-secret"
	}
	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.CookieSessions(secret, cfg.Env == config.EnvProduction))
	handler.RegisterRoutes(api, handler.Handlers{
		Sessions:    handler.NewSessionHandler(manager, logr),
		Generations: handler.NewGenerationHandler(generationSvc),
		Patterns:    handler.NewPatternHandler(patternSvc),
		Entries:     handler.NewEntryHandler(editorSvc),
		Constraints: handler.NewConstraintHandler(constraintSvc),
		Requests:    handler.NewRequestPlanHandler(plannerSvc),
		Exports:     handler.NewExportHandler(exportSvc),
		Calendar:    handler.NewCalendarHandler(),
	}, manager)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "gateway", cfg.Gateway.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Sugar().Infow("shutting down", "sessions", manager.Len())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
	cancelLoops()
	manager.Shutdown()
}

func openGateway(ctx context.Context, cfg *config.Config, logr *zap.Logger) (gateway.Gateway, *sqlx.DB, error) {
	if cfg.Gateway.Mode == config.GatewayModePostgres {
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return gateway.NewStore(db, logr), db, nil
	}
	if cfg.Gateway.BaseURL == "" {
		return nil, nil, fmt.Errorf("OPTIMIZER_BASE_URL is required in %s mode", config.GatewayModeHTTP)
	}
	return gateway.NewHTTPClient(cfg.Gateway, logr), nil, nil
}

// openCache connects Redis when the constraint cache is enabled. A Redis
// outage disables the cache instead of failing startup.
func openCache(ctx context.Context, cfg *config.Config, metrics *service.MetricsService, logr *zap.Logger) (*service.CacheService, *redis.Client) {
	if !cfg.Cache.ConstraintsEnabled {
		return service.NewCacheService(nil, metrics, cfg.Cache.ConstraintsTTL, logr, false), nil
	}
	client, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("constraint cache disabled", "error", err)
		return service.NewCacheService(nil, metrics, cfg.Cache.ConstraintsTTL, logr, false), nil
	}
	repo := repository.NewCacheRepository(client, "shift-planner", logr)
	return service.NewCacheService(repo, metrics, cfg.Cache.ConstraintsTTL, logr, true), client
}

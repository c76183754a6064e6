package main // Entry point of the event ticketing admin API

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/event-ticketing-admin/internal/config"
	"github.com/iliyamo/event-ticketing-admin/internal/database"
	"github.com/iliyamo/event-ticketing-admin/internal/draft"
	"github.com/iliyamo/event-ticketing-admin/internal/handler"
	"github.com/iliyamo/event-ticketing-admin/internal/logger"
	"github.com/iliyamo/event-ticketing-admin/internal/middleware"
	"github.com/iliyamo/event-ticketing-admin/internal/queue"
	"github.com/iliyamo/event-ticketing-admin/internal/repository"
	"github.com/iliyamo/event-ticketing-admin/internal/router"
	"github.com/iliyamo/event-ticketing-admin/internal/service"
)

func main() {
	_ = godotenv.Load() // a missing .env is fine; the environment may carry everything
	cfg := config.Load()
	if err := logger.Init(logger.Config{Debug: cfg.LogDebug, Dir: cfg.LogDir}); err != nil {
		log.Fatalf("logger init: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatal("database unavailable", "error", err)
	}
	defer db.Close()
	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			logger.Fatal("schema migration failed", "error", err)
		}
	}

	// Redis backs drafts, rate limiting and the public cache; without it the
	// limiter and cache pass through and drafts live in process memory.
	rdb := config.NewRedisClient()
	draftCfg := config.LoadDraftConfig()
	var drafts draft.Store = draft.NewMemoryStore(draftCfg.TTL)
	if rdb != nil {
		defer rdb.Close()
		drafts = draft.NewRedisStore(rdb, draftCfg.TTL, draftCfg.Prefix)
	}

	scheduleLog := queue.NewScheduleLog(cfg.LogDir)
	defer scheduleLog.Close()
	go func() {
		if err := queue.StartScheduleConsumer(ctx, cfg.AMQPURL, scheduleLog); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("schedule consumer stopped", "error", err)
		}
	}()

	events := repository.NewEventRepo(db)
	svc := service.NewScheduleService(events, repository.NewScheduleRepo(db), drafts, service.NewAMQPPublisher(cfg.AMQPURL))

	cacheCfg := config.LoadCacheConfig()
	var purger handler.CachePurger
	if p := middleware.NewCachePurger(cacheCfg, rdb); p != nil {
		purger = p
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, repository.NewUserRepo(db), repository.NewTokenRepo(db)), cfg.JWTSecret)
	router.RegisterOrganizer(e,
		handler.NewEventHandler(events),
		handler.NewScheduleHandler(svc, purger),
		cfg.JWTSecret,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
	)
	router.RegisterPublic(e, handler.NewPublicHandler(svc), middleware.NewRedisCache(cacheCfg, rdb))

	go func() {
		addr := ":" + cfg.Port
		logger.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/auditory-booking/internal/config"
	"github.com/iliyamo/auditory-booking/internal/database"
	"github.com/iliyamo/auditory-booking/internal/handler"
	"github.com/iliyamo/auditory-booking/internal/logging"
	"github.com/iliyamo/auditory-booking/internal/middleware"
	"github.com/iliyamo/auditory-booking/internal/repository"
	"github.com/iliyamo/auditory-booking/internal/router"
	"github.com/iliyamo/auditory-booking/internal/service"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.DBAutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		logger.Info("schema ready")
	}

	// Redis is optional: without it the cache and the rate limiter pass
	// requests through.
	var rdb *redis.Client
	cacheCfg := config.LoadCacheConfig()
	rateCfg := config.LoadRateLimitConfig()
	if cacheCfg.Enabled || rateCfg.Enabled {
		rdb, err = config.NewRedisClient(config.RedisOptions())
		if err != nil {
			logger.Warn("redis unavailable, cache and rate limit disabled", zap.Error(err))
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	var publisher service.EventPublisher = service.NopPublisher{}
	if cfg.QueueEnabled {
		publisher = service.NewRabbitPublisher(cfg.RabbitMQURL, cfg.BookingQueue, logger)
		logger.Info("booking events enabled", zap.String("queue", cfg.BookingQueue))
	}

	devices := repository.NewDeviceRepo(db)
	auditories := repository.NewAuditoryRepo(db)
	bookings := service.NewBookingService(repository.NewBookingRepo(db), logger,
		service.WithPublisher(publisher),
		service.WithDisplayZone(cfg.DisplayZone),
	)

	opts := router.Options{
		Logger:      logger,
		CORSOrigins: cfg.CORSOrigins,
		RateLimit:   middleware.NewTokenBucket(rateCfg, rdb, logger),
		Cache:       middleware.NewRedisCache(cacheCfg, rdb, logger),
		CacheLists:  cacheCfg.Lists,
		Invalidate:  middleware.InvalidateCache(cacheCfg, rdb, logger),
	}
	e := router.New(opts)
	router.RegisterRoutes(e, cfg.APIPrefix, router.Handlers{
		Devices:    handler.NewDeviceHandler(devices),
		Auditories: handler.NewAuditoryHandler(auditories, bookings),
		Bookings:   handler.NewBookingHandler(bookings),
	}, opts)

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("prefix", cfg.APIPrefix))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/restaurant-reservation/internal/config"
	"github.com/iliyamo/restaurant-reservation/internal/database"
	"github.com/iliyamo/restaurant-reservation/internal/handler"
	"github.com/iliyamo/restaurant-reservation/internal/middleware"
	"github.com/iliyamo/restaurant-reservation/internal/repository"
	"github.com/iliyamo/restaurant-reservation/internal/reservation"
	"github.com/iliyamo/restaurant-reservation/internal/router"
	"github.com/iliyamo/restaurant-reservation/internal/service"
	"github.com/iliyamo/restaurant-reservation/internal/worker"
	"github.com/iliyamo/restaurant-reservation/migrations"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg, err := config.Parse()
	if err != nil {
		return err
	}
	logger := config.NewLogger(cfg, os.Stdout)
	slog.SetDefault(logger)

	resCfg, err := config.LoadReservationConfig()
	if err != nil {
		return err
	}
	evCfg := config.LoadEventsConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db, migrations.FS, logger); err != nil {
			return err
		}
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig(), logger)
	if rdb != nil {
		defer rdb.Close()
	}

	opts := reservation.Options{Policy: resCfg.Policy, Logger: logger}
	var publisher *service.Publisher
	if evCfg.Enabled {
		publisher = service.NewPublisher(evCfg, logger)
		opts.Sink = publisher
	}
	tables := repository.NewTableRepo(db)
	svc := reservation.NewService(tables, repository.NewReservationRepo(db), reservation.RealClock{}, opts)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(requestLogger(logger))

	deps := router.Deps{
		Health:       handler.Health(db),
		Tables:       handler.NewTableHandler(tables, logger),
		Reservations: handler.NewReservationHandler(svc, resCfg.Location, logger),
		JWTSecret:    cfg.JWTSecret,
	}
	if rdb != nil {
		deps.RateLimit = middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger)
		deps.Cache = middleware.NewRedisCache(config.LoadCacheConfig(), rdb, logger)
	}
	router.Register(e, deps)

	if resCfg.OverdueInterval > 0 {
		var notifier worker.OverdueNotifier
		if publisher != nil {
			notifier = publisher
		}
		stopWatcher, err := worker.NewOverdueWatcher(svc, notifier, resCfg.OverdueInterval, logger).Start(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = stopWatcher() }()
	}

	addr := ":" + cfg.Port
	logger.Info("listening", "addr", addr, "env", cfg.Env, "timezone", resCfg.Location.String())
	errCh := make(chan error, 1)
	go func() { errCh <- e.Start(addr) }()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			}
			if sub := middleware.Subject(c); sub != "" {
				attrs = append(attrs, slog.String("subject", sub))
			}
			level := slog.LevelInfo
			if v.Error != nil {
				level = slog.LevelError
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			logger.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	})
}

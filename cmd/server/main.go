package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/gommon/log"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/store-rating/internal/config"
	"github.com/iliyamo/store-rating/internal/database"
	"github.com/iliyamo/store-rating/internal/handler"
	"github.com/iliyamo/store-rating/internal/logging"
	"github.com/iliyamo/store-rating/internal/middleware"
	"github.com/iliyamo/store-rating/internal/queue"
	"github.com/iliyamo/store-rating/internal/repository"
	"github.com/iliyamo/store-rating/internal/router"
	"github.com/iliyamo/store-rating/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New("store-rating", cfg.LogLevel)

	db, err := database.Open(cfg.Database())
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer db.Close()
	if cfg.AutoMigrate {
		if err := database.Migrate(db, cfg.DBDriver); err != nil {
			logger.Fatalf("migrate: %v", err)
		}
	}

	cacheCfg, err := config.LoadCacheConfig()
	if err != nil {
		logger.Fatalf("cache config: %v", err)
	}
	rlCfg, err := config.LoadRateLimitConfig()
	if err != nil {
		logger.Fatalf("rate limit config: %v", err)
	}
	evCfg, err := config.LoadEventsConfig()
	if err != nil {
		logger.Fatalf("events config: %v", err)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn("redis unavailable, response cache and rate limiting are off")
	} else {
		defer rdb.Close()
	}

	var events queue.Publisher = queue.Noop{}
	var pub *queue.AMQPPublisher
	if evCfg.Enabled {
		pub = queue.NewAMQPPublisher(evCfg.URL, evCfg.Exchange, logger)
		defer pub.Close()
		events = pub
	}

	deps := service.Deps{Repos: repository.NewManager(db), Events: events, Logger: logger}
	auth := service.NewAuthService(deps, service.AuthConfig{
		JWTSecret:  cfg.JWTSecret,
		AccessTTL:  cfg.AccessTTL(),
		RefreshTTL: cfg.RefreshTTL(),
		BcryptCost: cfg.BcryptCost,
	})
	stores := service.NewStoreService(deps)
	dir := service.NewDirectoryService(deps)

	e := router.NewServer(router.ServerOptions{
		Logger:      logger,
		FrontendURL: cfg.FrontendURL,
		AccessLog:   true,
	})
	router.Register(e, router.Deps{
		Auth:      handler.NewAuthHandler(auth, handler.CookieConfig{Secure: cfg.IsProduction(), TTL: cfg.RefreshTTL()}),
		Stores:    handler.NewStoreHandler(stores, dir),
		Ratings:   handler.NewRatingHandler(service.NewRatingService(deps)),
		Admin:     handler.NewAdminHandler(service.NewAdminService(deps), dir, auth),
		Authn:     auth,
		Cache:     middleware.NewResponseCache(cacheCfg, rdb),
		RateLimit: middleware.NewTokenBucket(rlCfg, rdb),
		DB:        db,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("listening on :%s (env=%s, db=%s)", cfg.Port, cfg.Env, cfg.DBDriver)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if evCfg.Enabled {
		g.Go(func() error {
			if err := pub.Run(gctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			err := queue.StartAuditConsumer(gctx, queue.AuditConfig{
				URL:      evCfg.URL,
				Exchange: evCfg.Exchange,
				Queue:    evCfg.AuditQueue,
				LogPath:  evCfg.AuditLogPath,
			}, logger)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Errorf("server: %v", err)
		os.Exit(1)
	}
}

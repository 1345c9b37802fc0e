package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/playmatatu/slingshot/internal/api"
	"github.com/playmatatu/slingshot/internal/config"
	"github.com/playmatatu/slingshot/internal/database"
	"github.com/playmatatu/slingshot/internal/game"
	"github.com/playmatatu/slingshot/internal/logging"
	"github.com/playmatatu/slingshot/internal/migrations"
	"github.com/playmatatu/slingshot/internal/redis"
	"github.com/playmatatu/slingshot/internal/ws"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	tuning, err := game.LoadTuning(cfg.TuningFile)
	if err != nil {
		return err
	}

	// Database is optional; without it the shot journal and operators are off.
	var db *sqlx.DB
	if cfg.DatabaseURL != "" {
		if cfg.MigrateOnStart {
			logger.Info("running DB migrations on startup", zap.String("dir", cfg.MigrationsDir))
			if err := migrations.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
				return err
			}
		}
		db, err = database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
	} else {
		logger.Warn("DATABASE_URL not set; shot journal disabled")
	}

	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		rdb, err = redis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
	} else {
		logger.Warn("REDIS_URL not set; snapshots and cross-instance events disabled")
	}

	g, ctx := errgroup.WithContext(ctx)

	mgr := game.NewSessionManager(ctx, db, rdb, cfg, tuning)
	hub := ws.NewHub()
	mgr.SetFrameHandler(hub.BroadcastFrame)
	mgr.SetEventHandler(hub.BroadcastEvent)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Environment != "production" {
		router.Use(gin.Logger())
	}
	api.SetupRoutes(router, db, mgr, hub, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error { return hub.Run(ctx) })
	g.Go(func() error { return mgr.Recorder().Run(ctx) })
	g.Go(func() error { return game.RunIdleWorker(ctx, mgr, cfg) })
	g.Go(func() error { return ws.RunEventSubscriber(ctx, rdb, mgr) })
	g.Go(func() error {
		logger.Info("starting slingshot server", zap.String("port", cfg.Port), zap.Int("tick_rate", cfg.TickRate))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	})

	return g.Wait()
}

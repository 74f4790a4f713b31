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

	"house-hunter/internal/audit"
	"house-hunter/internal/auth"
	"house-hunter/internal/config"
	"house-hunter/internal/houses"
	"house-hunter/internal/httpapi"
	"house-hunter/internal/ratelimit"
	"house-hunter/internal/rbac"
	"house-hunter/internal/store"
	"house-hunter/internal/users"
	"house-hunter/pkg/logger"
	"house-hunter/pkg/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	// Root context that cancels on shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("api exited", "err", err)
		stop()
		os.Exit(1)
	}
}

// run owns every resource it opens; failures return so deferred cleanup runs.
func run(ctx context.Context) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load: %w", err)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		return fmt.Errorf("auth init: %w", err)
	}

	client, err := utils.OpenMongo(ctx, utils.MongoConfig{
		URL:             cfg.Mongo.URL,
		ConnectTimeout:  cfg.Mongo.ConnectTimeout,
		MaxPoolSize:     cfg.Mongo.MaxPoolSize,
		MinPoolSize:     cfg.Mongo.MinPoolSize,
		MaxConnIdleTime: cfg.Mongo.MaxConnIdleTime,
		RetryAttempts:   cfg.Mongo.RetryAttempts,
		RetryInterval:   cfg.Mongo.RetryInterval,
	})
	if err != nil {
		return fmt.Errorf("mongo init: %w", err)
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(dctx); err != nil {
			log.Error("mongo disconnect failed", "err", err)
		}
	}()

	db := client.Database(cfg.Mongo.Database)
	if err := store.EnsureIndexes(ctx, db); err != nil {
		return fmt.Errorf("mongo index setup: %w", err)
	}

	userColl := store.NewMongo[users.User](db, store.CollectionUsers)
	auditSvc := audit.NewService(audit.NewStoreRepo(store.NewMongo[audit.Event](db, store.CollectionAudit)))
	houseSvc := houses.NewService(
		store.NewMongo[houses.House](db, store.CollectionHouses),
		store.NewMongo[houses.Booking](db, store.CollectionBookings),
		store.NewMongoQuota(db, store.CollectionBookingQuotas),
	)

	h := httpapi.Handlers{
		Auth:   authManager,
		Roles:  rbac.NewResolver(userColl),
		Users:  userColl,
		Houses: houseSvc,
		Audit:  auditSvc,
		Health: utils.MongoHealthcheck(client),
	}

	// Issuance rate limiting is optional and only enabled with REDIS_URL.
	var issueLimiter gin.HandlerFunc
	if cfg.RateLimitEnabled() {
		rdb, err := utils.OpenRedis(ctx, utils.RedisConfig{URL: cfg.Redis.URL})
		if err != nil {
			return fmt.Errorf("redis init: %w", err)
		}
		defer rdb.Close()

		issueLimiter = ratelimit.Middleware(
			ratelimit.NewRedisCounter(rdb, "househunter:jwt"),
			cfg.RateLimit.Limit,
			cfg.RateLimit.Window,
			ratelimit.ByClientIP,
		)
		log.Info("token issuance rate limit enabled", "limit", cfg.RateLimit.Limit, "window", cfg.RateLimit.Window)
	}

	r := newRouter(log, cfg.App.CORSOrigins)
	h.Register(r, issueLimiter)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	default:
		return nil
	}
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/tazhibayda/chat-service/docs"
	"github.com/tazhibayda/chat-service/internal/config"
	api "github.com/tazhibayda/chat-service/internal/http"
	"github.com/tazhibayda/chat-service/internal/log"
	"github.com/tazhibayda/chat-service/internal/metrics"
	"github.com/tazhibayda/chat-service/internal/queue"
	"github.com/tazhibayda/chat-service/internal/repo"
)

// @title Chat Service API
// @version 0.1.0
// @description Chat session CRUD plus the identity provider sync webhook.
// @schemes http https
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()

	logger, err := log.Init(cfg.Production)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	metrics.MustRegister()

	// the store connects lazily on first use; ping here only to warn
	// early when Mongo is unreachable or unconfigured
	store := repo.NewStore(cfg.MongoURI, cfg.MongoDB)
	defer store.Close(context.Background())

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := store.Ping(pingCtx); err != nil {
		logger.Warn("mongo not reachable at startup, will retry on demand", zap.Error(err))
	} else if err := store.EnsureIndexes(pingCtx); err != nil {
		logger.Warn("ensure indexes failed", zap.Error(err))
	}
	cancel()

	var rds *repo.Redis
	if cfg.RedisAddr != "" {
		rds = NewRedisOrNil(cfg.RedisAddr, logger)
	}

	pub := queue.NewNoop()
	if cfg.RabbitURL != "" {
		p, err := queue.NewRabbit(cfg.RabbitURL, queue.Exchange)
		if err != nil {
			logger.Warn("rabbit unavailable, events disabled", zap.Error(err))
		} else {
			pub = p
		}
	}
	defer pub.Close()

	h := api.NewHandler(store, cfg.SigningSecret, pub)
	r := api.NewRouter(h, cfg.JWTSecret, rds, cfg.RateLimitPerMin)

	srvErr := make(chan error, 1)
	go func() { srvErr <- r.Run(":" + cfg.Port) }()

	logger.Info("chat-service listening", zap.String("port", cfg.Port))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		logger.Info("signal received, shutting down", zap.String("signal", s.String()))
	case err := <-srvErr:
		logger.Error("server error", zap.Error(err))
	}
}

// NewRedisOrNil pings the configured Redis once; a dead Redis only
// disables rate limiting, it never blocks startup.
func NewRedisOrNil(addr string, logger *zap.Logger) *repo.Redis {
	rds := repo.NewRedis(addr)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rds.Ping(ctx); err != nil {
		logger.Warn("redis unavailable, rate limiting disabled", zap.Error(err))
		_ = rds.Close()
		return nil
	}
	return rds
}

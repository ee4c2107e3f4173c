// Package main is the entry point for the casino server.
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
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"casino-server/internal/config"
	"casino-server/internal/handler"
	"casino-server/internal/middleware"
	"casino-server/internal/pkg/db"
	"casino-server/internal/pkg/lock"
	"casino-server/internal/repository"
	"casino-server/internal/service"
	"casino-server/internal/session"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if cfg.Server.JWTSecret == "" {
		log.Fatal().Msg("server.jwt_secret is required")
	}

	log.Info().Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, cleanup, err := newStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	defer cleanup()

	sessions, sessionCleanup, err := newSessionStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize session store")
	}
	defer sessionCleanup()

	userLock := lock.NewUserLock()
	logger := log.Logger

	accountService := service.NewAccountService(store, cfg.Account.StartingBalance)
	diceService := service.NewDiceService(store, userLock, cfg.Games.MaxBet, logger)
	minesService := service.NewMinesService(store, sessions, userLock, cfg.Games.MaxBet, logger)
	blackjackService := service.NewBlackjackService(store, sessions, userLock, cfg.Games.MaxBet, logger)

	h := handler.New(accountService, diceService, minesService, blackjackService, logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.RequestLogger(logger), gin.Recovery())
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	h.RegisterRoutes(router, cfg.Server.JWTSecret)

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server is starting...")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
	log.Info().Msg("Server stopped gracefully")
}

// newStore picks the storage backend. "memory" runs without PostgreSQL
// and keeps everything in process; anything else connects a pool and
// applies migrations.
func newStore(ctx context.Context, cfg *config.Config) (service.Gateway, func(), error) {
	if cfg.Database.Driver == "memory" {
		log.Warn().Msg("Using in-memory storage; data will not survive a restart")
		return repository.NewMemoryStore(), func() {}, nil
	}

	pool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if err := repository.Migrate(ctx, pool.Pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return repository.NewStore(pool.Pool), pool.Close, nil
}

// newSessionStore picks the game-session backend.
func newSessionStore(ctx context.Context, cfg *config.Config) (session.Store, func(), error) {
	if cfg.Session.Backend == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Session.Redis.Addr,
			Password: cfg.Session.Redis.Password,
			DB:       cfg.Session.Redis.DB,
		})
		store, err := session.NewRedisStore(ctx, client, cfg.Session.TTL)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return store, func() { _ = client.Close() }, nil
	}

	store := session.NewMemoryStore(cfg.Session.TTL)
	return store, store.Close, nil
}

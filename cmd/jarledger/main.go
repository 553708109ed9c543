package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/moneyjar/jarledger/internal/api"
	mongostore "github.com/moneyjar/jarledger/internal/infrastructure/db/mongo"
	redisstore "github.com/moneyjar/jarledger/internal/infrastructure/db/redis"
	"github.com/moneyjar/jarledger/internal/pkg/config"
	"github.com/moneyjar/jarledger/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.IsDevelopment(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoClient, db, err := mongostore.Connect(ctx, mongostore.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongodb disconnect failed")
		}
	}()

	if err := ensureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("index creation failed")
	}

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()

	e := api.NewRouter(db, rdb, cfg.JWTSecret, cfg.TokenTTL, log)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("jarledger listening")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// ensureIndexes creates the collections' indexes up front so the unique and
// sort guarantees hold from the first request.
func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	if err := mongostore.NewUserRepository(db).EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := mongostore.NewJarRepository(db).EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := mongostore.NewTransactionRepository(db).EnsureIndexes(ctx); err != nil {
		return err
	}
	return mongostore.NewMemberRepository(db).EnsureIndexes(ctx)
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/honeynil/conduit/internal/api"
	"github.com/honeynil/conduit/internal/config"
	"github.com/honeynil/conduit/internal/handler"
	"github.com/honeynil/conduit/internal/infrastructure/auth"
	"github.com/honeynil/conduit/internal/infrastructure/kafka"
	"github.com/honeynil/conduit/internal/infrastructure/redis"
	"github.com/honeynil/conduit/internal/observability"
	"github.com/honeynil/conduit/internal/repository/postgres"
	service "github.com/honeynil/conduit/internal/services"
)

const serviceName = "conduit"

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Инициализируем логи, метрики, трейсы
	shutdownObservability := observability.Setup(ctx, serviceName, cfg)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownObservability(shutdownCtx); err != nil {
			slog.Error("observability shutdown failed", "error", err)
		}
	}()

	db, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	var cache redis.Cache
	if cfg.RedisAddr != "" {
		client, err := redis.NewClient(ctx, cfg.RedisAddr)
		if err != nil {
			slog.Warn("running without tag cache", "error", err)
		} else {
			cache = client
			defer client.Close()
		}
	}

	var publisher kafka.Publisher = kafka.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		producer := kafka.NewProducer(cfg.KafkaBrokers)
		defer producer.Close()
		publisher = producer
	}

	userRepo := postgres.NewPostgresUserRepository(db)
	followRepo := postgres.NewPostgresFollowRepository(db)
	articleRepo := postgres.NewPostgresArticleRepository(db)
	tagRepo := postgres.NewPostgresTagRepository(db)

	secret := []byte(cfg.JWTSecret)
	issuer := auth.NewIssuer(secret, auth.RealClock{})
	gate := auth.NewGate(auth.NewVerifier(secret, auth.RealClock{}))
	hasher := auth.NewArgon2Hasher(auth.DefaultArgon2Params)

	tagService := service.NewTagService(tagRepo, cache, cfg.TagCacheTTL)
	h := handler.NewHandler(
		service.NewUserService(userRepo, hasher, issuer, publisher),
		service.NewProfileService(userRepo, followRepo),
		service.NewArticleService(articleRepo, tagService, publisher),
		tagService,
	)

	if len(cfg.KafkaBrokers) > 0 && cache != nil {
		consumer := kafka.NewConsumer(cfg.KafkaBrokers, serviceName+"-tag-cache", tagService)
		go consumer.Consume(ctx)
		defer consumer.Close()
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.SetupRouter(h, gate),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("server stopped")
	return nil
}

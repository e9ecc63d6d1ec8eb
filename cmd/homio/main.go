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

	"homio/internal/app/policies"
	"homio/internal/domain/payment"
	rediscache "homio/internal/infra/cache/redis"
	"homio/internal/infra/broker/kafka"
	"homio/internal/infra/config"
	mongodb "homio/internal/infra/db/mongo"
	ginserver "homio/internal/infra/http/gin"
	"homio/internal/infra/obs"
	infraoutbox "homio/internal/infra/outbox"
	"homio/internal/infra/payments/razorpay"
	"homio/internal/infra/storage/memory"
	"homio/internal/infra/storage/s3"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "homio:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := obs.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	infra, rt, err := buildInfrastructure(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.close(logger)

	app := buildApplication(infra, settings{
		Currency:   cfg.Payments.Currency,
		KeyID:      cfg.Payments.KeyID,
		SessionTTL: cfg.SessionTTL,
	}, logger)

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Checks: rt.checks}, app.handlers)

	if rt.worker != nil {
		go func() {
			if err := rt.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	logger.Info("HTTP server stopped")
	return nil
}

// resources holds the process-level pieces that are not use-case dependencies.
type resources struct {
	checks  map[string]obs.Check
	worker  *infraoutbox.Worker
	closers []func(context.Context) error
}

func (rt *resources) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](ctx); err != nil {
			logger.Warn("shutdown step failed", "error", err)
		}
	}
}

func buildInfrastructure(ctx context.Context, cfg config.Config, logger *slog.Logger) (infrastructure, *resources, error) {
	rt := &resources{checks: map[string]obs.Check{}}
	infra := infrastructure{
		Gateway: &razorpay.Client{
			BaseURL:   cfg.Payments.APIURL,
			KeyID:     cfg.Payments.KeyID,
			KeySecret: cfg.Payments.KeySecret,
			Timeout:   cfg.Payments.Timeout,
			HTTP:      &http.Client{},
			Logger:    logger,
		},
		Verifier: payment.HMACVerifier{Secret: cfg.Payments.KeySecret},
		Clock:    func() time.Time { return time.Now().UTC() },
	}

	switch cfg.StorageMode {
	case config.StorageMongo:
		if err := wireMongo(ctx, cfg, logger, &infra, rt); err != nil {
			rt.close(logger)
			return infrastructure{}, nil, err
		}
	default:
		factory := memory.NewFactory()
		infra.Factory = factory
		infra.Users = factory.UsersRepo
		infra.Sessions = memory.NewSessionStore()
		infra.Outbox = memory.NewOutbox()
		idem := memory.NewIdempotencyStore()
		idem.TTL = cfg.IdempotencyTTL
		infra.Idempotency = idem
		logger.Warn("using in-memory storage; data is lost on restart")
	}

	if cfg.RedisAddr != "" {
		client, err := rediscache.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			rt.close(logger)
			return infrastructure{}, nil, fmt.Errorf("redis: %w", err)
		}
		rt.closers = append(rt.closers, func(context.Context) error { return client.Close() })
		rt.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		infra.Idempotency = rediscache.NewIdempotencyStore(client, cfg.IdempotencyTTL)
	}

	images, err := buildImageStore(cfg, logger, rt)
	if err != nil {
		rt.close(logger)
		return infrastructure{}, nil, err
	}
	infra.Images = images
	return infra, rt, nil
}

func wireMongo(ctx context.Context, cfg config.Config, logger *slog.Logger, infra *infrastructure, rt *resources) error {
	client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return fmt.Errorf("mongo: %w", err)
	}
	rt.closers = append(rt.closers, client.Close)
	rt.checks["mongo"] = client.Ping
	if err := client.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("mongo indexes: %w", err)
	}

	factory := mongodb.NewFactory(client.DB)
	infra.Factory = factory
	infra.Users = factory.UsersRepo
	infra.Sessions = mongodb.NewSessionStore(client.DB)

	idem, err := mongodb.NewIdempotencyStore(ctx, client.DB, cfg.IdempotencyTTL)
	if err != nil {
		return fmt.Errorf("mongo idempotency: %w", err)
	}
	infra.Idempotency = idem

	store := infraoutbox.NewStore(client.DB)
	if err := store.EnsureIndexes(ctx, 7*24*time.Hour); err != nil {
		return fmt.Errorf("outbox indexes: %w", err)
	}
	infra.Outbox = store

	var producer infraoutbox.Producer = infraoutbox.LogProducer{Logger: logger}
	if len(cfg.KafkaBrokers) > 0 {
		p, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return fmt.Errorf("kafka: %w", err)
		}
		rt.closers = append(rt.closers, func(context.Context) error { return p.Close() })
		producer = p
	} else {
		logger.Info("kafka not configured; outbox events are logged only")
	}
	rt.worker = &infraoutbox.Worker{
		Queue:       store,
		Producer:    producer,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Backoff:     cfg.RetryBackoff,
		Logger:      logger,
	}
	return nil
}

func buildImageStore(cfg config.Config, logger *slog.Logger, rt *resources) (policies.ImageStore, error) {
	if !cfg.S3.Enabled() {
		logger.Info("image store not configured; listing photo uploads are disabled")
		return nil, nil
	}
	store, err := s3.NewImageStore(cfg.S3, logger)
	if err != nil {
		return nil, err
	}
	rt.checks["s3"] = store.Ping
	return store, nil
}

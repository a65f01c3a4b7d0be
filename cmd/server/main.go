package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	httpAdapter "github.com/iho/palletledger/internal/adapter/http"
	"github.com/iho/palletledger/internal/adapter/http/handler"
	"github.com/iho/palletledger/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/palletledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/palletledger/internal/adapter/repository/redis"
	"github.com/iho/palletledger/internal/infrastructure/auth"
	"github.com/iho/palletledger/internal/infrastructure/config"
	"github.com/iho/palletledger/internal/infrastructure/eventpublisher"
	"github.com/iho/palletledger/internal/infrastructure/logger"
	"github.com/iho/palletledger/internal/infrastructure/metrics"
	"github.com/iho/palletledger/internal/infrastructure/postgres"
	"github.com/iho/palletledger/internal/infrastructure/redis"
	"github.com/iho/palletledger/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	if cfg.MigrateOnStart {
		if err := postgres.NewMigrator(cfg.DatabaseURL, cfg.MigrationsPath, log).Up(); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseConnectTimeout,
		Logger:         &log,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	txManager := postgresRepo.NewTxManager(pool)
	partnerRepo := postgresRepo.NewPartnerRepository(pool)
	entryRepo := postgresRepo.NewEntryRepository(pool)
	closureRepo := postgresRepo.NewClosureRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()

	var outboxRepo usecase.OutboxRepository = postgresRepo.NewNullOutboxRepository()
	if cfg.OutboxEnabled {
		outboxRepo = postgresRepo.NewOutboxRepository(pool)
	}

	opts := usecase.Options{
		Clock:        usecase.SystemClock{Location: loc},
		Metrics:      m,
		Logger:       &log,
		DefaultActor: cfg.DefaultActor,
	}

	var (
		redisClient      *goredis.Client
		idempotencyStore usecase.IdempotencyStore
		redisPinger      handler.Pinger
	)
	if cfg.RedisEnabled {
		redisClient, err = redis.NewClientWithConfig(ctx, redis.ClientConfig{
			URL:            cfg.RedisURL,
			ConnectTimeout: cfg.DatabaseConnectTimeout,
			Logger:         log,
		})
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer redisClient.Close()
		log.Info().Msg("connected to redis")

		opts.Cache = redisRepo.NewBalanceCache(redisClient, cfg.BalanceCacheTTL)
		opts.Locker = redisRepo.NewPartnerLocker(redisClient, redisRepo.DefaultLockOptions(), log)
		idempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
		redisPinger = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	balanceUC := usecase.NewBalanceUseCase(txManager, partnerRepo, entryRepo, closureRepo, opts)
	partnerUC := usecase.NewPartnerUseCase(txManager, partnerRepo, outboxRepo, balanceUC, idGen, opts)
	entryUC := usecase.NewEntryUseCase(txManager, partnerRepo, entryRepo, closureRepo, outboxRepo, idGen, opts)
	closureUC := usecase.NewClosureUseCase(txManager, partnerRepo, entryRepo, closureRepo, outboxRepo, idGen, opts)
	reconUC := usecase.NewReconciliationUseCase(txManager, partnerRepo, entryRepo, closureRepo, opts)

	routerCfg := httpAdapter.RouterConfig{
		PartnerHandler:   handler.NewPartnerHandler(partnerUC),
		EntryHandler:     handler.NewEntryHandler(entryUC),
		ClosureHandler:   handler.NewClosureHandler(closureUC, reconUC, opts.Clock),
		BalanceHandler:   handler.NewBalanceHandler(balanceUC, partnerUC, opts.Clock),
		HealthHandler:    handler.NewHealthHandler(handler.PingFunc(pool.Ping), redisPinger),
		Logger:           log,
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		Metrics:          m,
		MetricsHandler:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
	}

	if cfg.RateLimitRPS > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)
		go limiter.StartCleanup(ctx, 10*time.Minute)
		routerCfg.RateLimiter = limiter
	}

	verifier, err := tokenVerifier(cfg)
	if err != nil {
		return err
	}
	if verifier != nil {
		routerCfg.TokenVerifier = verifier
		log.Info().Msg("bearer authentication enabled")
	}

	if cfg.OutboxEnabled {
		publisher, closePublisher := newPublisher(cfg, log)
		defer closePublisher()

		ep := eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: outboxRepo,
			Publisher:  publisher,
			Recorder:   m,
			Logger:     log,
			BatchSize:  cfg.OutboxBatchSize,
			Interval:   cfg.OutboxPollInterval,
			Retention:  cfg.OutboxRetention,
		})
		go func() {
			if err := ep.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("event publisher stopped")
			}
		}()
	}

	server := newServer(cfg, httpAdapter.NewRouter(routerCfg))

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Str("timezone", loc.String()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

func newServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      h,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}
}

// tokenVerifier returns nil when authentication is switched off.
func tokenVerifier(cfg *config.Config) (middleware.TokenVerifier, error) {
	if !cfg.AuthEnabled {
		return nil, nil
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("AUTH_ENABLED requires JWT_SECRET")
	}
	return auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration), nil
}

// newPublisher picks Kafka when brokers are configured and the log
// otherwise. The returned func releases the publisher.
func newPublisher(cfg *config.Config, log zerolog.Logger) (eventpublisher.Publisher, func()) {
	if len(cfg.KafkaBrokers) == 0 {
		log.Info().Msg("no kafka brokers configured, outbox events go to the log")
		return eventpublisher.NewLogPublisher(log), func() {}
	}

	kp := eventpublisher.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("publishing outbox events to kafka")

	bp := eventpublisher.NewBreakerPublisher(kp, eventpublisher.BreakerConfig{
		Name: "kafka",
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})

	return bp, func() {
		if err := kp.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close kafka writer")
		}
	}
}

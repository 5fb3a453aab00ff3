package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	ordershttp "github.com/kirangajul/e-commerce-microservices/orders-service/internal/http"
	"github.com/kirangajul/e-commerce-microservices/orders-service/internal/publisher"
	"github.com/kirangajul/e-commerce-microservices/orders-service/internal/repository"
	"github.com/kirangajul/e-commerce-microservices/orders-service/internal/service"
	"github.com/kirangajul/e-commerce-microservices/pkg/auth"
	"github.com/kirangajul/e-commerce-microservices/pkg/circuitbreaker"
	"github.com/kirangajul/e-commerce-microservices/pkg/env"
	"github.com/kirangajul/e-commerce-microservices/pkg/httpx"
	"github.com/kirangajul/e-commerce-microservices/pkg/logger"
	"github.com/kirangajul/e-commerce-microservices/pkg/metrics"
	"github.com/kirangajul/e-commerce-microservices/pkg/remote"
	"github.com/kirangajul/e-commerce-microservices/pkg/retry"
	"github.com/kirangajul/e-commerce-microservices/pkg/telemetry"
	"go.uber.org/zap"
)

const serviceName = "orders-service"

type Config struct {
	Env                   string
	HTTPPort              string
	DB                    repository.Credentials
	UserServiceURL        string
	ProductServiceURL     string
	RemoteTimeout         time.Duration
	ValidationTimeout     time.Duration
	ValidationConcurrency int
	EnrichConcurrency     int
	EnrichTimeout         time.Duration
	RequestTimeout        time.Duration
	ShutdownTimeout       time.Duration
	KafkaBrokers          []string
	KafkaTopic            string
	OutboxInterval        time.Duration
	OTLPEndpoint          string
}

func loadConfig() *Config {
	userURL := env.String("USER_SERVICE_URL", "http://localhost:8084")
	return &Config{
		Env:      env.String("APP_ENV", "development"),
		HTTPPort: env.String("HTTP_PORT", "8082"),
		DB: repository.Credentials{
			Host:              env.String("DB_HOST", "localhost"),
			Port:              env.Int("DB_PORT", 5432),
			User:              env.String("DB_USER", "postgres"),
			Password:          env.String("DB_PASSWORD", "postgres"),
			DBName:            env.String("DB_NAME", "ecommerce"),
			SSLMode:           env.String("DB_SSLMODE", "disable"),
			MigrationsDirPath: env.String("MIGRATIONS_PATH", "./internal/repository/migrations"),
		},
		UserServiceURL:        userURL,
		ProductServiceURL:     env.String("PRODUCT_SERVICE_URL", "http://localhost:8083"),
		RemoteTimeout:         env.Duration("REMOTE_TIMEOUT", 2*time.Second),
		ValidationTimeout:     env.Duration("VALIDATION_TIMEOUT", 2*time.Second),
		ValidationConcurrency: env.Int("VALIDATION_CONCURRENCY", 64),
		EnrichConcurrency:     env.Int("ENRICH_CONCURRENCY", service.DefaultConcurrency),
		EnrichTimeout:         env.Duration("ENRICH_TIMEOUT", service.DefaultEnrichTimeout),
		RequestTimeout:        env.Duration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout:       env.Duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		KafkaBrokers:          splitList(env.String("KAFKA_BROKERS", "")),
		KafkaTopic:            env.String("KAFKA_TOPIC", publisher.DefaultTopic),
		OutboxInterval:        env.Duration("OUTBOX_INTERVAL", time.Second),
		OTLPEndpoint:          env.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func main() {
	cfg := loadConfig()

	log := logger.Must(serviceName, cfg.Env)
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	if err := run(cfg, log); err != nil {
		log.Fatal("orders-service stopped with error", zap.Error(err))
	}
}

func run(cfg *Config, log *zap.Logger) error {
	ctx := context.Background()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName: serviceName,
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    true,
	})
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	reg := metrics.NewRegistry()
	remoteMetrics := metrics.NewRemote(reg, "orders")

	repo, err := repository.NewRepository(&cfg.DB, log)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(&cfg.DB); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	log.Info("database migrations completed")

	lookups := remote.NewClient(remote.Config{
		UserServiceURL:    cfg.UserServiceURL,
		ProductServiceURL: cfg.ProductServiceURL,
		Timeout:           cfg.RemoteTimeout,
		Retry:             retry.DefaultConfig(),
		Breaker:           circuitbreaker.DefaultConfig(),
	}, nil, remoteMetrics, log)

	validator := auth.NewValidator(auth.ValidatorConfig{
		AuthorityURL:  cfg.UserServiceURL,
		Timeout:       cfg.ValidationTimeout,
		MaxConcurrent: int64(cfg.ValidationConcurrency),
	}, nil, remoteMetrics)

	cascade := service.NewCascadeWriter(repo)
	enrich := service.EnrichConfig{Concurrency: cfg.EnrichConcurrency, Timeout: cfg.EnrichTimeout}
	if enrich.Timeout <= 0 || enrich.Timeout >= cfg.RequestTimeout {
		// lookups must give up before the request does
		enrich.Timeout = cfg.RequestTimeout * 2 / 3
		log.Warn("ENRICH_TIMEOUT not below REQUEST_TIMEOUT, clamped", zap.Duration("enrich_timeout", enrich.Timeout))
	}
	carts := service.NewCartService(repo, cascade, lookups, enrich)
	orders := service.NewOrderService(repo, lookups, enrich)

	r := httpx.NewRouter(httpx.RouterConfig{
		Logger:         log,
		Metrics:        metrics.NewHTTP(reg, "orders"),
		Gatherer:       reg,
		RequestTimeout: cfg.RequestTimeout,
	})
	ordershttp.Register(r, validator,
		ordershttp.NewOrdersHandler(orders, cfg.RequestTimeout),
		ordershttp.NewCartHandler(carts, cfg.RequestTimeout),
	)

	var wg sync.WaitGroup
	pollerCtx, stopPoller := context.WithCancel(ctx)
	defer func() {
		stopPoller()
		wg.Wait()
	}()

	if len(cfg.KafkaBrokers) > 0 {
		poller := publisher.NewOutboxPoller(repo,
			publisher.NewWriter(cfg.KafkaTopic, cfg.KafkaBrokers...),
			cfg.OutboxInterval, log.Named("outbox"))
		wg.Add(1)
		go func() {
			defer wg.Done()
			poller.Run(pollerCtx)
		}()
		log.Info("outbox publisher started", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	} else {
		log.Warn("KAFKA_BROKERS not set, cart events stay in the outbox")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      httpx.Instrument(serviceName, r),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return httpx.Run(srv, cfg.ShutdownTimeout, log)
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kirangajul/e-commerce-microservices/pkg/env"
	"github.com/kirangajul/e-commerce-microservices/pkg/httpx"
	"github.com/kirangajul/e-commerce-microservices/pkg/logger"
	"github.com/kirangajul/e-commerce-microservices/pkg/metrics"
	"github.com/kirangajul/e-commerce-microservices/pkg/telemetry"
	"github.com/kirangajul/e-commerce-microservices/product-service/internal/cache"
	producthttp "github.com/kirangajul/e-commerce-microservices/product-service/internal/http"
	"github.com/kirangajul/e-commerce-microservices/product-service/internal/repository"
	"github.com/kirangajul/e-commerce-microservices/product-service/internal/service"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const serviceName = "product-service"

type Config struct {
	Env             string
	HTTPPort        string
	DBPath          string
	MigrationsPath  string
	RedisAddr       string
	RedisPassword   string
	CacheTTL        time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	OTLPEndpoint    string
}

func loadConfig() *Config {
	return &Config{
		Env:             env.String("APP_ENV", "development"),
		HTTPPort:        env.String("HTTP_PORT", "8083"),
		DBPath:          env.String("DB_PATH", "./products.db"),
		MigrationsPath:  env.String("MIGRATIONS_PATH", "./internal/repository/migrations"),
		RedisAddr:       env.String("REDIS_ADDR", ""),
		RedisPassword:   env.String("REDIS_PASSWORD", ""),
		CacheTTL:        env.Duration("CACHE_TTL", cache.DefaultTTL),
		RequestTimeout:  env.Duration("REQUEST_TIMEOUT", 10*time.Second),
		ShutdownTimeout: env.Duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		OTLPEndpoint:    env.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
}

func main() {
	cfg := loadConfig()

	log := logger.Must(serviceName, cfg.Env)
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	if err := run(cfg, log); err != nil {
		log.Fatal("product-service stopped with error", zap.Error(err))
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
	defer func() { _ = shutdownTracing(context.Background()) }()

	repo, err := repository.NewRepository(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.RunMigrations(cfg.MigrationsPath); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	log.Info("catalogue migrations completed", zap.String("db_path", cfg.DBPath))

	reg := metrics.NewRegistry()

	var productCache cache.ProductCache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		productCache = cache.NewRedisCache(redisClient, cfg.CacheTTL)
		log.Info("product cache enabled", zap.String("redis_addr", cfg.RedisAddr))
	} else {
		log.Warn("REDIS_ADDR not set, product cache disabled")
	}

	products := service.NewProductService(repo, productCache, metrics.NewCache(reg, "product"))
	categories := service.NewCategoryService(repo)

	r := httpx.NewRouter(httpx.RouterConfig{
		Logger:         log,
		Metrics:        metrics.NewHTTP(reg, "product"),
		Gatherer:       reg,
		RequestTimeout: cfg.RequestTimeout,
	})
	producthttp.Register(r,
		producthttp.NewProductHandler(products, cfg.RequestTimeout),
		producthttp.NewCategoryHandler(categories, cfg.RequestTimeout),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      httpx.Instrument(serviceName, r),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return httpx.Run(srv, cfg.ShutdownTimeout, log)
}

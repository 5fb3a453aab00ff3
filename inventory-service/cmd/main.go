package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	inventoryhttp "github.com/kirangajul/e-commerce-microservices/inventory-service/internal/http"
	"github.com/kirangajul/e-commerce-microservices/inventory-service/internal/store"
	"github.com/kirangajul/e-commerce-microservices/pkg/auth"
	"github.com/kirangajul/e-commerce-microservices/pkg/env"
	"github.com/kirangajul/e-commerce-microservices/pkg/httpx"
	"github.com/kirangajul/e-commerce-microservices/pkg/logger"
	"github.com/kirangajul/e-commerce-microservices/pkg/metrics"
	"github.com/kirangajul/e-commerce-microservices/pkg/telemetry"
	"go.uber.org/zap"
)

const serviceName = "inventory-service"

type Config struct {
	Env                   string
	HTTPPort              string
	DBPath                string
	MigrationsPath        string
	UserServiceURL        string
	ValidationTimeout     time.Duration
	ValidationConcurrency int
	StrictAuth            bool
	RequestTimeout        time.Duration
	ShutdownTimeout       time.Duration
	OTLPEndpoint          string
}

func loadConfig() *Config {
	return &Config{
		Env:                   env.String("APP_ENV", "development"),
		HTTPPort:              env.String("HTTP_PORT", "8081"),
		DBPath:                env.String("DB_PATH", "./inventory.db"),
		MigrationsPath:        env.String("MIGRATIONS_PATH", "./internal/store/migrations"),
		UserServiceURL:        env.String("USER_SERVICE_URL", "http://localhost:8084"),
		ValidationTimeout:     env.Duration("VALIDATION_TIMEOUT", 2*time.Second),
		ValidationConcurrency: env.Int("VALIDATION_CONCURRENCY", 64),
		StrictAuth:            env.Bool("INVENTORY_STRICT_AUTH", false),
		RequestTimeout:        env.Duration("REQUEST_TIMEOUT", 10*time.Second),
		ShutdownTimeout:       env.Duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		OTLPEndpoint:          env.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
}

func main() {
	cfg := loadConfig()

	log := logger.Must(serviceName, cfg.Env)
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	if err := run(cfg, log); err != nil {
		log.Fatal("inventory-service stopped with error", zap.Error(err))
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

	st, err := store.NewSQLiteStore(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.RunMigrations(cfg.MigrationsPath); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	log.Info("inventory migrations completed", zap.String("db_path", cfg.DBPath))

	reg := metrics.NewRegistry()
	validator := auth.NewValidator(auth.ValidatorConfig{
		AuthorityURL:  cfg.UserServiceURL,
		Timeout:       cfg.ValidationTimeout,
		MaxConcurrent: int64(cfg.ValidationConcurrency),
	}, nil, metrics.NewRemote(reg, "inventory"))

	r := httpx.NewRouter(httpx.RouterConfig{
		Logger:         log,
		Metrics:        metrics.NewHTTP(reg, "inventory"),
		Gatherer:       reg,
		RequestTimeout: cfg.RequestTimeout,
	})
	inventoryhttp.NewInventoryHandler(st, validator, cfg.RequestTimeout, cfg.StrictAuth).Register(r)
	if !cfg.StrictAuth {
		log.Info("strict auth disabled, rejected tokens get the empty stock reply")
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

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
	userhttp "github.com/kirangajul/e-commerce-microservices/user-service/internal/http"
	"github.com/kirangajul/e-commerce-microservices/user-service/internal/repository"
	"github.com/kirangajul/e-commerce-microservices/user-service/internal/service"
	"github.com/kirangajul/e-commerce-microservices/user-service/internal/token"
	"go.uber.org/zap"
)

const serviceName = "user-service"

type Config struct {
	Env             string
	HTTPPort        string
	MongoURI        string
	MongoDatabase   string
	JWTSecret       string
	TokenTTL        time.Duration
	BcryptCost      int
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	OTLPEndpoint    string
}

func loadConfig() *Config {
	return &Config{
		Env:             env.String("APP_ENV", "development"),
		HTTPPort:        env.String("HTTP_PORT", "8084"),
		MongoURI:        env.String("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:   env.String("MONGO_DB", "users"),
		JWTSecret:       env.String("JWT_SECRET", ""),
		TokenTTL:        env.Duration("JWT_TTL", time.Hour),
		BcryptCost:      env.Int("BCRYPT_COST", 0),
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
		log.Fatal("user-service stopped with error", zap.Error(err))
	}
}

func run(cfg *Config, log *zap.Logger) error {
	ctx := context.Background()

	tokens, err := token.NewManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return fmt.Errorf("JWT_SECRET: %w", err)
	}

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName: serviceName,
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    true,
	})
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	db, err := repository.OpenUserStore(ctx, repository.MongoConfig{
		URI:         cfg.MongoURI,
		Database:    cfg.MongoDatabase,
		AppName:     serviceName,
		DialTimeout: 15 * time.Second,
	})
	if err != nil {
		return err
	}
	defer func() { _ = db.Client().Disconnect(context.Background()) }()
	log.Info("connected to MongoDB", zap.String("database", cfg.MongoDatabase))

	repo := repository.NewMongoRepository(db)
	if err := repo.CreateIndexes(ctx); err != nil {
		return err
	}

	users := service.NewUserService(repo, tokens, cfg.BcryptCost)

	reg := metrics.NewRegistry()
	r := httpx.NewRouter(httpx.RouterConfig{
		Logger:         log,
		Metrics:        metrics.NewHTTP(reg, "user"),
		Gatherer:       reg,
		RequestTimeout: cfg.RequestTimeout,
	})
	userhttp.Register(r, tokens,
		userhttp.NewAuthHandler(users, cfg.RequestTimeout),
		userhttp.NewManagerHandler(users, cfg.RequestTimeout),
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

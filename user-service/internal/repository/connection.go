package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// MongoConfig describes the user store connection. Zero values take the
// defaults below.
type MongoConfig struct {
	URI         string
	Database    string
	AppName     string
	MaxPoolSize uint64
	// DialTimeout bounds both connecting and the first primary ping.
	DialTimeout time.Duration
}

const (
	defaultUserDatabase = "users"
	defaultMaxPoolSize  = 50
	defaultDialTimeout  = 10 * time.Second
)

// OpenUserStore connects to MongoDB and returns the users database once the
// primary answers. Reads use the primary and writes wait for a majority, which
// the id counter relies on.
func OpenUserStore(ctx context.Context, cfg MongoConfig) (*mongo.Database, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo uri is empty")
	}
	if cfg.Database == "" {
		cfg.Database = defaultUserDatabase
	}
	if cfg.MaxPoolSize == 0 {
		cfg.MaxPoolSize = defaultMaxPoolSize
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultDialTimeout
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName(cfg.AppName).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetConnectTimeout(cfg.DialTimeout).
		SetServerSelectionTimeout(cfg.DialTimeout).
		SetReadPreference(readpref.Primary()).
		SetWriteConcern(writeconcern.Majority())

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect user store: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("ping user store primary: %w", err)
	}

	return client.Database(cfg.Database), nil
}

package service

import (
	"context"
	"time"

	"github.com/kirangajul/e-commerce-microservices/pkg/remote"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultConcurrency   = 16
	DefaultEnrichTimeout = 10 * time.Second
)

// EnrichConfig bounds the remote lookups of one read. Timeout is a budget for
// all of them together; items still pending when it runs out keep their
// placeholders. It should be shorter than the request deadline.
type EnrichConfig struct {
	Concurrency int
	Timeout     time.Duration
}

func (c EnrichConfig) budget(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.Timeout)
}

type UserFetcher interface {
	FetchUser(ctx context.Context, id int64, authorization string) (remote.User, error)
}

type ProductFetcher interface {
	FetchProduct(ctx context.Context, id int64) (remote.Product, error)
}

// enrichAll applies enrich to every item with at most cfg.Concurrency calls in
// flight. Each call writes its own slot, so the result keeps the order of
// items and one failure never cancels the others.
func enrichAll[T, R any](ctx context.Context, items []T, cfg EnrichConfig, enrich func(context.Context, T) R) []R {
	out := make([]R, len(items))
	if len(items) == 0 {
		return out
	}
	limit := cfg.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	ctx, cancel := cfg.budget(ctx)
	defer cancel()

	var g errgroup.Group
	g.SetLimit(limit)
	for i, item := range items {
		g.Go(func() error {
			out[i] = enrich(ctx, item)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kirangajul/e-commerce-microservices/pkg/apperr"
	"github.com/kirangajul/e-commerce-microservices/pkg/logger"
	"github.com/kirangajul/e-commerce-microservices/pkg/metrics"
	"github.com/kirangajul/e-commerce-microservices/product-service/internal/cache"
	"github.com/kirangajul/e-commerce-microservices/product-service/internal/domain"
	"github.com/kirangajul/e-commerce-microservices/product-service/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ProductService reads products through the cache and invalidates on every write.
type ProductService struct {
	repo    repository.ProductRepository
	cache   cache.ProductCache
	metrics *metrics.Cache
	sfg     singleflight.Group

	// generations counts invalidations per product id. A read-through fill
	// that overlapped a write is dropped again.
	generations sync.Map
}

// NewProductService wires the service. A nil cache disables caching.
func NewProductService(repo repository.ProductRepository, c cache.ProductCache, m *metrics.Cache) *ProductService {
	return &ProductService{
		repo:    repo,
		cache:   c,
		metrics: m,
	}
}

func (s *ProductService) FindAll(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *ProductService) FindByID(ctx context.Context, id int64) (domain.Product, error) {
	if s.cache == nil {
		return s.repo.GetProduct(ctx, id)
	}

	v, err, _ := s.sfg.Do(strconv.FormatInt(id, 10), func() (any, error) {
		p, err := s.cache.Get(ctx, id)
		if err == nil {
			s.metrics.Inc("hit")
			return p, nil
		}
		if errors.Is(err, cache.ErrCacheMiss) {
			s.metrics.Inc("miss")
		} else {
			s.metrics.Inc("error")
			logger.FromContext(ctx).Warn("cache get error", zap.Int64("product_id", id), zap.Error(err))
		}

		gen := s.generation(id).Load()
		p, err = s.repo.GetProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		s.fill(ctx, p, gen)
		return p, nil
	})
	if err != nil {
		return domain.Product{}, err
	}
	return v.(domain.Product), nil
}

func (s *ProductService) Save(ctx context.Context, p domain.Product) (domain.Product, error) {
	if err := p.Validate(); err != nil {
		return domain.Product{}, err
	}
	p.ID = 0
	return s.repo.CreateProduct(ctx, p)
}

func (s *ProductService) SaveAll(ctx context.Context, ps []domain.Product) ([]domain.Product, error) {
	if len(ps) == 0 {
		return []domain.Product{}, nil
	}
	for i := range ps {
		if err := ps[i].Validate(); err != nil {
			return nil, apperr.Validation("product %d: %v", i, err)
		}
		ps[i].ID = 0
	}
	return s.repo.CreateProducts(ctx, ps)
}

// Patch applies the non-nil fields of patch to the stored product.
func (s *ProductService) Patch(ctx context.Context, patch domain.ProductPatch) (domain.Product, error) {
	if patch.ID <= 0 {
		return domain.Product{}, apperr.Validation("productId is required")
	}
	current, err := s.repo.GetProduct(ctx, patch.ID)
	if err != nil {
		return domain.Product{}, err
	}
	return s.write(ctx, patch.Apply(current))
}

// UpdateByID replaces every field of the product with the given id.
func (s *ProductService) UpdateByID(ctx context.Context, id int64, p domain.Product) (domain.Product, error) {
	p.ID = id
	return s.write(ctx, p)
}

func (s *ProductService) DeleteByID(ctx context.Context, id int64) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *ProductService) write(ctx context.Context, p domain.Product) (domain.Product, error) {
	if err := p.Validate(); err != nil {
		return domain.Product{}, err
	}
	updated, err := s.repo.UpdateProduct(ctx, p)
	if err != nil {
		return domain.Product{}, err
	}
	s.invalidate(ctx, p.ID)
	return updated, nil
}

func (s *ProductService) generation(id int64) *atomic.Uint64 {
	g, _ := s.generations.LoadOrStore(id, new(atomic.Uint64))
	return g.(*atomic.Uint64)
}

// fill caches p unless a write to the same product was committed since gen
// was taken. A write that lands between Set and the check is undone here.
func (s *ProductService) fill(ctx context.Context, p domain.Product, gen uint64) {
	setCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()

	g := s.generation(p.ID)
	if g.Load() != gen {
		return
	}
	if err := s.cache.Set(setCtx, p); err != nil {
		logger.FromContext(ctx).Warn("cache set error", zap.Int64("product_id", p.ID), zap.Error(err))
		return
	}
	if g.Load() != gen {
		if err := s.cache.Delete(setCtx, p.ID); err != nil {
			logger.FromContext(ctx).Warn("cache invalidate error", zap.Int64("product_id", p.ID), zap.Error(err))
		}
	}
}

func (s *ProductService) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	s.generation(id).Add(1)
	delCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := s.cache.Delete(delCtx, id); err != nil {
		logger.FromContext(ctx).Warn("cache invalidate error", zap.Int64("product_id", id), zap.Error(err))
	}
}

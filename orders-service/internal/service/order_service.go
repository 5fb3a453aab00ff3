package service

import (
	"context"

	"github.com/kirangajul/e-commerce-microservices/orders-service/internal/domain"
	"github.com/kirangajul/e-commerce-microservices/orders-service/internal/repository"
	"github.com/kirangajul/e-commerce-microservices/pkg/apperr"
	"github.com/kirangajul/e-commerce-microservices/pkg/logger"
	"github.com/kirangajul/e-commerce-microservices/pkg/paging"
	"github.com/kirangajul/e-commerce-microservices/pkg/remote"
	"go.uber.org/zap"
)

type OrderService struct {
	orders      repository.OrderRepository
	products    ProductFetcher
	lookup      EnrichConfig
}

func NewOrderService(orders repository.OrderRepository, products ProductFetcher, lookup EnrichConfig) *OrderService {
	return &OrderService{
		orders:      orders,
		products:    products,
		lookup:      lookup,
	}
}

func (s *OrderService) ListAll(ctx context.Context) ([]domain.EnrichedOrder, error) {
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	out := s.enrich(ctx, orders)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListPaged enriches only the requested page; the total still counts every order.
func (s *OrderService) ListPaged(ctx context.Context, spec paging.Spec) (paging.Page[domain.EnrichedOrder], error) {
	orders, total, err := s.orders.ListOrdersPage(ctx, spec)
	if err != nil {
		return paging.Page[domain.EnrichedOrder]{}, err
	}
	out := s.enrich(ctx, orders)
	if err := ctx.Err(); err != nil {
		return paging.Page[domain.EnrichedOrder]{}, err
	}
	return paging.NewPage(out, spec, total), nil
}

func (s *OrderService) FindByID(ctx context.Context, id int64) (domain.EnrichedOrder, error) {
	order, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		return domain.EnrichedOrder{}, err
	}
	lookupCtx, cancel := s.lookup.budget(ctx)
	defer cancel()
	return s.enrichOne(lookupCtx, order), nil
}

func (s *OrderService) Save(ctx context.Context, order domain.Order) (domain.Order, error) {
	if order.CartID <= 0 {
		return domain.Order{}, apperr.Validation("cartId must be positive")
	}
	if err := validateOrderFields(order); err != nil {
		return domain.Order{}, err
	}
	order.ID = 0
	return s.orders.CreateOrder(ctx, order)
}

func (s *OrderService) Update(ctx context.Context, order domain.Order) (domain.Order, error) {
	if order.ID <= 0 {
		return domain.Order{}, apperr.Validation("orderId is required")
	}
	if order.CartID <= 0 {
		return domain.Order{}, apperr.Validation("cartId must be positive")
	}
	if err := validateOrderFields(order); err != nil {
		return domain.Order{}, err
	}
	return s.orders.UpdateOrder(ctx, order)
}

func (s *OrderService) UpdateByID(ctx context.Context, id int64, order domain.Order) (domain.Order, error) {
	order.ID = id
	return s.Update(ctx, order)
}

// DeleteByID succeeds whether or not the order exists.
func (s *OrderService) DeleteByID(ctx context.Context, id int64) error {
	return s.orders.DeleteOrder(ctx, id)
}

func (s *OrderService) Exists(ctx context.Context, id int64) (bool, error) {
	return s.orders.OrderExists(ctx, id)
}

func (s *OrderService) enrich(ctx context.Context, orders []domain.Order) []domain.EnrichedOrder {
	return enrichAll(ctx, orders, s.lookup, s.enrichOne)
}

func (s *OrderService) enrichOne(ctx context.Context, order domain.Order) domain.EnrichedOrder {
	out := domain.EnrichedOrder{Order: order, Product: remote.Product{ID: order.ProductID}}
	product, err := s.products.FetchProduct(ctx, order.ProductID)
	if err != nil {
		logger.FromContext(ctx).Warn("product lookup failed, keeping placeholder",
			zap.Int64("order_id", order.ID),
			zap.Int64("product_id", order.ProductID),
			zap.Error(err),
		)
		return out
	}
	out.Product = product
	return out
}

func validateOrderFields(o domain.Order) error {
	if o.ProductID <= 0 {
		return apperr.Validation("productId must be positive")
	}
	if o.Fee < 0 {
		return apperr.Validation("orderFee must not be negative")
	}
	return nil
}

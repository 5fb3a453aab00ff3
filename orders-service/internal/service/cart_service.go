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

type CartService struct {
	carts       repository.CartRepository
	cascade     *CascadeWriter
	users       UserFetcher
	lookup      EnrichConfig
}

func NewCartService(carts repository.CartRepository, cascade *CascadeWriter, users UserFetcher, lookup EnrichConfig) *CartService {
	return &CartService{
		carts:       carts,
		cascade:     cascade,
		users:       users,
		lookup:      lookup,
	}
}

// ListAll returns every cart with its owner attached where the lookup succeeded.
func (s *CartService) ListAll(ctx context.Context, authorization string) ([]domain.EnrichedCart, error) {
	carts, err := s.carts.ListCarts(ctx)
	if err != nil {
		return nil, err
	}
	out := s.enrich(ctx, carts, authorization)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *CartService) ListPaged(ctx context.Context, spec paging.Spec, authorization string) (paging.Page[domain.EnrichedCart], error) {
	carts, total, err := s.carts.ListCartsPage(ctx, spec)
	if err != nil {
		return paging.Page[domain.EnrichedCart]{}, err
	}
	out := s.enrich(ctx, carts, authorization)
	if err := ctx.Err(); err != nil {
		return paging.Page[domain.EnrichedCart]{}, err
	}
	return paging.NewPage(out, spec, total), nil
}

// FindByID fails only when the cart itself is missing. A failed user lookup
// leaves the placeholder user in place.
func (s *CartService) FindByID(ctx context.Context, id int64, authorization string) (domain.EnrichedCart, error) {
	cart, err := s.carts.GetCart(ctx, id)
	if err != nil {
		return domain.EnrichedCart{}, err
	}
	lookupCtx, cancel := s.lookup.budget(ctx)
	defer cancel()
	return s.enrichOne(lookupCtx, cart, authorization), nil
}

func (s *CartService) Save(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	if err := validateCart(cart); err != nil {
		return domain.Cart{}, err
	}
	cart.ID = 0
	return s.carts.CreateCart(ctx, cart)
}

func (s *CartService) Update(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	if cart.ID <= 0 {
		return domain.Cart{}, apperr.Validation("cartId is required")
	}
	if err := validateCart(cart); err != nil {
		return domain.Cart{}, err
	}
	return s.carts.UpdateCart(ctx, cart)
}

func (s *CartService) UpdateByID(ctx context.Context, id int64, cart domain.Cart) (domain.Cart, error) {
	cart.ID = id
	return s.Update(ctx, cart)
}

func (s *CartService) DeleteByID(ctx context.Context, id int64) error {
	return s.cascade.DeleteCartCascade(ctx, id)
}

func (s *CartService) enrich(ctx context.Context, carts []domain.Cart, authorization string) []domain.EnrichedCart {
	return enrichAll(ctx, carts, s.lookup, func(ctx context.Context, c domain.Cart) domain.EnrichedCart {
		return s.enrichOne(ctx, c, authorization)
	})
}

func (s *CartService) enrichOne(ctx context.Context, cart domain.Cart, authorization string) domain.EnrichedCart {
	out := domain.EnrichedCart{Cart: cart, User: placeholderUser(cart.UserID)}
	user, err := s.users.FetchUser(ctx, cart.UserID, authorization)
	if err != nil {
		logger.FromContext(ctx).Warn("user lookup failed, keeping placeholder",
			zap.Int64("cart_id", cart.ID),
			zap.Int64("user_id", cart.UserID),
			zap.Error(err),
		)
		return out
	}
	out.User = user
	return out
}

func placeholderUser(id int64) remote.User {
	return remote.User{ID: id}
}

func validateCart(cart domain.Cart) error {
	if cart.UserID <= 0 {
		return apperr.Validation("userId must be positive")
	}
	for _, o := range cart.Orders {
		if err := validateOrderFields(o); err != nil {
			return err
		}
	}
	return nil
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/kirangajul/e-commerce-microservices/orders-service/internal/domain"
	"github.com/kirangajul/e-commerce-microservices/orders-service/internal/repository"
	"github.com/kirangajul/e-commerce-microservices/pkg/logger"
	"go.uber.org/zap"
)

// CascadeWriter removes a cart together with the orders it owns.
type CascadeWriter struct {
	uow repository.UnitOfWork
	now func() time.Time
}

func NewCascadeWriter(uow repository.UnitOfWork) *CascadeWriter {
	return &CascadeWriter{uow: uow, now: time.Now}
}

// DeleteCartCascade locks the cart, deletes its orders, then the cart, and
// records a cart.deleted event, all in one transaction. A missing cart is a
// successful no-op.
func (w *CascadeWriter) DeleteCartCascade(ctx context.Context, cartID int64) error {
	var removed int64
	err := w.uow.WithinTx(ctx, func(tx repository.CascadeStore) error {
		cart, ok, err := tx.LockCart(ctx, cartID)
		if err != nil {
			return fmt.Errorf("lock cart: %w", err)
		}
		if !ok {
			return nil
		}

		if removed, err = tx.DeleteOrdersByCart(ctx, cartID); err != nil {
			return fmt.Errorf("delete orders of cart: %w", err)
		}
		if err := tx.DeleteCart(ctx, cartID); err != nil {
			return fmt.Errorf("delete cart: %w", err)
		}

		event, err := domain.NewCartEvent(domain.EventCartDeleted, cart, w.now())
		if err != nil {
			return fmt.Errorf("build cart event: %w", err)
		}
		return tx.AppendOutbox(ctx, event)
	})
	if err != nil {
		return err
	}

	logger.FromContext(ctx).Debug("cart cascade finished",
		zap.Int64("cart_id", cartID),
		zap.Int64("orders_removed", removed),
	)
	return nil
}

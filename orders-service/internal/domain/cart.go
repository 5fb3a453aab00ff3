package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/kirangajul/e-commerce-microservices/pkg/paging"
	"github.com/kirangajul/e-commerce-microservices/pkg/remote"
)

// Cart owns its orders: deleting a cart removes them.
type Cart struct {
	ID     int64   `json:"cartId"`
	UserID int64   `json:"userId"`
	Orders []Order `json:"orders"`
}

type EnrichedCart struct {
	Cart
	User remote.User `json:"user"`
}

var CartSortFields = paging.Fields{
	Primary: "cartId",
	Columns: map[string]string{
		"cartId": "id",
		"userId": "user_id",
	},
}

const (
	AggregateCart = "cart"

	EventCartCreated = "cart.created"
	EventCartDeleted = "cart.deleted"
)

// OutboxEvent is written in the same transaction as the change it describes.
type OutboxEvent struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   int64
	EventType     string
	Payload       json.RawMessage
	CreatedAt     time.Time
}

type CartEventPayload struct {
	CartID     int64     `json:"cartId"`
	UserID     int64     `json:"userId"`
	OrderIDs   []int64   `json:"orderIds"`
	OccurredAt time.Time `json:"occurredAt"`
}

func NewCartEvent(eventType string, cart Cart, now time.Time) (OutboxEvent, error) {
	ids := make([]int64, 0, len(cart.Orders))
	for _, o := range cart.Orders {
		ids = append(ids, o.ID)
	}
	payload, err := json.Marshal(CartEventPayload{
		CartID:     cart.ID,
		UserID:     cart.UserID,
		OrderIDs:   ids,
		OccurredAt: now.UTC(),
	})
	if err != nil {
		return OutboxEvent{}, err
	}
	return OutboxEvent{
		ID:            uuid.New(),
		AggregateType: AggregateCart,
		AggregateID:   cart.ID,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     now.UTC(),
	}, nil
}

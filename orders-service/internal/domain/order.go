package domain

import (
	"time"

	"github.com/kirangajul/e-commerce-microservices/pkg/paging"
	"github.com/kirangajul/e-commerce-microservices/pkg/remote"
)

type Order struct {
	ID          int64     `json:"orderId"`
	CartID      int64     `json:"cartId"`
	ProductID   int64     `json:"productId"`
	Fee         float64   `json:"orderFee"`
	Date        time.Time `json:"orderDate"`
	Description string    `json:"orderDesc"`
}

// EnrichedOrder carries the product fetched from product-service. When the
// fetch fails Product holds only the id.
type EnrichedOrder struct {
	Order
	Product remote.Product `json:"product"`
}

var OrderSortFields = paging.Fields{
	Primary: "orderId",
	Columns: map[string]string{
		"orderId":   "id",
		"cartId":    "cart_id",
		"productId": "product_id",
		"orderFee":  "order_fee",
		"orderDate": "order_date",
		"orderDesc": "order_desc",
	},
}

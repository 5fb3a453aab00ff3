package domain

import "github.com/kirangajul/e-commerce-microservices/pkg/apperr"

type Product struct {
	ID         int64   `json:"productId"`
	Title      string  `json:"productTitle"`
	ImageURL   string  `json:"imageUrl"`
	SKU        string  `json:"sku"`
	PriceUnit  float64 `json:"priceUnit"`
	Quantity   int     `json:"quantity"`
	CategoryID *int64  `json:"categoryId,omitempty"`
}

func (p Product) Validate() error {
	if p.Title == "" {
		return apperr.Validation("productTitle must not be blank")
	}
	if p.PriceUnit < 0 {
		return apperr.Validation("priceUnit must not be negative")
	}
	if p.Quantity < 0 {
		return apperr.Validation("quantity must not be negative")
	}
	return nil
}

// ProductPatch carries a partial update; nil fields are left unchanged.
type ProductPatch struct {
	ID         int64    `json:"productId"`
	Title      *string  `json:"productTitle"`
	ImageURL   *string  `json:"imageUrl"`
	SKU        *string  `json:"sku"`
	PriceUnit  *float64 `json:"priceUnit"`
	Quantity   *int     `json:"quantity"`
	CategoryID *int64   `json:"categoryId"`
}

// Apply returns p with the non-nil patch fields written over it.
func (pt ProductPatch) Apply(p Product) Product {
	if pt.Title != nil {
		p.Title = *pt.Title
	}
	if pt.ImageURL != nil {
		p.ImageURL = *pt.ImageURL
	}
	if pt.SKU != nil {
		p.SKU = *pt.SKU
	}
	if pt.PriceUnit != nil {
		p.PriceUnit = *pt.PriceUnit
	}
	if pt.Quantity != nil {
		p.Quantity = *pt.Quantity
	}
	if pt.CategoryID != nil {
		id := *pt.CategoryID
		p.CategoryID = &id
	}
	return p
}

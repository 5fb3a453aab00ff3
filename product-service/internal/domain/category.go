package domain

import (
	"github.com/kirangajul/e-commerce-microservices/pkg/apperr"
	"github.com/kirangajul/e-commerce-microservices/pkg/paging"
)

type Category struct {
	ID               int64  `json:"categoryId"`
	Title            string `json:"categoryTitle"`
	ImageURL         string `json:"imageUrl"`
	ParentCategoryID *int64 `json:"parentCategoryId,omitempty"`
}

func (c Category) Validate() error {
	if c.Title == "" {
		return apperr.Validation("categoryTitle must not be blank")
	}
	if c.ParentCategoryID != nil && *c.ParentCategoryID == c.ID && c.ID != 0 {
		return apperr.Validation("category cannot be its own parent")
	}
	return nil
}

var CategorySortFields = paging.Fields{
	Primary: "categoryId",
	Columns: map[string]string{
		"categoryId":    "id",
		"categoryTitle": "title",
		"imageUrl":      "image_url",
	},
}

package http

import "github.com/go-chi/chi/v5"

// Register mounts the catalogue API. These routes are public.
func Register(r chi.Router, products *ProductHandler, categories *CategoryHandler) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", products.ListProducts)
		r.Post("/", products.CreateProduct)
		r.Patch("/", products.PatchProduct)
		r.Post("/bulk", products.CreateProducts)
		r.Get("/{product_id}", products.GetProduct)
		r.Put("/{product_id}", products.UpdateProduct)
		r.Delete("/{product_id}", products.DeleteProduct)
	})

	r.Route("/api/categories", func(r chi.Router) {
		r.Get("/", categories.ListCategories)
		r.Post("/", categories.CreateCategory)
		r.Put("/", categories.UpdateCategory)
		r.Post("/bulk", categories.CreateCategories)
		r.Get("/paging", categories.ListCategoriesPaged)
		r.Get("/paging-and-sorting", categories.ListCategoriesSorted)
		r.Get("/{category_id}", categories.GetCategory)
		r.Put("/{category_id}", categories.UpdateCategoryByID)
		r.Delete("/{category_id}", categories.DeleteCategory)
	})
}

package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/kirangajul/e-commerce-microservices/pkg/auth"
)

// Register mounts the order and cart APIs. Everything except existOrderId
// requires a validated token; each verb is further gated by role.
func Register(r chi.Router, v auth.TokenValidator, orders *OrdersHandler, carts *CartHandler) {
	readers := auth.RequireAuthority(auth.RoleAdmin, auth.RoleUser)
	users := auth.RequireAuthority(auth.RoleUser)
	admins := auth.RequireAuthority(auth.RoleAdmin)

	r.Route("/api/orders", func(r chi.Router) {
		r.Get("/existOrderId", orders.OrderExists)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(v))

			r.With(readers).Get("/", orders.ListOrders)
			r.With(readers).Get("/all", orders.ListOrdersPaged)
			r.With(readers).Get("/{order_id}", orders.GetOrder)
			r.With(users).Post("/", orders.CreateOrder)
			r.With(admins).Put("/", orders.UpdateOrder)
			r.With(users).Put("/{order_id}", orders.UpdateOrderByID)
			r.With(readers).Delete("/{order_id}", orders.DeleteOrder)
		})
	})

	r.Route("/api/carts", func(r chi.Router) {
		r.Use(auth.Middleware(v))

		r.With(readers).Get("/", carts.ListCarts)
		r.With(readers).Get("/all", carts.ListCartsPaged)
		r.With(readers).Get("/{cart_id}", carts.GetCart)
		r.With(users).Post("/", carts.CreateCart)
		r.With(admins).Put("/", carts.UpdateCart)
		r.With(users).Put("/{cart_id}", carts.UpdateCartByID)
		r.With(readers).Delete("/{cart_id}", carts.DeleteCart)
	})
}

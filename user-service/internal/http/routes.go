package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/kirangajul/e-commerce-microservices/pkg/auth"
	"github.com/kirangajul/e-commerce-microservices/user-service/internal/domain"
)

// Register mounts the auth endpoints (public) and the manager endpoints,
// which need a bearer token checked locally by v.
func Register(r chi.Router, v auth.TokenValidator, authH *AuthHandler, manager *ManagerHandler) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", authH.SignUp)
		r.Post("/signin", authH.SignIn)
		r.Get("/validateToken", authH.ValidateToken)
	})

	r.Route("/api/manager", func(r chi.Router) {
		r.Use(auth.Middleware(v))
		r.Use(auth.RequireAuthority(auth.RoleAdmin, auth.RoleUser, domain.RoleManager))

		r.Get("/user/{user_id}", manager.GetUser)
		r.Get("/users", manager.ListUsers)
	})
}

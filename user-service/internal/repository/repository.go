package repository

import (
	"context"

	"github.com/kirangajul/e-commerce-microservices/pkg/apperr"
	"github.com/kirangajul/e-commerce-microservices/pkg/paging"
	"github.com/kirangajul/e-commerce-microservices/user-service/internal/domain"
)

var (
	ErrUserNotFound = apperr.NotFound("user not found")
	ErrUserExists   = apperr.Conflict("username or email already taken")
)

// UserRepository is the store behind the user service. Ids are sequential
// int64 values so other services can reference users numerically.
type UserRepository interface {
	CreateUser(ctx context.Context, u domain.User) (domain.User, error)
	GetUser(ctx context.Context, id int64) (domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
	ListUsers(ctx context.Context, spec paging.Spec) ([]domain.User, int64, error)
}

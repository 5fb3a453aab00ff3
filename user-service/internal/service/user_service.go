package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kirangajul/e-commerce-microservices/pkg/apperr"
	"github.com/kirangajul/e-commerce-microservices/pkg/auth"
	"github.com/kirangajul/e-commerce-microservices/pkg/logger"
	"github.com/kirangajul/e-commerce-microservices/pkg/paging"
	"github.com/kirangajul/e-commerce-microservices/user-service/internal/domain"
	"github.com/kirangajul/e-commerce-microservices/user-service/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var ErrBadCredentials = apperr.Unauthorized("invalid username or password")

type TokenIssuer interface {
	Issue(username string, authorities []string) (string, time.Time, error)
	auth.TokenValidator
}

type UserService struct {
	repo       repository.UserRepository
	tokens     TokenIssuer
	bcryptCost int
}

// NewUserService wires the service. A zero cost means bcrypt.DefaultCost.
func NewUserService(repo repository.UserRepository, tokens TokenIssuer, bcryptCost int) *UserService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{repo: repo, tokens: tokens, bcryptCost: bcryptCost}
}

func (s *UserService) Register(ctx context.Context, form domain.SignUp) (domain.User, error) {
	if err := form.Validate(); err != nil {
		return domain.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), s.bcryptCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.repo.CreateUser(ctx, domain.User{
		Name:         form.Name,
		Username:     form.Username,
		Email:        form.Email,
		PasswordHash: string(hash),
		Phone:        form.Phone,
		Avatar:       form.Avatar,
		Roles:        form.Roles,
	})
	if err != nil {
		return domain.User{}, err
	}
	logger.FromContext(ctx).Info("user registered", zap.Int64("user_id", u.ID), zap.Strings("roles", u.Roles))
	return u, nil
}

// Login checks the credentials and issues an access token. Unknown users and
// wrong passwords fail the same way.
func (s *UserService) Login(ctx context.Context, form domain.Login) (domain.AuthResponse, error) {
	u, err := s.repo.GetUserByUsername(ctx, form.Username)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return domain.AuthResponse{}, ErrBadCredentials
		}
		return domain.AuthResponse{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(form.Password)); err != nil {
		return domain.AuthResponse{}, ErrBadCredentials
	}

	raw, expires, err := s.tokens.Issue(u.Username, u.Roles)
	if err != nil {
		return domain.AuthResponse{}, err
	}
	return domain.AuthResponse{
		Message:     "Login successful",
		Token:       raw,
		Type:        "Bearer",
		ExpiresAt:   expires,
		Username:    u.Username,
		Authorities: u.Roles,
	}, nil
}

// ValidateToken answers the remote validation call made by the other services.
func (s *UserService) ValidateToken(ctx context.Context, authorizationHeader string) (domain.TokenInfo, error) {
	res, err := s.tokens.Validate(ctx, authorizationHeader)
	if err != nil {
		return domain.TokenInfo{}, err
	}
	return domain.TokenInfo{
		Message:     auth.ValidTokenMessage,
		Username:    res.PrincipalName,
		Authorities: res.Authorities,
	}, nil
}

func (s *UserService) FindByID(ctx context.Context, id int64) (domain.User, error) {
	return s.repo.GetUser(ctx, id)
}

func (s *UserService) FindPage(ctx context.Context, spec paging.Spec) (paging.Page[domain.User], error) {
	users, total, err := s.repo.ListUsers(ctx, spec)
	if err != nil {
		return paging.Page[domain.User]{}, err
	}
	return paging.NewPage(users, spec, total), nil
}

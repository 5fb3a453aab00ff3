package domain

import (
	"net/mail"
	"slices"
	"strings"
	"time"

	"github.com/kirangajul/e-commerce-microservices/pkg/apperr"
	"github.com/kirangajul/e-commerce-microservices/pkg/paging"
)

const (
	RoleUser    = "USER"
	RoleAdmin   = "ADMIN"
	RoleManager = "MANAGER"
)

var knownRoles = []string{RoleUser, RoleAdmin, RoleManager}

type User struct {
	ID           int64     `bson:"_id" json:"id"`
	Name         string    `bson:"name" json:"name"`
	Username     string    `bson:"username" json:"username"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"password" json:"-"`
	Phone        string    `bson:"phone,omitempty" json:"phone,omitempty"`
	Avatar       string    `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Roles        []string  `bson:"roles" json:"roles"`
	CreatedAt    time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updatedAt"`
}

// SignUp is the registration form.
type SignUp struct {
	Name     string   `json:"name"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Phone    string   `json:"phone"`
	Avatar   string   `json:"avatar"`
	Roles    []string `json:"roles"`
}

// Validate trims the form in place and normalizes the requested roles. An
// empty role list means USER.
func (s *SignUp) Validate() error {
	s.Name = strings.TrimSpace(s.Name)
	s.Username = strings.TrimSpace(s.Username)
	s.Email = strings.TrimSpace(s.Email)

	if n := len(s.Username); n < 3 || n > 50 {
		return apperr.Validation("username must be between 3 and 50 characters")
	}
	if _, err := mail.ParseAddress(s.Email); err != nil {
		return apperr.Validation("email %q is not valid", s.Email)
	}
	if len(s.Password) < 6 {
		return apperr.Validation("password must be at least 6 characters")
	}

	roles := make([]string, 0, len(s.Roles))
	for _, r := range s.Roles {
		r = strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(r), "ROLE_"))
		if !slices.Contains(knownRoles, r) {
			return apperr.Validation("unknown role %q", r)
		}
		if !slices.Contains(roles, r) {
			roles = append(roles, r)
		}
	}
	if len(roles) == 0 {
		roles = append(roles, RoleUser)
	}
	s.Roles = roles
	return nil
}

type Login struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Message     string    `json:"message"`
	Token       string    `json:"token"`
	Type        string    `json:"type"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Username    string    `json:"username"`
	Authorities []string  `json:"authorities"`
}

// TokenInfo is the validateToken reply other services depend on.
type TokenInfo struct {
	Message     string   `json:"message"`
	Username    string   `json:"username,omitempty"`
	Authorities []string `json:"authorities,omitempty"`
}

var UserSortFields = paging.Fields{
	Primary: "id",
	Columns: map[string]string{
		"id":        "_id",
		"name":      "name",
		"username":  "username",
		"email":     "email",
		"createdAt": "created_at",
	},
}

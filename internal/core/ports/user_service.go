package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/schoolpay/user-service/internal/core/domain"
)

// SignupInput is the allow-listed signup payload.
type SignupInput struct {
	Email     string
	Password  string
	Phone     string
	FirstName string
	LastName  string
	Age       *int
	ImageURL  string
}

// CreateUserInput is used by administrators to create users of any role.
type CreateUserInput struct {
	SignupInput
	Role domain.Role
}

// UpdateUserInput lists the only fields a user update may touch.
// Nil pointers are left unchanged.
type UpdateUserInput struct {
	FirstName *string
	LastName  *string
	Phone     *string
	Age       *int
	ImageURL  *string
	Status    *domain.Status
}

// TokenPair is returned on login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// ListUsersInput carries the list endpoint parameters.
type ListUsersInput struct {
	Role   domain.Role
	Status domain.Status
	Page   int
	Limit  int
}

// ListUsersResult is a single page of users.
type ListUsersResult struct {
	Items      []*domain.User
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// UserService defines the user use cases exposed over HTTP.
type UserService interface {
	Signup(ctx context.Context, in SignupInput) (*domain.User, error)
	CreateUser(ctx context.Context, in CreateUserInput) (*domain.User, error)
	Login(ctx context.Context, email, password string, role domain.Role) (TokenPair, *domain.User, error)
	Refresh(ctx context.Context, refreshToken string) (TokenPair, *domain.User, error)
	Get(ctx context.Context, principal *domain.User, id uuid.UUID) (*domain.User, error)
	Update(ctx context.Context, principal *domain.User, id uuid.UUID, in UpdateUserInput) (*domain.User, error)
	Delete(ctx context.Context, principal *domain.User, id uuid.UUID) error
	List(ctx context.Context, in ListUsersInput) (*ListUsersResult, error)
}

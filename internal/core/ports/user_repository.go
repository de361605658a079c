package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/schoolpay/user-service/internal/core/domain"
)

// ListUsersFilter carries the query parameters for a page of users.
type ListUsersFilter struct {
	Role   domain.Role   // optional
	Status domain.Status // optional
	Page   int           // 1-based
	Limit  int
}

// UserRepository is the credential store.
//
// Every read implicitly excludes soft-deleted rows (deleted_at set): a
// deleted user is indistinguishable from one that never existed. Lookups
// that find nothing return domain.ErrUserNotFound. Create returns a
// domain.ErrConflict kind when (email, role) or phone is already taken.
//
// Caching decorators must not serve a row after Update or SoftDelete has
// returned, including fills from reads that started before the write.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	FindByEmailAndRole(ctx context.Context, email string, role domain.Role) (*domain.User, error)
	FindByPhoneAndRole(ctx context.Context, phone string, role domain.Role) (*domain.User, error)
	// Update persists the mutable profile fields and status of user.
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
	// SoftDelete stamps deleted_at. Deleting a missing or already deleted
	// user returns domain.ErrUserNotFound.
	SoftDelete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ListUsersFilter) ([]*domain.User, int64, error)
}

// Pinger is implemented by backends that can report their own health.
type Pinger interface {
	Ping(ctx context.Context) error
}

package service

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/schoolpay/user-service/internal/core/domain"
	"github.com/schoolpay/user-service/internal/core/ports"
)

// stubUserRepo is an in-memory ports.UserRepository that enforces the same
// uniqueness and soft-delete rules as the real stores.
type stubUserRepo struct {
	users   map[uuid.UUID]*domain.User
	findErr error // if set, FindByID returns this error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.users {
		if u.Phone == user.Phone {
			return nil, domain.Conflict(domain.MsgPhoneExists)
		}
		if !u.IsDeleted() && u.Email == user.Email && u.Role == user.Role {
			return nil, domain.Conflict(domain.MsgEmailExists)
		}
	}
	r.users[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.users[id]
	if !ok || u.IsDeleted() {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByEmailAndRole(_ context.Context, email string, role domain.Role) (*domain.User, error) {
	for _, u := range r.users {
		if !u.IsDeleted() && u.Email == email && u.Role == role {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByPhoneAndRole(_ context.Context, phone string, role domain.Role) (*domain.User, error) {
	for _, u := range r.users {
		if !u.IsDeleted() && u.Phone == phone && u.Role == role {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) (*domain.User, error) {
	existing, ok := r.users[user.ID]
	if !ok || existing.IsDeleted() {
		return nil, domain.ErrUserNotFound
	}
	r.users[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

func (r *stubUserRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	u, ok := r.users[id]
	if !ok || u.IsDeleted() {
		return domain.ErrUserNotFound
	}
	now := u.UpdatedAt
	u.DeletedAt = &now
	return nil
}

func (r *stubUserRepo) List(_ context.Context, f ports.ListUsersFilter) ([]*domain.User, int64, error) {
	var matched []*domain.User
	for _, u := range r.users {
		if u.IsDeleted() {
			continue
		}
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.Status != "" && u.Status != f.Status {
			continue
		}
		matched = append(matched, cloneUser(u))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Email < matched[j].Email })

	total := int64(len(matched))
	skip := (f.Page - 1) * f.Limit
	if skip > len(matched) {
		return []*domain.User{}, total, nil
	}
	end := skip + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[skip:end], total, nil
}

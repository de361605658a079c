package sqlstore_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolpay/user-service/internal/core/domain"
	"github.com/schoolpay/user-service/internal/core/ports"
	"github.com/schoolpay/user-service/internal/infrastructure/db/sqlstore"
	"github.com/schoolpay/user-service/internal/testutil"
)

func newRepo(t *testing.T) (*sqlstore.UserRepository, *sqlstore.DB) {
	t.Helper()
	db := testutil.OpenInMemoryDB(t)
	return sqlstore.NewUserRepository(db, zerolog.Nop()), db
}

var seq int

func newUser(email, phone string, role domain.Role) *domain.User {
	seq++
	now := time.Date(2024, 1, 1, 0, 0, seq, 0, time.UTC)
	return &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Phone:        phone,
		FirstName:    "Ada",
		PasswordHash: "$2a$10$hash",
		Role:         role,
		Status:       domain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	age := 30
	u := newUser("a@example.com", "+12025550143", domain.RoleParent)
	u.Age = &age
	_, err := repo.Create(ctx, u)
	require.NoError(t, err)

	byID, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, byID.ID)
	assert.Equal(t, "a@example.com", byID.Email)
	assert.Equal(t, "$2a$10$hash", byID.PasswordHash)
	assert.Equal(t, domain.RoleParent, byID.Role)
	require.NotNil(t, byID.Age)
	assert.Equal(t, 30, *byID.Age)
	assert.True(t, u.CreatedAt.Equal(byID.CreatedAt))
	assert.Nil(t, byID.DeletedAt)

	byEmail, err := repo.FindByEmailAndRole(ctx, "a@example.com", domain.RoleParent)
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byPhone, err := repo.FindByPhoneAndRole(ctx, "+12025550143", domain.RoleParent)
	require.NoError(t, err)
	assert.Equal(t, u.ID, byPhone.ID)

	_, err = repo.FindByEmailAndRole(ctx, "a@example.com", domain.RoleVendor)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepository_EmailUniquePerRole(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, newUser("a@example.com", "+12025550143", domain.RoleParent))
	require.NoError(t, err)

	_, err = repo.Create(ctx, newUser("a@example.com", "+12025550144", domain.RoleParent))
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, domain.MsgEmailExists, err.Error())

	_, err = repo.Create(ctx, newUser("a@example.com", "+12025550145", domain.RoleVendor))
	assert.NoError(t, err, "same email under another role must be accepted")
}

func TestUserRepository_PhoneUniqueAcrossRoles(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, newUser("a@example.com", "+12025550143", domain.RoleParent))
	require.NoError(t, err)

	_, err = repo.Create(ctx, newUser("b@example.com", "+12025550143", domain.RoleVendor))
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, domain.MsgPhoneExists, err.Error())
}

func TestUserRepository_SoftDelete(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	u := newUser("a@example.com", "+12025550143", domain.RoleParent)
	_, err := repo.Create(ctx, u)
	require.NoError(t, err)

	require.NoError(t, repo.SoftDelete(ctx, u.ID))

	_, err = repo.FindByID(ctx, u.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = repo.FindByEmailAndRole(ctx, u.Email, u.Role)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = repo.FindByPhoneAndRole(ctx, u.Phone, u.Role)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, repo.SoftDelete(ctx, u.ID), domain.ErrNotFound, "soft delete is one-way")

	u.FirstName = "Zombie"
	_, err = repo.Update(ctx, u)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	users, total, err := repo.List(ctx, ports.ListUsersFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, users)

	// (email, role) is free again; the phone number stays taken.
	_, err = repo.Create(ctx, newUser("a@example.com", "+12025550199", domain.RoleParent))
	assert.NoError(t, err)
	_, err = repo.Create(ctx, newUser("c@example.com", "+12025550143", domain.RoleParent))
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestUserRepository_Update(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	u := newUser("a@example.com", "+12025550143", domain.RoleParent)
	_, err := repo.Create(ctx, u)
	require.NoError(t, err)
	other := newUser("b@example.com", "+12025550144", domain.RoleParent)
	_, err = repo.Create(ctx, other)
	require.NoError(t, err)

	age := 12
	u.FirstName = "Grace"
	u.Phone = "+12025550100"
	u.Age = &age
	u.Status = domain.StatusInactive
	u.Email = "changed@example.com"
	u.PasswordHash = "overwritten"
	u.UpdatedAt = u.UpdatedAt.Add(time.Hour)
	_, err = repo.Update(ctx, u)
	require.NoError(t, err)

	got, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Grace", got.FirstName)
	assert.Equal(t, "+12025550100", got.Phone)
	assert.Equal(t, 12, *got.Age)
	assert.Equal(t, domain.StatusInactive, got.Status)
	assert.Equal(t, "a@example.com", got.Email, "email is not updatable")
	assert.Equal(t, "$2a$10$hash", got.PasswordHash, "password hash is set once")

	u.Phone = other.Phone
	_, err = repo.Update(ctx, u)
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, domain.MsgPhoneExists, err.Error())
}

func TestUserRepository_List(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := repo.Create(ctx, newUser(fmt.Sprintf("p%d@example.com", i), fmt.Sprintf("+1202555010%d", i), domain.RoleParent))
		require.NoError(t, err)
	}
	vendor := newUser("v@example.com", "+12025550199", domain.RoleVendor)
	vendor.Status = domain.StatusInactive
	_, err := repo.Create(ctx, vendor)
	require.NoError(t, err)

	page1, total, err := repo.List(ctx, ports.ListUsersFilter{Role: domain.RoleParent, Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, page1, 2)
	assert.Equal(t, "p4@example.com", page1[0].Email, "newest first")

	page3, _, err := repo.List(ctx, ports.ListUsersFilter{Role: domain.RoleParent, Page: 3, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page3, 1)

	inactive, total, err := repo.List(ctx, ports.ListUsersFilter{Status: domain.StatusInactive, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, inactive, 1)
	assert.Equal(t, vendor.ID, inactive[0].ID)

	all, total, err := repo.List(ctx, ports.ListUsersFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 6, total)
	assert.Len(t, all, 6)
}

func TestDB_PingAndRollback(t *testing.T) {
	repo, db := newRepo(t)
	ctx := context.Background()

	require.NoError(t, db.Ping(ctx))
	assert.Equal(t, sqlstore.DialectSQLite, db.Dialect())

	require.NoError(t, db.RollbackLast(ctx))
	_, err := repo.FindByID(ctx, uuid.New())
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrNotFound), "users table should be gone")
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := sqlstore.Open(context.Background(), sqlstore.Config{Driver: "oracle"}, zerolog.Nop())
	assert.Error(t, err)
}

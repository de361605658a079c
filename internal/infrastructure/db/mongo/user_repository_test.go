package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/schoolpay/user-service/internal/core/domain"
	"github.com/schoolpay/user-service/internal/core/ports"
)

const testNS = "user_service.users"

func userDoc(u *domain.User) bson.D {
	return bson.D{
		{Key: "_id", Value: u.ID.String()},
		{Key: "email", Value: u.Email},
		{Key: "phone_no", Value: u.Phone},
		{Key: "password_hash", Value: u.PasswordHash},
		{Key: "role", Value: string(u.Role)},
		{Key: "status", Value: string(u.Status)},
		{Key: "created_at", Value: u.CreatedAt},
		{Key: "updated_at", Value: u.UpdatedAt},
		{Key: "deleted", Value: false},
	}
}

func sampleUser() *domain.User {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &domain.User{
		ID:           uuid.New(),
		Email:        "a@example.com",
		Phone:        "+12025550143",
		PasswordHash: "$2a$10$hash",
		Role:         domain.RoleParent,
		Status:       domain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestUserRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewUserRepository(mt.DB)

		u := sampleUser()
		created, err := repo.Create(context.Background(), u)
		if err != nil {
			mt.Fatalf("Create: %v", err)
		}
		if created.ID != u.ID {
			mt.Fatalf("expected %s, got %s", u.ID, created.ID)
		}
	})

	mt.Run("create duplicate phone", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: user_service.users index: phone_no_unique dup key",
		}))
		repo := NewUserRepository(mt.DB)

		_, err := repo.Create(context.Background(), sampleUser())
		if !errors.Is(err, domain.ErrConflict) || err.Error() != domain.MsgPhoneExists {
			mt.Fatalf("expected phone conflict, got %v", err)
		}
	})

	mt.Run("create duplicate email", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: user_service.users index: email_role_live dup key",
		}))
		repo := NewUserRepository(mt.DB)

		_, err := repo.Create(context.Background(), sampleUser())
		if !errors.Is(err, domain.ErrConflict) || err.Error() != domain.MsgEmailExists {
			mt.Fatalf("expected email conflict, got %v", err)
		}
	})

	mt.Run("find by id", func(mt *mtest.T) {
		u := sampleUser()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch, userDoc(u)))
		repo := NewUserRepository(mt.DB)

		got, err := repo.FindByID(context.Background(), u.ID)
		if err != nil {
			mt.Fatalf("FindByID: %v", err)
		}
		if got.ID != u.ID || got.Email != u.Email || got.Role != domain.RoleParent || got.PasswordHash != u.PasswordHash {
			mt.Fatalf("unexpected user %+v", got)
		}
	})

	mt.Run("find missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch))
		repo := NewUserRepository(mt.DB)

		_, err := repo.FindByEmailAndRole(context.Background(), "nobody@example.com", domain.RoleParent)
		if !errors.Is(err, domain.ErrNotFound) {
			mt.Fatalf("expected not found, got %v", err)
		}
	})

	mt.Run("soft delete missing", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 0}, {Key: "nModified", Value: 0}})
		repo := NewUserRepository(mt.DB)

		if err := repo.SoftDelete(context.Background(), uuid.New()); !errors.Is(err, domain.ErrNotFound) {
			mt.Fatalf("expected not found, got %v", err)
		}
	})

	mt.Run("update", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 1}, {Key: "nModified", Value: 1}})
		repo := NewUserRepository(mt.DB)

		u := sampleUser()
		u.FirstName = "Grace"
		got, err := repo.Update(context.Background(), u)
		if err != nil {
			mt.Fatalf("Update: %v", err)
		}
		if got.FirstName != "Grace" {
			mt.Fatalf("unexpected user %+v", got)
		}
	})

	mt.Run("list", func(mt *mtest.T) {
		a, b := sampleUser(), sampleUser()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch, bson.D{{Key: "n", Value: int32(2)}}),
			mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch, userDoc(a), userDoc(b)),
		)
		repo := NewUserRepository(mt.DB)

		users, total, err := repo.List(context.Background(), ports.ListUsersFilter{Page: 1, Limit: 10})
		if err != nil {
			mt.Fatalf("List: %v", err)
		}
		if total != 2 || len(users) != 2 {
			mt.Fatalf("expected 2 users, got total=%d len=%d", total, len(users))
		}
	})
}

package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolpay/user-service/internal/core/domain"
)

func newMockRepo(t *testing.T) (*UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	db := &DB{DB: mockDB, dialect: DialectPostgres, logger: zerolog.Nop()}
	return NewUserRepository(db, zerolog.Nop()), mock
}

func TestUserRepository_Create_MapsPostgresUniqueViolation(t *testing.T) {
	tests := []struct {
		constraint string
		want       string
	}{
		{"users_phone_no_key", domain.MsgPhoneExists},
		{"users_email_role_key", domain.MsgEmailExists},
	}

	for _, tc := range tests {
		t.Run(tc.constraint, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectExec("INSERT INTO users").
				WillReturnError(&pq.Error{Code: "23505", Constraint: tc.constraint, Message: "duplicate key value violates unique constraint"})

			now := time.Now()
			_, err := repo.Create(context.Background(), &domain.User{ID: uuid.New(), Role: domain.RoleParent, Status: domain.StatusActive, CreatedAt: now, UpdatedAt: now})

			require.ErrorIs(t, err, domain.ErrConflict)
			assert.Equal(t, tc.want, err.Error())
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_Create_OtherErrorsAreWrapped(t *testing.T) {
	repo, mock := newMockRepo(t)
	boom := errors.New("connection reset")
	mock.ExpectExec("INSERT INTO users").WillReturnError(boom)

	_, err := repo.Create(context.Background(), &domain.User{ID: uuid.New()})

	require.ErrorIs(t, err, boom)
	assert.False(t, errors.Is(err, domain.ErrConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByID_ExcludesDeleted(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT .* FROM users WHERE id = \$1 AND deleted_at IS NULL`).
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), id)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_SoftDelete_NoRow(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectExec(`UPDATE users SET deleted_at = \$2 WHERE id = \$1 AND deleted_at IS NULL`).
		WithArgs(id, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SoftDelete(context.Background(), id)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"sqlite without detail", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}, domain.MsgEmailExists},
		{"pq phone", &pq.Error{Code: "23505", Constraint: "users_phone_no_key"}, domain.MsgPhoneExists},
		{"pq not unique", &pq.Error{Code: "23503"}, ""},
		{"sqlite check", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintCheck}, ""},
		{"plain", errors.New("boom"), ""},
	}
	for _, tc := range tests {
		got := uniqueViolation(tc.err)
		if tc.want == "" {
			assert.Nil(t, got, tc.name)
			continue
		}
		require.Error(t, got, tc.name)
		assert.Equal(t, tc.want, got.Error(), tc.name)
	}
}

func TestRebind(t *testing.T) {
	pg := &DB{dialect: DialectPostgres}
	lite := &DB{dialect: DialectSQLite}
	q := `SELECT 1 FROM users WHERE id = $1 AND role = $2 LIMIT $10`

	assert.Equal(t, q, pg.rebind(q))
	assert.Equal(t, `SELECT 1 FROM users WHERE id = ?1 AND role = ?2 LIMIT ?10`, lite.rebind(q))
}

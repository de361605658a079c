package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/schoolpay/user-service/internal/core/domain"
	"github.com/schoolpay/user-service/internal/core/ports"
)

const userColumns = `id, email, phone_no, first_name, last_name, age, img_url,
		password_hash, role, status, created_at, updated_at, deleted_at`

// UserRepository implements ports.UserRepository on database/sql.
type UserRepository struct {
	db      *DB
	logger  zerolog.Logger
	timeout time.Duration
}

var _ ports.UserRepository = (*UserRepository)(nil)

func NewUserRepository(db *DB, logger zerolog.Logger) *UserRepository {
	return &UserRepository{db: db, logger: logger, timeout: defaultTimeout}
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO users (id, email, phone_no, first_name, last_name, age, img_url,
			password_hash, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, r.db.rebind(query),
		user.ID,
		user.Email,
		user.Phone,
		user.FirstName,
		user.LastName,
		nullableAge(user.Age),
		user.ImageURL,
		user.PasswordHash,
		string(user.Role),
		string(user.Status),
		user.CreatedAt.UTC(),
		user.UpdatedAt.UTC(),
	)
	if err != nil {
		if conflict := uniqueViolation(err); conflict != nil {
			return nil, conflict
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	r.logger.Debug().Str("id", user.ID.String()).Msg("user created")
	created := *user
	return &created, nil
}

// FindByID retrieves a live user by ID.
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.findOne(ctx, `WHERE id = $1 AND deleted_at IS NULL`, id)
}

// FindByEmailAndRole retrieves the live user registered under (email, role).
func (r *UserRepository) FindByEmailAndRole(ctx context.Context, email string, role domain.Role) (*domain.User, error) {
	return r.findOne(ctx, `WHERE email = $1 AND role = $2 AND deleted_at IS NULL`, email, string(role))
}

// FindByPhoneAndRole retrieves the live user registered under (phone, role).
func (r *UserRepository) FindByPhoneAndRole(ctx context.Context, phone string, role domain.Role) (*domain.User, error) {
	return r.findOne(ctx, `WHERE phone_no = $1 AND role = $2 AND deleted_at IS NULL`, phone, string(role))
}

func (r *UserRepository) findOne(ctx context.Context, where string, args ...any) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users ` + where
	user, err := scanUser(r.db.QueryRowContext(ctx, r.db.rebind(query), args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// Update writes the mutable profile fields. Email, role and password hash
// are never changed here.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		UPDATE users
		SET first_name = $2,
		    last_name = $3,
		    phone_no = $4,
		    age = $5,
		    img_url = $6,
		    status = $7,
		    updated_at = $8
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, r.db.rebind(query),
		user.ID,
		user.FirstName,
		user.LastName,
		user.Phone,
		nullableAge(user.Age),
		user.ImageURL,
		string(user.Status),
		user.UpdatedAt.UTC(),
	)
	if err != nil {
		if conflict := uniqueViolation(err); conflict != nil {
			return nil, conflict
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if err := expectOneRow(result); err != nil {
		return nil, err
	}

	updated := *user
	return &updated, nil
}

// SoftDelete stamps deleted_at. The row is kept and never comes back.
func (r *UserRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `UPDATE users SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, r.db.rebind(query), id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if err := expectOneRow(result); err != nil {
		return err
	}

	r.logger.Debug().Str("id", id.String()).Msg("user soft-deleted")
	return nil
}

// List returns a page of live users ordered by creation time, newest first.
func (r *UserRepository) List(ctx context.Context, filter ports.ListUsersFilter) ([]*domain.User, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	conds := []string{"deleted_at IS NULL"}
	var args []any
	if filter.Role != "" {
		args = append(args, string(filter.Role))
		conds = append(conds, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	where := " WHERE " + strings.Join(conds, " AND ")

	var total int64
	if err := r.db.QueryRowContext(ctx, r.db.rebind(`SELECT COUNT(*) FROM users`+where), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	pageArgs := append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	query := fmt.Sprintf(`SELECT %s FROM users%s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		userColumns, where, len(args)+1, len(args)+2)

	rows, err := r.db.QueryContext(ctx, r.db.rebind(query), pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]*domain.User, 0, filter.Limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u         domain.User
		age       sql.NullInt64
		role      string
		status    string
		deletedAt sql.NullTime
	)
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Phone,
		&u.FirstName,
		&u.LastName,
		&age,
		&u.ImageURL,
		&u.PasswordHash,
		&role,
		&status,
		&u.CreatedAt,
		&u.UpdatedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}

	u.Role = domain.Role(role)
	u.Status = domain.Status(status)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	if age.Valid {
		v := int(age.Int64)
		u.Age = &v
	}
	if deletedAt.Valid {
		t := deletedAt.Time.UTC()
		u.DeletedAt = &t
	}
	return &u, nil
}

func nullableAge(age *int) sql.NullInt64 {
	if age == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*age), Valid: true}
}

func expectOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// uniqueViolation maps a driver unique-constraint error to a conflict, or
// returns nil when err is something else.
func uniqueViolation(err error) error {
	var detail string

	var pqErr *pq.Error
	var liteErr sqlite3.Error
	switch {
	case errors.As(err, &pqErr) && pqErr.Code == "23505":
		detail = pqErr.Constraint + " " + pqErr.Message
	case errors.As(err, &liteErr) && liteErr.ExtendedCode == sqlite3.ErrConstraintUnique:
		detail = liteErr.Error()
	default:
		return nil
	}

	if strings.Contains(detail, "phone") {
		return domain.Conflict(domain.MsgPhoneExists)
	}
	return domain.Conflict(domain.MsgEmailExists)
}

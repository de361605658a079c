package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/schoolpay/user-service/internal/core/domain"
	"github.com/schoolpay/user-service/internal/core/ports"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// UserServiceConfig is fixed at startup.
type UserServiceConfig struct {
	AccessTokenTTL    time.Duration
	RefreshTokenTTL   time.Duration
	MinPasswordLength int
	PhoneRegion       string
}

// UserService implements signup, login, token refresh and user CRUD.
type UserService struct {
	repo   ports.UserRepository
	codec  *TokenCodec
	cfg    UserServiceConfig
	logger zerolog.Logger
	now    func() time.Time
}

func NewUserService(repo ports.UserRepository, codec *TokenCodec, cfg UserServiceConfig, logger zerolog.Logger) *UserService {
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = time.Hour
	}
	if cfg.RefreshTokenTTL <= 0 {
		cfg.RefreshTokenTTL = 10 * time.Hour
	}
	if cfg.MinPasswordLength <= 0 {
		cfg.MinPasswordLength = 8
	}
	if cfg.PhoneRegion == "" {
		cfg.PhoneRegion = "US"
	}
	return &UserService{repo: repo, codec: codec, cfg: cfg, logger: logger, now: time.Now}
}

// Signup registers a new PARENT account.
func (s *UserService) Signup(ctx context.Context, in ports.SignupInput) (*domain.User, error) {
	return s.create(ctx, in, domain.RoleParent)
}

// CreateUser registers an account with an explicit role.
func (s *UserService) CreateUser(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	if !in.Role.IsValid() {
		return nil, domain.Validation("invalid role type")
	}
	return s.create(ctx, in.SignupInput, in.Role)
}

func (s *UserService) create(ctx context.Context, in ports.SignupInput, role domain.Role) (*domain.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" {
		return nil, domain.Validation("Email field is missing")
	}
	if in.Password == "" {
		return nil, domain.Validation("Password field is missing")
	}
	if err := ValidatePasswordTerms(in.Password, s.cfg.MinPasswordLength); err != nil {
		return nil, err
	}
	phone, err := NormalizePhone(in.Phone, s.cfg.PhoneRegion)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByPhoneAndRole(ctx, phone, role); err == nil {
		return nil, domain.Validation(domain.MsgUserPhoneExists)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check phone: %w", err)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Phone:        phone,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Age:          in.Age,
		ImageURL:     strings.TrimSpace(in.ImageURL),
		PasswordHash: hash,
		Role:         role,
		Status:       domain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", created.ID.String()).Str("role", string(role)).Msg("user created")
	return created, nil
}

// Login checks credentials for the account registered under (email, role)
// and returns a fresh token pair. Unknown email, wrong password and inactive
// accounts all fail the same way.
func (s *UserService) Login(ctx context.Context, email, password string, role domain.Role) (ports.TokenPair, *domain.User, error) {
	if role == "" {
		role = domain.RoleParent
	}

	var user *domain.User
	if email = normalizeEmail(email); email != "" {
		found, err := s.repo.FindByEmailAndRole(ctx, email, role)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return ports.TokenPair{}, nil, fmt.Errorf("login: %w", err)
		}
		user = found
	}

	if err := ValidateLogin(user, password); err != nil {
		return ports.TokenPair{}, nil, err
	}
	if user.Status != domain.StatusActive {
		return ports.TokenPair{}, nil, domain.Unauthorized(domain.MsgInvalidCredentials)
	}

	pair, err := s.codec.IssuePair(user.ID.String(), s.cfg.AccessTokenTTL, s.cfg.RefreshTokenTTL)
	if err != nil {
		return ports.TokenPair{}, nil, err
	}
	return pair, user, nil
}

// Refresh exchanges a valid refresh token for a new pair.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (ports.TokenPair, *domain.User, error) {
	refreshToken = stripBearer(refreshToken)
	if refreshToken == "" {
		return ports.TokenPair{}, nil, domain.Unauthorized(domain.MsgTokenMissing)
	}
	claims, err := s.codec.Verify(refreshToken)
	if err != nil {
		return ports.TokenPair{}, nil, err
	}
	id, err := uuid.Parse(claims.Identity)
	if err != nil {
		return ports.TokenPair{}, nil, domain.Unauthorized(domain.MsgInvalidCredentials)
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ports.TokenPair{}, nil, domain.Unauthorized(domain.MsgInvalidCredentials)
		}
		return ports.TokenPair{}, nil, fmt.Errorf("refresh: %w", err)
	}
	if user.Status != domain.StatusActive {
		return ports.TokenPair{}, nil, domain.Unauthorized(domain.MsgInvalidCredentials)
	}

	pair, err := s.codec.IssuePair(user.ID.String(), s.cfg.AccessTokenTTL, s.cfg.RefreshTokenTTL)
	if err != nil {
		return ports.TokenPair{}, nil, err
	}
	return pair, user, nil
}

// Get returns the user identified by id.
func (s *UserService) Get(ctx context.Context, principal *domain.User, id uuid.UUID) (*domain.User, error) {
	if err := Authorize(id, principal); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// Update applies the allow-listed fields of in to the user identified by id.
func (s *UserService) Update(ctx context.Context, principal *domain.User, id uuid.UUID, in ports.UpdateUserInput) (*domain.User, error) {
	if err := Authorize(id, principal); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.ImageURL != nil {
		user.ImageURL = strings.TrimSpace(*in.ImageURL)
	}
	if in.Age != nil {
		age := *in.Age
		user.Age = &age
	}
	if in.Phone != nil {
		phone, err := NormalizePhone(*in.Phone, s.cfg.PhoneRegion)
		if err != nil {
			return nil, err
		}
		user.Phone = phone
	}
	if in.Status != nil {
		if !principal.IsAdmin() {
			return nil, domain.Forbidden(domain.MsgForbidden)
		}
		if !in.Status.IsValid() {
			return nil, domain.Validation("invalid status")
		}
		user.Status = *in.Status
	}
	user.UpdatedAt = s.now().UTC()

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", id.String()).Str("by", principal.ID.String()).Msg("user updated")
	return updated, nil
}

// Delete soft-deletes the user identified by id.
func (s *UserService) Delete(ctx context.Context, principal *domain.User, id uuid.UUID) error {
	if err := Authorize(id, principal); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", id.String()).Str("by", principal.ID.String()).Msg("user deleted")
	return nil
}

// List returns a page of live users. Limit is clamped to [1, 100].
func (s *UserService) List(ctx context.Context, in ports.ListUsersInput) (*ports.ListUsersResult, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	limit := in.Limit
	switch {
	case limit <= 0:
		limit = defaultPageLimit
	case limit > maxPageLimit:
		limit = maxPageLimit
	}

	users, total, err := s.repo.List(ctx, ports.ListUsersFilter{
		Role:   in.Role,
		Status: in.Status,
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &ports.ListUsersResult{
		Items:      users,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

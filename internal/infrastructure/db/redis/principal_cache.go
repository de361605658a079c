package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/schoolpay/user-service/internal/core/domain"
	"github.com/schoolpay/user-service/internal/core/ports"
)

const (
	defaultCacheTTL = 5 * time.Minute

	// tombstone marks a principal that was just written. It outlives any
	// in-flight store read, so a fill racing an update or delete is dropped.
	tombstone    = "-"
	tombstoneTTL = 30 * time.Second
)

// Cmdable is the subset of the go-redis client used by the principal cache.
type Cmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// CachedUserRepository wraps a user store and caches FindByID results.
// Key format: user:principal:<uuid>
//
// Fills use SET NX, and Update and SoftDelete overwrite the key with a short
// tombstone. A read that saw the old row cannot repopulate the key after a
// write. While the tombstone lives, reads go to the store.
//
// Cached entries never carry the password hash, so they are only suitable
// for principal resolution. Cache failures are logged and the store is used.
type CachedUserRepository struct {
	ports.UserRepository

	client Cmdable
	ttl    time.Duration
	logger zerolog.Logger
}

var _ ports.UserRepository = (*CachedUserRepository)(nil)

// NewCachedUserRepository decorates next with a Redis-backed principal cache.
func NewCachedUserRepository(next ports.UserRepository, client Cmdable, ttl time.Duration, logger zerolog.Logger) *CachedUserRepository {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedUserRepository{
		UserRepository: next,
		client:         client,
		ttl:            ttl,
		logger:         logger.With().Str("component", "principal_cache").Logger(),
	}
}

func (r *CachedUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	key := principalKey(id)

	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil && string(raw) == tombstone:
		return r.UserRepository.FindByID(ctx, id)
	case err == nil:
		var u domain.User
		if err := json.Unmarshal(raw, &u); err == nil {
			return &u, nil
		}
		r.logger.Warn().Str("key", key).Msg("discarding undecodable cache entry")
	case !errors.Is(err, redis.Nil):
		r.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}

	u, err := r.UserRepository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(u); err == nil {
		if err := r.client.SetNX(ctx, key, b, r.ttl).Err(); err != nil {
			r.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
		}
	}
	return u, nil
}

func (r *CachedUserRepository) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	updated, err := r.UserRepository.Update(ctx, user)
	r.invalidate(ctx, user.ID)
	return updated, err
}

func (r *CachedUserRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	err := r.UserRepository.SoftDelete(ctx, id)
	r.invalidate(ctx, id)
	return err
}

// invalidate replaces any cached entry with a tombstone.
func (r *CachedUserRepository) invalidate(ctx context.Context, id uuid.UUID) {
	if err := r.client.Set(ctx, principalKey(id), tombstone, tombstoneTTL).Err(); err != nil {
		r.logger.Warn().Err(err).Str("user_id", id.String()).Msg("cache eviction failed")
	}
}

func principalKey(id uuid.UUID) string {
	return fmt.Sprintf("user:principal:%s", id)
}

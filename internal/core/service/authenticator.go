package service

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/schoolpay/user-service/internal/core/domain"
	"github.com/schoolpay/user-service/internal/core/ports"
)

// DefaultWhitelist holds the path fragments that never require a token.
// Matching is by substring: any path containing "/login" is skipped.
var DefaultWhitelist = []string{
	"/signup",
	"/login",
	"/token/refresh",
	"/payments/status",
	"/history/download",
	"/reset-password",
	"/forgot-password",
	"/orders/pos",
	"/by-vendor/download",
	"/schools/search",
	"/status",
}

// AuthenticatorConfig is fixed at startup.
type AuthenticatorConfig struct {
	Enabled   bool
	Whitelist []string
}

// Authenticator resolves the principal behind an inbound token.
type Authenticator struct {
	codec     *TokenCodec
	users     ports.UserRepository
	enabled   bool
	whitelist []string
	log       zerolog.Logger
}

func NewAuthenticator(codec *TokenCodec, users ports.UserRepository, cfg AuthenticatorConfig, log zerolog.Logger) *Authenticator {
	whitelist := cfg.Whitelist
	if whitelist == nil {
		whitelist = DefaultWhitelist
	}
	return &Authenticator{
		codec:     codec,
		users:     users,
		enabled:   cfg.Enabled,
		whitelist: append([]string(nil), whitelist...),
		log:       log,
	}
}

// Skips reports whether a request for path/method bypasses authentication.
func (a *Authenticator) Skips(path, method string) bool {
	if !a.enabled || method == http.MethodOptions {
		return true
	}
	for _, fragment := range a.whitelist {
		if fragment != "" && strings.Contains(path, fragment) {
			return true
		}
	}
	return false
}

// Authenticate returns the live user the token identifies. A nil user with
// a nil error means the request is exempt and no principal applies.
func (a *Authenticator) Authenticate(ctx context.Context, rawToken, path, method string) (*domain.User, error) {
	if a.Skips(path, method) {
		a.log.Debug().Str("path", path).Str("method", method).Msg("authentication skipped")
		return nil, nil
	}

	token := stripBearer(rawToken)
	if token == "" {
		return nil, domain.Unauthorized(domain.MsgTokenMissing)
	}

	claims, err := a.codec.Verify(token)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(claims.Identity)
	if err != nil {
		return nil, domain.Unauthorized(domain.MsgInvalidCredentials)
	}

	user, err := a.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Unauthorized(domain.MsgInvalidCredentials)
		}
		return nil, err
	}
	return user, nil
}

// stripBearer accepts both a bare token and "Bearer <token>".
func stripBearer(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

type principalKey struct{}

// ContextWithPrincipal stores the authenticated user in ctx.
func ContextWithPrincipal(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, principalKey{}, user)
}

// PrincipalFromContext returns the authenticated user, if any.
func PrincipalFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(principalKey{}).(*domain.User)
	return u, ok && u != nil
}

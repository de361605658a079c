package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/schoolpay/user-service/internal/core/domain"
)

func seedUser(t *testing.T, repo *stubUserRepo, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{
		ID:     uuid.New(),
		Email:  uuid.NewString() + "@example.com",
		Phone:  "+1202555" + uuid.NewString()[:4],
		Role:   role,
		Status: domain.StatusActive,
	}
	if _, err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return u
}

func newTestAuthenticator(t *testing.T, cfg AuthenticatorConfig) (*Authenticator, *TokenCodec, *stubUserRepo) {
	t.Helper()
	codec := newTestCodec(t)
	repo := newStubUserRepo()
	return NewAuthenticator(codec, repo, cfg, zerolog.Nop()), codec, repo
}

func TestAuthenticator_WhitelistedPathsSkip(t *testing.T) {
	a, _, _ := newTestAuthenticator(t, AuthenticatorConfig{Enabled: true})

	for _, path := range []string{"/api/v1/users/login", "/api/v1/users/signup", "/api/v1/users/token/refresh", "/anything/login/else"} {
		user, err := a.Authenticate(context.Background(), "", path, http.MethodPost)
		if err != nil || user != nil {
			t.Fatalf("%s: expected skip, got user=%v err=%v", path, user, err)
		}
	}
}

func TestAuthenticator_OptionsAndDisabledSkip(t *testing.T) {
	a, _, _ := newTestAuthenticator(t, AuthenticatorConfig{Enabled: true})
	if user, err := a.Authenticate(context.Background(), "", "/api/v1/users", http.MethodOptions); err != nil || user != nil {
		t.Fatalf("OPTIONS: expected skip, got user=%v err=%v", user, err)
	}

	off, _, _ := newTestAuthenticator(t, AuthenticatorConfig{Enabled: false})
	if user, err := off.Authenticate(context.Background(), "", "/api/v1/users", http.MethodGet); err != nil || user != nil {
		t.Fatalf("disabled: expected skip, got user=%v err=%v", user, err)
	}
}

func TestAuthenticator_CustomWhitelistReplacesDefault(t *testing.T) {
	a, _, _ := newTestAuthenticator(t, AuthenticatorConfig{Enabled: true, Whitelist: []string{"/public"}})

	if !a.Skips("/api/v1/public/info", http.MethodGet) {
		t.Fatalf("expected /public to be skipped")
	}
	if a.Skips("/api/v1/users/login", http.MethodPost) {
		t.Fatalf("default whitelist should not apply")
	}
}

func TestAuthenticator_MissingToken(t *testing.T) {
	a, _, _ := newTestAuthenticator(t, AuthenticatorConfig{Enabled: true})

	for _, raw := range []string{"", "   ", "Bearer "} {
		_, err := a.Authenticate(context.Background(), raw, "/api/v1/users", http.MethodGet)
		if !errors.Is(err, domain.ErrUnauthorized) || err.Error() != domain.MsgTokenMissing {
			t.Fatalf("%q: expected token missing, got %v", raw, err)
		}
	}
}

func TestAuthenticator_InvalidToken(t *testing.T) {
	a, _, _ := newTestAuthenticator(t, AuthenticatorConfig{Enabled: true})

	_, err := a.Authenticate(context.Background(), "garbage", "/api/v1/users", http.MethodGet)
	if err != domain.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAuthenticator_ValidTokenResolvesUser(t *testing.T) {
	a, codec, repo := newTestAuthenticator(t, AuthenticatorConfig{Enabled: true})
	u := seedUser(t, repo, domain.RoleParent)

	token, err := codec.Issue(u.ID.String(), time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	for _, raw := range []string{token, "Bearer " + token, "bearer " + token} {
		got, err := a.Authenticate(context.Background(), raw, "/api/v1/users/"+u.ID.String(), http.MethodGet)
		if err != nil {
			t.Fatalf("Authenticate: %v", err)
		}
		if got.ID != u.ID {
			t.Fatalf("expected %s, got %s", u.ID, got.ID)
		}
	}
}

func TestAuthenticator_UnknownOrDeletedUser(t *testing.T) {
	a, codec, repo := newTestAuthenticator(t, AuthenticatorConfig{Enabled: true})
	u := seedUser(t, repo, domain.RoleParent)
	if err := repo.SoftDelete(context.Background(), u.ID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	for _, identity := range []string{u.ID.String(), uuid.NewString(), "not-a-uuid"} {
		token, err := codec.Issue(identity, time.Hour)
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		_, err = a.Authenticate(context.Background(), token, "/api/v1/users", http.MethodGet)
		if !errors.Is(err, domain.ErrUnauthorized) || err.Error() != domain.MsgInvalidCredentials {
			t.Fatalf("%s: expected invalid credentials, got %v", identity, err)
		}
	}
}

func TestAuthenticator_StoreFailurePropagates(t *testing.T) {
	a, codec, repo := newTestAuthenticator(t, AuthenticatorConfig{Enabled: true})
	boom := errors.New("connection refused")
	repo.findErr = boom

	token, err := codec.Issue(uuid.NewString(), time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	_, err = a.Authenticate(context.Background(), token, "/api/v1/users", http.MethodGet)
	if !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestPrincipalContext(t *testing.T) {
	if _, ok := PrincipalFromContext(context.Background()); ok {
		t.Fatalf("empty context should carry no principal")
	}
	u := &domain.User{ID: uuid.New()}
	got, ok := PrincipalFromContext(ContextWithPrincipal(context.Background(), u))
	if !ok || got.ID != u.ID {
		t.Fatalf("expected principal %s, got %v", u.ID, got)
	}
}

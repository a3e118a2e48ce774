package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/bookshelf/account-service/internal/core/domain"
	"github.com/bookshelf/account-service/internal/core/ports"
)

func TestSessionVerifier_ResolvesCachedSnapshot(t *testing.T) {
	issuer := newTestIssuer()
	cache := newStubSessionCache()
	v := NewSessionVerifier(issuer, cache, zerolog.Nop())

	snap := &domain.SessionSnapshot{ID: "id-1", Username: "newUser", Email: "n@example.com", Password: domain.PasswordPlaceholder, Role: domain.RoleUser}
	_ = cache.Put(context.Background(), "newUser", snap)
	token, _ := issuer.Issue("newUser", domain.RoleUser)

	got, err := v.Resolve(context.Background(), domain.RoleUser, token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got == nil || *got != *snap {
		t.Fatalf("expected cached snapshot, got %+v", got)
	}
}

func TestSessionVerifier_CacheMissIsUnauthenticated(t *testing.T) {
	issuer := newTestIssuer()
	v := NewSessionVerifier(issuer, newStubSessionCache(), zerolog.Nop())
	token, _ := issuer.Issue("neverLoggedIn", domain.RoleUser)

	got, err := v.Resolve(context.Background(), domain.RoleUser, token)
	if err != nil || got != nil {
		t.Fatalf("expected unauthenticated outcome, got %+v / %v", got, err)
	}
}

func TestSessionVerifier_WrongRoleIsUnauthenticated(t *testing.T) {
	issuer := newTestIssuer()
	cache := newStubSessionCache()
	v := NewSessionVerifier(issuer, cache, zerolog.Nop())
	_ = cache.Put(context.Background(), "newUser", &domain.SessionSnapshot{Username: "newUser", Password: domain.PasswordPlaceholder, Role: domain.RoleUser})
	token, _ := issuer.Issue("newUser", domain.RoleUser)

	got, err := v.Resolve(context.Background(), domain.RoleAdmin, token)
	if err != nil || got != nil {
		t.Fatalf("user token must not resolve on admin strategy, got %+v / %v", got, err)
	}
}

func TestSessionVerifier_GarbageToken(t *testing.T) {
	v := NewSessionVerifier(newTestIssuer(), newStubSessionCache(), zerolog.Nop())

	got, err := v.Resolve(context.Background(), domain.RoleUser, "not.a.token")
	if err != nil || got != nil {
		t.Fatalf("expected unauthenticated outcome, got %+v / %v", got, err)
	}
}

func TestSessionVerifier_CacheErrorPropagates(t *testing.T) {
	issuer := newTestIssuer()
	cache := newStubSessionCache()
	cache.getErr = domain.CacheUnavailable(errRedisDown)
	v := NewSessionVerifier(issuer, cache, zerolog.Nop())
	token, _ := issuer.Issue("newUser", domain.RoleUser)

	got, err := v.Resolve(context.Background(), domain.RoleUser, token)
	if got != nil || !errors.Is(err, domain.ErrCacheUnavailable) {
		t.Fatalf("expected CacheUnavailable, got %+v / %v", got, err)
	}
}

// A token issued before an update resolves to the post-update snapshot.
func TestSessionVerifier_ReflectsUpdatedIdentity(t *testing.T) {
	repo := newStubIdentityRepo()
	cache := newStubSessionCache()
	issuer := newTestIssuer()
	creds := newTestCreds()

	seeded := repo.seed("newUser", "pw", "old@example.com", domain.RoleUser)
	auth := NewAuthService(repo, cache, creds, issuer, nil, zerolog.Nop())
	accounts := NewAccountService(repo, cache, creds, nil, zerolog.Nop())
	verifier := NewSessionVerifier(issuer, cache, zerolog.Nop())

	token, err := auth.Login(context.Background(), "newUser", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	email := "new@example.com"
	if _, err := accounts.Update(context.Background(), seeded.ID, ports.UpdateIdentityInput{Email: &email}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := verifier.Resolve(context.Background(), domain.RoleUser, token)
	if err != nil || got == nil {
		t.Fatalf("expected session, got %+v / %v", got, err)
	}
	if got.Email != email {
		t.Fatalf("expected updated email %q, got %q", email, got.Email)
	}
	if got.Password != domain.PasswordPlaceholder {
		t.Fatalf("snapshot leaked password field: %q", got.Password)
	}
}

package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bookshelf/account-service/internal/core/domain"
)

func TestNewJWTIssuer_RejectsBadSecrets(t *testing.T) {
	if _, err := NewJWTIssuer(TokenConfig{UserSecret: "", AdminSecret: "x"}); err == nil {
		t.Fatalf("expected error for empty secret")
	}
	if _, err := NewJWTIssuer(TokenConfig{UserSecret: "same", AdminSecret: "same"}); !errors.Is(err, ErrSecretsShared) {
		t.Fatalf("expected ErrSecretsShared, got %v", err)
	}
}

func TestJWTIssuer_RoleIsolation(t *testing.T) {
	issuer := newTestIssuer()
	roles := []domain.Role{domain.RoleUser, domain.RoleAdmin}

	for _, username := range []string{"newUser", "root", "a", "üñí"} {
		for _, issued := range roles {
			token, err := issuer.Issue(username, issued)
			if err != nil {
				t.Fatalf("issue %s/%s: %v", username, issued, err)
			}
			for _, target := range roles {
				subject, err := issuer.Verify(token, target)
				if issued == target {
					if err != nil || subject != username {
						t.Fatalf("%s token should verify for own role: subject=%q err=%v", issued, subject, err)
					}
					continue
				}
				if err == nil {
					t.Fatalf("%s token verified against %s strategy", issued, target)
				}
			}
		}
	}
}

func TestJWTIssuer_PayloadCarriesNoRole(t *testing.T) {
	issuer := newTestIssuer()
	token, err := issuer.Issue("newUser", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, ok := claims["role"]; ok {
		t.Fatalf("role must not be embedded in the payload: %v", claims)
	}
	if claims["sub"] != "newUser" {
		t.Fatalf("expected subject newUser, got %v", claims["sub"])
	}
}

func TestJWTIssuer_ForgedRoleClaimDoesNotEscalate(t *testing.T) {
	issuer := newTestIssuer()
	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "newUser",
		"role": "Admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := forged.SignedString([]byte(testUserSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := issuer.Verify(signed, domain.RoleAdmin); err == nil {
		t.Fatalf("user-signed token with admin claim must not verify as Admin")
	}
}

func TestJWTIssuer_ExpiredToken(t *testing.T) {
	issuer := newTestIssuer()
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := issuer.Issue("newUser", domain.RoleUser)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	issuer.now = time.Now
	if _, err := issuer.Verify(token, domain.RoleUser); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestJWTIssuer_RejectsOtherAlgorithms(t *testing.T) {
	issuer := newTestIssuer()
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "newUser",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testUserSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := issuer.Verify(signed, domain.RoleUser); err == nil {
		t.Fatalf("HS512 token must be rejected")
	}
}

func TestJWTIssuer_UnknownRole(t *testing.T) {
	issuer := newTestIssuer()
	if _, err := issuer.Issue("newUser", "Guest"); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
}

func TestCredentialVerifier(t *testing.T) {
	creds := newTestCreds()
	hash, err := creds.Hash("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !creds.Verify("s3cret", hash) {
		t.Fatalf("expected password to verify")
	}
	if creds.Verify("S3cret", hash) {
		t.Fatalf("wrong password verified")
	}
	if creds.Verify("s3cret", "not-a-bcrypt-hash") {
		t.Fatalf("malformed hash verified")
	}
}

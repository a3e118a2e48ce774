package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bookshelf/account-service/internal/core/domain"
)

var (
	ErrUnknownRole   = errors.New("unknown role")
	ErrInvalidToken  = errors.New("invalid token")
	ErrSecretsShared = errors.New("user and admin signing secrets must differ")
)

// TokenConfig holds the per-role signing secrets and the token lifetime.
type TokenConfig struct {
	UserSecret  string
	AdminSecret string
	TTL         time.Duration
}

// JWTIssuer signs HS256 tokens whose only identity claim is the subject.
// The role is proven by which secret verifies the signature.
type JWTIssuer struct {
	secrets map[domain.Role][]byte
	ttl     time.Duration
	now     func() time.Time
}

func NewJWTIssuer(cfg TokenConfig) (*JWTIssuer, error) {
	if cfg.UserSecret == "" || cfg.AdminSecret == "" {
		return nil, errors.New("token issuer: signing secrets are required")
	}
	if cfg.UserSecret == cfg.AdminSecret {
		return nil, fmt.Errorf("token issuer: %w", ErrSecretsShared)
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &JWTIssuer{
		secrets: map[domain.Role][]byte{
			domain.RoleUser:  []byte(cfg.UserSecret),
			domain.RoleAdmin: []byte(cfg.AdminSecret),
		},
		ttl: ttl,
		now: time.Now,
	}, nil
}

func (i *JWTIssuer) Issue(username string, role domain.Role) (string, error) {
	secret, ok := i.secrets[role]
	if !ok {
		return "", fmt.Errorf("issue token: %w: %q", ErrUnknownRole, role)
	}

	now := i.now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (i *JWTIssuer) Verify(token string, role domain.Role) (string, error) {
	secret, ok := i.secrets[role]
	if !ok {
		return "", fmt.Errorf("verify token: %w: %q", ErrUnknownRole, role)
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

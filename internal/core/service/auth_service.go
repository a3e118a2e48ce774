package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bookshelf/account-service/internal/core/domain"
	"github.com/bookshelf/account-service/internal/core/ports"
)

// AuthService implements registration, login and logout.
type AuthService struct {
	repo   ports.IdentityRepository
	cache  ports.SessionCache
	creds  *CredentialVerifier
	tokens ports.TokenIssuer
	audit  ports.AuthEventRecorder
	log    zerolog.Logger
}

func NewAuthService(
	repo ports.IdentityRepository,
	cache ports.SessionCache,
	creds *CredentialVerifier,
	tokens ports.TokenIssuer,
	audit ports.AuthEventRecorder,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		repo:   repo,
		cache:  cache,
		creds:  creds,
		tokens: tokens,
		audit:  audit,
		log:    log,
	}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Identity, error) {
	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}

	var fields []domain.FieldError
	if strings.TrimSpace(in.Username) == "" {
		fields = append(fields, domain.FieldError{Field: "username", Message: "username is required"})
	}
	if in.Password == "" {
		fields = append(fields, domain.FieldError{Field: "password", Message: "password is required"})
	}
	if !role.Valid() {
		fields = append(fields, domain.FieldError{Field: "role", Message: "role must be one of: User Admin"})
	}
	if len(fields) > 0 {
		return nil, domain.ValidationFailed(fields...)
	}

	hash, err := s.creds.Hash(in.Password)
	if err != nil {
		return nil, domain.ServerFault(err)
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.Identity{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	s.record(created.Username, domain.EventRegistered, "")
	return created, nil
}

// Login runs the session bootstrap: store lookup, credential check, session
// cache write, token issue. Each step is terminal on failure; a token is
// only returned once the session snapshot is cached.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", s.authenticationFailed(username, "missing_credentials")
	}

	identity, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.creds.burn(password)
			return "", s.authenticationFailed(username, "unknown_username")
		}
		return "", err
	}

	if !s.creds.Verify(password, identity.PasswordHash) {
		return "", s.authenticationFailed(username, "wrong_password")
	}

	if err := s.cache.Put(ctx, identity.Username, identity.Snapshot()); err != nil {
		s.log.Error().Err(err).Str("username", identity.Username).Msg("session cache write failed, login aborted")
		s.record(identity.Username, domain.EventLoginFailed, "session_cache_unavailable")
		return "", err
	}

	token, err := s.tokens.Issue(identity.Username, identity.Role)
	if err != nil {
		s.log.Error().Err(err).Str("username", identity.Username).Str("role", string(identity.Role)).Msg("token issue failed")
		return "", domain.ServerFault(err)
	}

	s.record(identity.Username, domain.EventLoginSucceeded, "")
	s.log.Info().Str("username", identity.Username).Str("role", string(identity.Role)).Msg("login succeeded")
	return token, nil
}

// Logout drops the cached session; tokens already issued for username stop
// resolving immediately.
func (s *AuthService) Logout(ctx context.Context, username string) error {
	if err := s.cache.Delete(ctx, username); err != nil {
		return err
	}
	s.record(username, domain.EventLoggedOut, "")
	return nil
}

// authenticationFailed collapses every credential failure into one error so
// that unknown usernames and wrong passwords are indistinguishable to the
// client. The reason is kept for the audit trail only.
func (s *AuthService) authenticationFailed(username, reason string) error {
	s.log.Info().Str("username", username).Str("reason", reason).Msg("login rejected")
	s.record(username, domain.EventLoginFailed, reason)
	return domain.AuthenticationFailed()
}

func (s *AuthService) record(username string, typ domain.AuthEventType, reason string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(domain.AuthEvent{
		Username:  username,
		Type:      typ,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	})
}

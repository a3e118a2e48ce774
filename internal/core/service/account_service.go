package service

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/bookshelf/account-service/internal/core/domain"
	"github.com/bookshelf/account-service/internal/core/ports"
)

const updateLockShards = 64

// AccountService reads and mutates identities, keeping the session cache in
// step with every successful mutation.
type AccountService struct {
	repo  ports.IdentityRepository
	cache ports.SessionCache
	creds *CredentialVerifier
	audit ports.AuthEventRecorder
	log   zerolog.Logger

	// Store write and snapshot refresh for one identity run under the same
	// shard lock so this instance never caches an older write over a newer one.
	locks [updateLockShards]sync.Mutex
}

func NewAccountService(
	repo ports.IdentityRepository,
	cache ports.SessionCache,
	creds *CredentialVerifier,
	audit ports.AuthEventRecorder,
	log zerolog.Logger,
) *AccountService {
	return &AccountService{repo: repo, cache: cache, creds: creds, audit: audit, log: log}
}

func (s *AccountService) Get(ctx context.Context, id string) (*domain.Identity, error) {
	return s.repo.FindByID(ctx, id)
}

// Update applies the patch to the store and then overwrites the cached
// snapshot if the user has a live session. Without one the cache is left
// empty, so a logged-out token stays revoked. If the snapshot cannot be
// written the update is reported as failed, even though the store already
// holds the new state.
func (s *AccountService) Update(ctx context.Context, id string, in ports.UpdateIdentityInput) (*domain.Identity, error) {
	patch, err := s.buildPatch(in)
	if err != nil {
		return nil, err
	}

	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	updated, err := s.repo.UpdateByID(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	refreshed, err := s.cache.Refresh(ctx, updated.Username, updated.Snapshot())
	if err != nil {
		s.log.Error().Err(err).
			Str("identity_id", updated.ID).
			Str("username", updated.Username).
			Msg("identity updated but session snapshot refresh failed")
		return nil, err
	}

	if refreshed && s.audit != nil {
		s.audit.Record(domain.AuthEvent{
			Username:  updated.Username,
			Type:      domain.EventSessionRefreshed,
			Timestamp: time.Now().UTC(),
		})
	}
	return updated, nil
}

func (s *AccountService) buildPatch(in ports.UpdateIdentityInput) (domain.IdentityPatch, error) {
	var (
		patch  domain.IdentityPatch
		fields []domain.FieldError
	)

	if in.Email != nil {
		if *in.Email == "" {
			fields = append(fields, domain.FieldError{Field: "email", Message: "email must not be empty"})
		}
		patch.Email = in.Email
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			fields = append(fields, domain.FieldError{Field: "role", Message: "role must be one of: User Admin"})
		}
		patch.Role = in.Role
	}
	if in.Password != nil {
		if *in.Password == "" {
			fields = append(fields, domain.FieldError{Field: "password", Message: "password must not be empty"})
		} else {
			hash, err := s.creds.Hash(*in.Password)
			if err != nil {
				return patch, domain.ServerFault(err)
			}
			patch.PasswordHash = &hash
		}
	}

	if len(fields) > 0 {
		return patch, domain.ValidationFailed(fields...)
	}
	if patch.Empty() {
		return patch, domain.ValidationFailed(domain.FieldError{Field: "body", Message: domain.MsgEmptyPatch})
	}
	return patch, nil
}

func (s *AccountService) lockFor(id string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &s.locks[h.Sum32()%updateLockShards]
}

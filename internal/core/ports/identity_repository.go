package ports

import (
	"context"

	"github.com/bookshelf/account-service/internal/core/domain"
)

// IdentityRepository is the gateway to the identity store. Every error it
// returns is a *domain.Error: NotFound, ValidationFailed or ServerFault.
type IdentityRepository interface {
	FindByUsername(ctx context.Context, username string) (*domain.Identity, error)
	FindByID(ctx context.Context, id string) (*domain.Identity, error)
	Create(ctx context.Context, identity *domain.Identity) (*domain.Identity, error)
	// UpdateByID applies patch and returns the identity as stored afterwards.
	UpdateByID(ctx context.Context, id string, patch domain.IdentityPatch) (*domain.Identity, error)
}

// SessionCache stores authenticated identity snapshots keyed by username.
// Failures are reported as CacheUnavailable.
type SessionCache interface {
	Put(ctx context.Context, username string, snapshot *domain.SessionSnapshot) error
	// Refresh overwrites the snapshot only if a session already exists for
	// username, keeping its remaining lifetime. It reports whether one did.
	Refresh(ctx context.Context, username string, snapshot *domain.SessionSnapshot) (bool, error)
	// Get returns (nil, nil) when no session exists for username.
	Get(ctx context.Context, username string) (*domain.SessionSnapshot, error)
	Delete(ctx context.Context, username string) error
}

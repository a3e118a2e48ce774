package ports

import (
	"context"

	"github.com/bookshelf/account-service/internal/core/domain"
)

// AuthEventRepository persists the authentication audit trail.
type AuthEventRepository interface {
	InsertEvent(ctx context.Context, event *domain.AuthEvent) error
}

// AuthEventRecorder accepts audit events without blocking the caller.
// Recording never influences the outcome of the request that produced the
// event.
type AuthEventRecorder interface {
	Record(event domain.AuthEvent)
}

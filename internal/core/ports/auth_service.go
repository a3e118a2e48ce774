package ports

import (
	"context"

	"github.com/bookshelf/account-service/internal/core/domain"
)

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     domain.Role // empty means RoleUser
}

// UpdateIdentityInput is a partial patch in plain form; the service hashes
// passwords before they reach the store.
type UpdateIdentityInput struct {
	Email    *string
	Password *string
	Role     *domain.Role
}

// AuthService covers registration and the login flow.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.Identity, error)
	// Login returns a bearer token scoped to the identity's role.
	Login(ctx context.Context, username, password string) (string, error)
	Logout(ctx context.Context, username string) error
}

// AccountService covers identity reads and mutations.
type AccountService interface {
	Get(ctx context.Context, id string) (*domain.Identity, error)
	Update(ctx context.Context, id string, input UpdateIdentityInput) (*domain.Identity, error)
}

// SessionResolver is the role verification strategy: it turns a bearer
// token into the cached identity it stands for.
type SessionResolver interface {
	// Resolve returns (nil, nil) when the token does not authenticate for
	// role. A non-nil error means the session cache could not be consulted.
	Resolve(ctx context.Context, role domain.Role, token string) (*domain.SessionSnapshot, error)
}

// TokenIssuer signs and verifies role-scoped bearer tokens.
type TokenIssuer interface {
	Issue(username string, role domain.Role) (string, error)
	// Verify returns the subject username when token was signed with role's
	// secret and has not expired.
	Verify(token string, role domain.Role) (string, error)
}

package domain

import "time"

// Role scopes both the signing secret of a bearer token and the routes it
// may reach.
type Role string

const (
	RoleUser  Role = "User"
	RoleAdmin Role = "Admin"
)

// PasswordPlaceholder is the only value ever stored in a session snapshot's
// password field.
const PasswordPlaceholder = "<PROTECTED>"

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Identity is a persisted account record.
type Identity struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IdentityPatch carries the mutable fields of an identity. Nil fields are
// left untouched.
type IdentityPatch struct {
	Email        *string
	PasswordHash *string
	Role         *Role
}

// Empty reports whether the patch changes nothing.
func (p IdentityPatch) Empty() bool {
	return p.Email == nil && p.PasswordHash == nil && p.Role == nil
}

// SessionSnapshot is the cached, sanitized projection of an Identity.
type SessionSnapshot struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// Snapshot projects the identity into a session snapshot. The password hash
// never leaves the identity.
func (i *Identity) Snapshot() *SessionSnapshot {
	return &SessionSnapshot{
		ID:       i.ID,
		Username: i.Username,
		Email:    i.Email,
		Password: PasswordPlaceholder,
		Role:     i.Role,
	}
}

package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/bookshelf/account-service/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubIdentityRepo struct {
	mu      sync.Mutex
	byName  map[string]*domain.Identity
	findErr error
	updErr  error
	seq     int
}

func newStubIdentityRepo() *stubIdentityRepo {
	return &stubIdentityRepo{byName: make(map[string]*domain.Identity)}
}

func cloneIdentity(i *domain.Identity) *domain.Identity {
	if i == nil {
		return nil
	}
	clone := *i
	return &clone
}

func (r *stubIdentityRepo) FindByUsername(_ context.Context, username string) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	if u, ok := r.byName[username]; ok {
		return cloneIdentity(u), nil
	}
	return nil, domain.NotFound(domain.MsgUserNotFound)
}

func (r *stubIdentityRepo) FindByID(_ context.Context, id string) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byName {
		if u.ID == id {
			return cloneIdentity(u), nil
		}
	}
	return nil, domain.NotFound(domain.MsgUserNotFound)
}

func (r *stubIdentityRepo) Create(_ context.Context, identity *domain.Identity) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[identity.Username]; exists {
		return nil, domain.ValidationFailed(domain.FieldError{Field: "username", Message: domain.MsgUsernameTaken})
	}
	r.seq++
	stored := cloneIdentity(identity)
	stored.ID = "id-" + strconv.Itoa(r.seq)
	r.byName[stored.Username] = stored
	return cloneIdentity(stored), nil
}

func (r *stubIdentityRepo) UpdateByID(_ context.Context, id string, patch domain.IdentityPatch) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updErr != nil {
		return nil, r.updErr
	}
	for _, u := range r.byName {
		if u.ID != id {
			continue
		}
		if patch.Email != nil {
			u.Email = *patch.Email
		}
		if patch.PasswordHash != nil {
			u.PasswordHash = *patch.PasswordHash
		}
		if patch.Role != nil {
			u.Role = *patch.Role
		}
		u.UpdatedAt = time.Now().UTC()
		return cloneIdentity(u), nil
	}
	return nil, domain.NotFound(domain.MsgUserNotFound)
}

// seed stores an identity with a bcrypt hash of password.
func (r *stubIdentityRepo) seed(username, password, email string, role domain.Role) *domain.Identity {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	created, err := r.Create(context.Background(), &domain.Identity{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	})
	if err != nil {
		panic(err)
	}
	return created
}

type stubSessionCache struct {
	mu      sync.Mutex
	entries map[string]domain.SessionSnapshot
	putErr  error
	getErr  error
	delErr  error
	puts    int
}

func newStubSessionCache() *stubSessionCache {
	return &stubSessionCache{entries: make(map[string]domain.SessionSnapshot)}
}

func (c *stubSessionCache) Put(_ context.Context, username string, snap *domain.SessionSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.putErr != nil {
		return c.putErr
	}
	c.puts++
	c.entries[username] = *snap
	return nil
}

func (c *stubSessionCache) Refresh(_ context.Context, username string, snap *domain.SessionSnapshot) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.putErr != nil {
		return false, c.putErr
	}
	if _, ok := c.entries[username]; !ok {
		return false, nil
	}
	c.puts++
	c.entries[username] = *snap
	return true, nil
}

// login stores a session as a successful login would.
func (c *stubSessionCache) login(identity *domain.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[identity.Username] = *identity.Snapshot()
}

func (c *stubSessionCache) Get(_ context.Context, username string) (*domain.SessionSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	snap, ok := c.entries[username]
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

func (c *stubSessionCache) Delete(_ context.Context, username string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.delErr != nil {
		return c.delErr
	}
	delete(c.entries, username)
	return nil
}

type stubRecorder struct {
	mu     sync.Mutex
	events []domain.AuthEvent
}

func (r *stubRecorder) Record(e domain.AuthEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *stubRecorder) types() []domain.AuthEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.AuthEventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

var errRedisDown = errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")

const (
	testUserSecret  = "user-secret"
	testAdminSecret = "admin-secret"
)

func newTestIssuer() *JWTIssuer {
	issuer, err := NewJWTIssuer(TokenConfig{UserSecret: testUserSecret, AdminSecret: testAdminSecret, TTL: time.Hour})
	if err != nil {
		panic(err)
	}
	return issuer
}

func newTestCreds() *CredentialVerifier {
	return NewCredentialVerifier(bcrypt.MinCost)
}

package service

import (
	"golang.org/x/crypto/bcrypt"
)

// CredentialVerifier hashes and checks passwords with bcrypt.
type CredentialVerifier struct {
	cost int
	// decoy is compared against when the username is unknown so both login
	// failure paths cost one bcrypt comparison.
	decoy []byte
}

// NewCredentialVerifier returns a verifier using cost, or bcrypt.DefaultCost
// when cost is out of range.
func NewCredentialVerifier(cost int) *CredentialVerifier {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	decoy, _ := bcrypt.GenerateFromPassword([]byte("decoy-password"), cost)
	return &CredentialVerifier{cost: cost, decoy: decoy}
}

func (v *CredentialVerifier) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), v.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether plain matches hash.
func (v *CredentialVerifier) Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

func (v *CredentialVerifier) burn(plain string) {
	_ = bcrypt.CompareHashAndPassword(v.decoy, []byte(plain))
}

package application

import "golang.org/x/crypto/bcrypt"

// MaxPasswordLength is bcrypt's input ceiling; longer secrets are rejected at
// validation time instead of being silently truncated.
const MaxPasswordLength = 72

// PasswordHasher creates and verifies bcrypt password hashes.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher builds a hasher with the given bcrypt cost, falling back
// to the library default when the cost is out of range.
func NewPasswordHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return PasswordHasher{cost: cost}
}

// Hash derives a bcrypt hash for storage.
func (h PasswordHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify compares a stored hash against a candidate password. Mismatches and
// malformed stored hashes both resolve to ErrInvalidCredentials so login
// failures stay indistinguishable to callers.
func (h PasswordHasher) Verify(hashedPassword, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

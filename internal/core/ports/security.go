package ports

import (
	"context"
	"time"

	"github.com/intersect-health/fhir-api/internal/core/domain"
)

// PasswordHasher hashes and verifies passwords with a one-way salted function.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	// Verify reports whether plaintext matches hash. Malformed hashes fail closed.
	Verify(plaintext, hash string) bool
	// DummyVerify spends the same work as Verify without a stored hash.
	DummyVerify(plaintext string)
}

// TokenManager issues and validates signed access tokens.
type TokenManager interface {
	Issue(userID, email string, role domain.Role) (token string, expiresAt time.Time, err error)
	Validate(token string) (*domain.Claims, error)
}

// LoginLimiter throttles repeated failed logins per email.
type LoginLimiter interface {
	Blocked(ctx context.Context, email string) (bool, error)
	RecordFailure(ctx context.Context, email string) error
	Reset(ctx context.Context, email string) error
}

package ports

import (
	"context"
	"time"

	"github.com/intersect-health/fhir-api/internal/core/domain"
)

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
	User        *domain.User
}

// AuthService orchestrates registration, login and token based identity.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	// Authenticate validates a raw token and, when configured, re-checks that
	// the referenced account still exists and is active.
	Authenticate(ctx context.Context, token string) (*domain.Claims, error)
	CurrentUser(ctx context.Context, token string) (*domain.User, error)
}

// UserService covers profile and administrative account updates.
type UserService interface {
	Get(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.User, int64, error)
	UpdateProfile(ctx context.Context, email, firstName, lastName string) (*domain.User, error)
	ChangeRole(ctx context.Context, actor, email, role string) (*domain.User, error)
	SetActive(ctx context.Context, actor, email string, active bool) (*domain.User, error)
}

package ports

import (
	"context"

	"github.com/intersect-health/fhir-api/internal/core/domain"
)

// ListFilter carries paging parameters shared by list endpoints.
type ListFilter struct {
	Offset int
	Count  int
}

// UserRepository persists staff accounts. Create must rely on a unique key
// on the email and return domain.ErrDuplicateEmail when it is violated.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.User, int64, error)
	UpdateRole(ctx context.Context, email string, role domain.Role) (*domain.User, error)
	UpdateActive(ctx context.Context, email string, active bool) (*domain.User, error)
	UpdateProfile(ctx context.Context, email, firstName, lastName string) (*domain.User, error)
}

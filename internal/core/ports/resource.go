package ports

import (
	"context"

	"github.com/intersect-health/fhir-api/internal/core/domain"
)

// ResourceRepository stores FHIR documents, one collection per resource type.
type ResourceRepository interface {
	// Insert returns domain.ErrResourceExists when the id is already taken.
	Insert(ctx context.Context, resourceType string, r domain.Resource) error
	FindByID(ctx context.Context, resourceType, id string) (domain.Resource, error)
	List(ctx context.Context, resourceType string, filter ListFilter) ([]domain.Resource, error)
	Replace(ctx context.Context, resourceType, id string, r domain.Resource) error
	Delete(ctx context.Context, resourceType, id string) error
}

// ResourceService exposes CRUD over the supported resource types.
type ResourceService interface {
	Create(ctx context.Context, actor, resourceType string, r domain.Resource) (domain.Resource, error)
	Get(ctx context.Context, resourceType, id string) (domain.Resource, error)
	List(ctx context.Context, resourceType string, filter ListFilter) ([]domain.Resource, error)
	Update(ctx context.Context, actor, resourceType, id string, r domain.Resource) (domain.Resource, error)
	Delete(ctx context.Context, actor, resourceType, id string) error
}

package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/intersect-health/fhir-api/internal/api/metrics"
	"github.com/intersect-health/fhir-api/internal/core/domain"
	"github.com/intersect-health/fhir-api/internal/core/ports"
)

// ResourceService implements CRUD over the supported FHIR resource types.
// Documents are stored as given apart from resourceType and id.
type ResourceService struct {
	options
	repo  ports.ResourceRepository
	newID func() string
	log   zerolog.Logger
}

// NewResourceService builds the service. A nil audit disables the trail; of
// the options only WithClock applies.
func NewResourceService(repo ports.ResourceRepository, audit ports.AuditRecorder, log zerolog.Logger, opts ...Option) *ResourceService {
	o := buildOptions(append(opts, WithAuditRecorder(audit)))
	return &ResourceService{repo: repo, options: o, newID: uuid.NewString, log: log}
}

func (s *ResourceService) Create(ctx context.Context, actor, resourceType string, r domain.Resource) (domain.Resource, error) {
	doc, err := prepare(resourceType, r)
	if err != nil {
		return nil, err
	}
	if _, present := doc["id"]; !present {
		doc["id"] = fmt.Sprintf("%s-%s", domain.IDPrefix(resourceType), s.newID())
	}

	if err := s.repo.Insert(ctx, resourceType, doc); err != nil {
		s.record(actor, domain.AuditResourceCreate, domain.OutcomeFailure, resourceType, doc.ID())
		return nil, err
	}
	metrics.ResourceOperationsTotal.WithLabelValues(resourceType, "create").Inc()
	s.record(actor, domain.AuditResourceCreate, domain.OutcomeSuccess, resourceType, doc.ID())
	return doc, nil
}

func (s *ResourceService) Get(ctx context.Context, resourceType, id string) (domain.Resource, error) {
	if !domain.IsSupportedResource(resourceType) {
		return nil, domain.ErrUnsupportedResource
	}
	doc, err := s.repo.FindByID(ctx, resourceType, id)
	if err != nil {
		return nil, err
	}
	metrics.ResourceOperationsTotal.WithLabelValues(resourceType, "read").Inc()
	return doc, nil
}

func (s *ResourceService) List(ctx context.Context, resourceType string, filter ports.ListFilter) ([]domain.Resource, error) {
	if !domain.IsSupportedResource(resourceType) {
		return nil, domain.ErrUnsupportedResource
	}
	docs, err := s.repo.List(ctx, resourceType, normalizePage(filter))
	if err != nil {
		return nil, err
	}
	metrics.ResourceOperationsTotal.WithLabelValues(resourceType, "list").Inc()
	return docs, nil
}

// Update replaces the stored document. The path id always wins over any id
// in the body.
func (s *ResourceService) Update(ctx context.Context, actor, resourceType, id string, r domain.Resource) (domain.Resource, error) {
	doc, err := prepare(resourceType, r)
	if err != nil {
		return nil, err
	}
	doc["id"] = id

	if err := s.repo.Replace(ctx, resourceType, id, doc); err != nil {
		s.record(actor, domain.AuditResourceUpdate, domain.OutcomeFailure, resourceType, id)
		return nil, err
	}
	metrics.ResourceOperationsTotal.WithLabelValues(resourceType, "update").Inc()
	s.record(actor, domain.AuditResourceUpdate, domain.OutcomeSuccess, resourceType, id)
	return doc, nil
}

func (s *ResourceService) Delete(ctx context.Context, actor, resourceType, id string) error {
	if !domain.IsSupportedResource(resourceType) {
		return domain.ErrUnsupportedResource
	}
	if err := s.repo.Delete(ctx, resourceType, id); err != nil {
		s.record(actor, domain.AuditResourceDelete, domain.OutcomeFailure, resourceType, id)
		return err
	}
	metrics.ResourceOperationsTotal.WithLabelValues(resourceType, "delete").Inc()
	s.record(actor, domain.AuditResourceDelete, domain.OutcomeSuccess, resourceType, id)
	return nil
}

// prepare copies r, drops any storage key, and reconciles resourceType.
func prepare(resourceType string, r domain.Resource) (domain.Resource, error) {
	if !domain.IsSupportedResource(resourceType) {
		return nil, domain.ErrUnsupportedResource
	}
	if r == nil {
		return nil, fmt.Errorf("%w: empty body", domain.ErrInvalidResource)
	}

	doc := make(domain.Resource, len(r)+2)
	for k, v := range r {
		doc[k] = v
	}
	delete(doc, "_id")

	switch t, present := doc["resourceType"]; {
	case !present:
		doc["resourceType"] = resourceType
	case t != resourceType:
		return nil, fmt.Errorf("%w: resourceType %v does not match %s", domain.ErrInvalidResource, t, resourceType)
	}

	if id, present := doc["id"]; present {
		if s, ok := id.(string); !ok || s == "" {
			return nil, fmt.Errorf("%w: id must be a non-empty string", domain.ErrInvalidResource)
		}
	}
	return doc, nil
}

func (s *ResourceService) record(actor string, action domain.AuditAction, outcome, resourceType, id string) {
	s.audit.Record(domain.AuditEvent{
		Actor:     actor,
		Action:    action,
		Outcome:   outcome,
		Target:    resourceType + "/" + id,
		Timestamp: s.stamp(),
	})
}

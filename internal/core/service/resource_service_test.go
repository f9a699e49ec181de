package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/intersect-health/fhir-api/internal/core/domain"
	"github.com/intersect-health/fhir-api/internal/core/ports"
)

type stubResourceRepo struct {
	docs       map[string]map[string]domain.Resource
	lastFilter ports.ListFilter
}

func newStubResourceRepo() *stubResourceRepo {
	return &stubResourceRepo{docs: make(map[string]map[string]domain.Resource)}
}

func (r *stubResourceRepo) Insert(_ context.Context, t string, res domain.Resource) error {
	if r.docs[t] == nil {
		r.docs[t] = make(map[string]domain.Resource)
	}
	if _, ok := r.docs[t][res.ID()]; ok {
		return domain.ErrResourceExists
	}
	r.docs[t][res.ID()] = res
	return nil
}

func (r *stubResourceRepo) FindByID(_ context.Context, t, id string) (domain.Resource, error) {
	res, ok := r.docs[t][id]
	if !ok {
		return nil, domain.ErrResourceNotFound
	}
	return res, nil
}

func (r *stubResourceRepo) List(_ context.Context, t string, f ports.ListFilter) ([]domain.Resource, error) {
	r.lastFilter = f
	var out []domain.Resource
	for _, res := range r.docs[t] {
		out = append(out, res)
	}
	return out, nil
}

func (r *stubResourceRepo) Replace(_ context.Context, t, id string, res domain.Resource) error {
	if _, ok := r.docs[t][id]; !ok {
		return domain.ErrResourceNotFound
	}
	r.docs[t][id] = res
	return nil
}

func (r *stubResourceRepo) Delete(_ context.Context, t, id string) error {
	if _, ok := r.docs[t][id]; !ok {
		return domain.ErrResourceNotFound
	}
	delete(r.docs[t], id)
	return nil
}

var resourceClock = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func newTestResourceService() (*ResourceService, *stubResourceRepo, *captureRecorder) {
	repo := newStubResourceRepo()
	rec := &captureRecorder{}
	svc := NewResourceService(repo, rec, zerolog.Nop(), WithClock(func() time.Time { return resourceClock }))
	svc.newID = func() string { return "fixed" }
	return svc, repo, rec
}

func TestResourceService_Create_GeneratesID(t *testing.T) {
	svc, repo, rec := newTestResourceService()

	in := domain.Resource{"gender": "female", "_id": "should-be-dropped"}
	out, err := svc.Create(context.Background(), "n@x.com", "Patient", in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if out.ID() != "patient-fixed" || out.Type() != "Patient" {
		t.Fatalf("unexpected resource: %+v", out)
	}
	if _, ok := out["_id"]; ok {
		t.Fatalf("expected _id stripped")
	}
	if _, ok := in["id"]; ok {
		t.Fatalf("input must not be mutated")
	}
	if _, ok := repo.docs["Patient"]["patient-fixed"]; !ok {
		t.Fatalf("expected stored document")
	}
	if len(rec.events) != 1 || rec.events[0].Target != "Patient/patient-fixed" {
		t.Fatalf("unexpected audit: %+v", rec.events)
	}
	if !rec.events[0].Timestamp.Equal(resourceClock) {
		t.Fatalf("expected audit timestamp %v, got %v", resourceClock, rec.events[0].Timestamp)
	}
}

func TestResourceService_Create_Conflicts(t *testing.T) {
	svc, _, _ := newTestResourceService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, "a", "Observation", domain.Resource{"id": "obs-1"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, "a", "Observation", domain.Resource{"id": "obs-1"}); !errors.Is(err, domain.ErrResourceExists) {
		t.Fatalf("expected ErrResourceExists, got %v", err)
	}
}

func TestResourceService_Create_Invalid(t *testing.T) {
	svc, _, _ := newTestResourceService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, "a", "Spaceship", domain.Resource{}); !errors.Is(err, domain.ErrUnsupportedResource) {
		t.Fatalf("expected ErrUnsupportedResource, got %v", err)
	}
	if _, err := svc.Create(ctx, "a", "Patient", domain.Resource{"resourceType": "Device"}); !errors.Is(err, domain.ErrInvalidResource) {
		t.Fatalf("expected ErrInvalidResource for type mismatch, got %v", err)
	}
	if _, err := svc.Create(ctx, "a", "Patient", domain.Resource{"id": 42.0}); !errors.Is(err, domain.ErrInvalidResource) {
		t.Fatalf("expected ErrInvalidResource for numeric id, got %v", err)
	}
	if _, err := svc.Create(ctx, "a", "Patient", nil); !errors.Is(err, domain.ErrInvalidResource) {
		t.Fatalf("expected ErrInvalidResource for nil body, got %v", err)
	}
}

func TestResourceService_UpdateUsesPathID(t *testing.T) {
	svc, repo, _ := newTestResourceService()
	ctx := context.Background()
	_, _ = svc.Create(ctx, "a", "Device", domain.Resource{"id": "dev-1", "status": "active"})

	out, err := svc.Update(ctx, "a", "Device", "dev-1", domain.Resource{"id": "other", "status": "inactive"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if out.ID() != "dev-1" || repo.docs["Device"]["dev-1"]["status"] != "inactive" {
		t.Fatalf("unexpected update result: %+v", out)
	}
	if _, err := svc.Update(ctx, "a", "Device", "missing", domain.Resource{}); !errors.Is(err, domain.ErrResourceNotFound) {
		t.Fatalf("expected ErrResourceNotFound, got %v", err)
	}
}

func TestResourceService_GetListDelete(t *testing.T) {
	svc, repo, _ := newTestResourceService()
	ctx := context.Background()
	_, _ = svc.Create(ctx, "a", "Task", domain.Resource{"id": "task-1"})

	if _, err := svc.Get(ctx, "Task", "task-1"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, err := svc.Get(ctx, "Task", "nope"); !errors.Is(err, domain.ErrResourceNotFound) {
		t.Fatalf("expected ErrResourceNotFound, got %v", err)
	}

	docs, err := svc.List(ctx, "Task", ports.ListFilter{Count: 5000})
	if err != nil || len(docs) != 1 {
		t.Fatalf("list: %v (%d docs)", err, len(docs))
	}
	if repo.lastFilter.Count != maxPageSize {
		t.Fatalf("expected count capped, got %d", repo.lastFilter.Count)
	}

	if err := svc.Delete(ctx, "a", "Task", "task-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, "a", "Task", "task-1"); !errors.Is(err, domain.ErrResourceNotFound) {
		t.Fatalf("expected ErrResourceNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, "a", "patient", "x"); !errors.Is(err, domain.ErrUnsupportedResource) {
		t.Fatalf("expected ErrUnsupportedResource for lowercase type, got %v", err)
	}
}

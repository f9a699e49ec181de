package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/intersect-health/fhir-api/internal/api/middleware"
	"github.com/intersect-health/fhir-api/internal/core/domain"
	"github.com/intersect-health/fhir-api/internal/core/ports"
)

func withClaims(c echo.Context, email string, role domain.Role) {
	middleware.SetClaims(c, &domain.Claims{Subject: email, Email: email, Role: role})
}

type stubResourceService struct {
	created  domain.Resource
	actor    string
	filter   ports.ListFilter
	getErr   error
	deleteID string
}

func (s *stubResourceService) Create(_ context.Context, actor, t string, r domain.Resource) (domain.Resource, error) {
	s.actor = actor
	s.created = r
	out := domain.Resource{"resourceType": t, "id": "patient-1"}
	for k, v := range r {
		out[k] = v
	}
	return out, nil
}

func (s *stubResourceService) Get(_ context.Context, t, id string) (domain.Resource, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return domain.Resource{"resourceType": t, "id": id}, nil
}

func (s *stubResourceService) List(_ context.Context, _ string, f ports.ListFilter) ([]domain.Resource, error) {
	s.filter = f
	return nil, nil
}

func (s *stubResourceService) Update(_ context.Context, actor, t, id string, r domain.Resource) (domain.Resource, error) {
	s.actor = actor
	r["id"] = id
	return r, nil
}

func (s *stubResourceService) Delete(_ context.Context, actor, _, id string) error {
	s.actor = actor
	s.deleteID = id
	return nil
}

func resourceContext(e *echo.Echo, req *http.Request, rec *httptest.ResponseRecorder, t, id string) echo.Context {
	c := e.NewContext(req, rec)
	if id == "" {
		c.SetParamNames("type")
		c.SetParamValues(t)
	} else {
		c.SetParamNames("type", "id")
		c.SetParamValues(t, id)
	}
	return c
}

func TestResourceHandler_Create(t *testing.T) {
	e := newTestEcho()
	svc := &stubResourceService{}
	handler := NewResourceHandler(svc)

	rec := httptest.NewRecorder()
	req := jsonRequest(http.MethodPost, "/api/v1/Patient", `{"name":[{"family":"Ruiz"}]}`)
	c := resourceContext(e, req, rec, "Patient", "")
	withClaims(c, "doc@x.com", domain.RolePractitioner)

	if err := handler.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if svc.actor != "doc@x.com" {
		t.Fatalf("expected actor from claims, got %q", svc.actor)
	}
	if _, leaked := svc.created["type"]; leaked {
		t.Fatalf("path params leaked into the document: %+v", svc.created)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/api/v1/Patient/patient-1" {
		t.Fatalf("unexpected location %q", loc)
	}
}

func TestResourceHandler_UnknownType(t *testing.T) {
	e := newTestEcho()
	handler := NewResourceHandler(&stubResourceService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/Spaceship/1", nil)
	c := resourceContext(e, req, httptest.NewRecorder(), "Spaceship", "1")
	if err := handler.Get(c); !errors.Is(err, domain.ErrUnsupportedResource) {
		t.Fatalf("expected ErrUnsupportedResource, got %v", err)
	}
}

func TestResourceHandler_GetNotFound(t *testing.T) {
	e := newTestEcho()
	handler := NewResourceHandler(&stubResourceService{getErr: domain.ErrResourceNotFound})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := resourceContext(e, req, httptest.NewRecorder(), "Observation", "obs-1")
	if err := handler.Get(c); !errors.Is(err, domain.ErrResourceNotFound) {
		t.Fatalf("expected ErrResourceNotFound, got %v", err)
	}
}

func TestResourceHandler_ListPaging(t *testing.T) {
	e := newTestEcho()
	svc := &stubResourceService{}
	handler := NewResourceHandler(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/Patient?_count=5&_offset=10", nil)
	if err := handler.List(resourceContext(e, req, rec, "Patient", "")); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if svc.filter.Count != 5 || svc.filter.Offset != 10 {
		t.Fatalf("unexpected filter %+v", svc.filter)
	}

	var body []any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body == nil {
		t.Fatalf("expected empty JSON array, got %s", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/Patient?_count=abc", nil)
	expectHTTPError(t, handler.List(resourceContext(e, req, httptest.NewRecorder(), "Patient", "")), http.StatusBadRequest)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/Patient?_offset=-1", nil)
	expectHTTPError(t, handler.List(resourceContext(e, req, httptest.NewRecorder(), "Patient", "")), http.StatusBadRequest)
}

func TestResourceHandler_UpdateAndDelete(t *testing.T) {
	e := newTestEcho()
	svc := &stubResourceService{}
	handler := NewResourceHandler(svc)

	rec := httptest.NewRecorder()
	req := jsonRequest(http.MethodPut, "/", `{"resourceType":"Patient","id":"other"}`)
	c := resourceContext(e, req, rec, "Patient", "patient-1")
	withClaims(c, "n@x.com", domain.RoleNurse)
	if err := handler.Update(c); err != nil {
		t.Fatalf("update: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	c = resourceContext(e, httptest.NewRequest(http.MethodDelete, "/", nil), rec, "Patient", "patient-1")
	withClaims(c, "a@x.com", domain.RoleAdmin)
	if err := handler.Delete(c); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if rec.Code != http.StatusNoContent || svc.deleteID != "patient-1" || svc.actor != "a@x.com" {
		t.Fatalf("unexpected delete outcome: %d %q %q", rec.Code, svc.deleteID, svc.actor)
	}
}

func TestResourceHandler_RejectsNonObjectBody(t *testing.T) {
	e := newTestEcho()
	handler := NewResourceHandler(&stubResourceService{})

	c := resourceContext(e, jsonRequest(http.MethodPost, "/", `[1,2]`), httptest.NewRecorder(), "Patient", "")
	withClaims(c, "doc@x.com", domain.RolePractitioner)
	expectHTTPError(t, handler.Create(c), http.StatusBadRequest)
}

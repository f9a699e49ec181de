package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/intersect-health/fhir-api/internal/core/domain"
)

func TestHTTPErrorHandler_DomainErrors(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrDuplicateEmail, http.StatusConflict},
		{domain.ErrResourceExists, http.StatusConflict},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{domain.ErrAccountInactive, http.StatusUnauthorized},
		{domain.ErrInvalidSignature, http.StatusUnauthorized},
		{domain.ErrTokenExpired, http.StatusUnauthorized},
		{domain.ErrUnauthorized, http.StatusUnauthorized},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrUserNotFound, http.StatusNotFound},
		{domain.ErrResourceNotFound, http.StatusNotFound},
		{domain.ErrUnsupportedResource, http.StatusNotFound},
		{domain.ErrInvalidRole, http.StatusUnprocessableEntity},
		{domain.ErrPasswordTooLong, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: id must be a string", domain.ErrInvalidResource), http.StatusUnprocessableEntity},
		{domain.ErrTooManyAttempts, http.StatusTooManyRequests},
		{errors.New("mongo: connection refused"), http.StatusInternalServerError},
		{echo.NewHTTPError(http.StatusBadRequest, "invalid payload"), http.StatusBadRequest},
	}

	h := NewHTTPErrorHandler(zerolog.Nop())
	e := echo.New()
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		h(tt.err, c)

		if rec.Code != tt.want {
			t.Fatalf("%v: expected %d, got %d", tt.err, tt.want, rec.Code)
		}
		challenge := rec.Header().Get(echo.HeaderWWWAuthenticate)
		if (tt.want == http.StatusUnauthorized) != (challenge == "Bearer") {
			t.Fatalf("%v: unexpected WWW-Authenticate %q", tt.err, challenge)
		}
	}
}

func TestHTTPErrorHandler_HidesInternalErrors(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	NewHTTPErrorHandler(zerolog.Nop())(errors.New("dial tcp 10.0.0.5:27017"), c)

	if got := rec.Body.String(); got != "{\"error\":\"internal server error\"}\n" {
		t.Fatalf("unexpected body %q", got)
	}
}

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/intersect-health/fhir-api/internal/api/middleware"
	"github.com/intersect-health/fhir-api/internal/core/domain"
	"github.com/intersect-health/fhir-api/internal/core/ports"
)

// ctxClaims returns the claims injected by the Authenticate middleware.
// Their absence means the route was mounted without it.
func ctxClaims(c echo.Context) (*domain.Claims, error) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok || claims.Subject == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return claims, nil
}

// pageParams reads the _count and _offset query parameters.
func pageParams(c echo.Context) (ports.ListFilter, error) {
	var f ports.ListFilter
	err := echo.QueryParamsBinder(c).
		Int("_count", &f.Count).
		Int("_offset", &f.Offset).
		BindError()
	if err != nil {
		return f, echo.NewHTTPError(http.StatusBadRequest, "_count and _offset must be integers")
	}
	if f.Count < 0 || f.Offset < 0 {
		return f, echo.NewHTTPError(http.StatusBadRequest, "_count and _offset must not be negative")
	}
	return f, nil
}

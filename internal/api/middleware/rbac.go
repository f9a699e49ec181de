package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/intersect-health/fhir-api/internal/api/metrics"
	"github.com/intersect-health/fhir-api/internal/core/domain"
)

// RequireAnyRole admits requests whose token role is one of roles.
// It must run after Authenticate.
func RequireAnyRole(roles ...domain.Role) echo.MiddlewareFunc {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	denied := "access denied, required roles: " + strings.Join(names, ", ")
	if len(roles) == 1 {
		denied = "access denied, required role: " + names[0]
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := ClaimsFrom(c)
			if !ok {
				return unauthorized("missing authentication claims", domain.ErrUnauthorized)
			}
			if _, err := domain.RequireAnyRole(claims, roles...); err != nil {
				metrics.AccessDeniedTotal.WithLabelValues(string(claims.Role)).Inc()
				return echo.NewHTTPError(http.StatusForbidden, denied).SetInternal(err)
			}
			return next(c)
		}
	}
}

// RequireRole admits requests carrying exactly role.
func RequireRole(role domain.Role) echo.MiddlewareFunc {
	return RequireAnyRole(role)
}

// RequireAdmin admits administrators only.
func RequireAdmin() echo.MiddlewareFunc {
	return RequireRole(domain.RoleAdmin)
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/intersect-health/fhir-api/internal/core/domain"
)

const claimsKey = "auth.claims"

// Authenticator validates a raw bearer token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Claims, error)
}

// Authenticate validates the bearer token and injects the claims into the context.
func Authenticate(a Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := BearerToken(c)
			if err != nil {
				return err
			}

			claims, err := a.Authenticate(c.Request().Context(), token)
			if err != nil {
				return AuthError(err)
			}

			SetClaims(c, claims)
			return next(c)
		}
	}
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return "", unauthorized("not authenticated", domain.ErrUnauthorized)
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", unauthorized("invalid authorization header", domain.ErrUnauthorized)
	}
	return strings.TrimSpace(parts[1]), nil
}

// AuthError converts a token or account error into a 401. Anything else is
// an infrastructure fault and is passed through untouched.
func AuthError(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidSignature),
		errors.Is(err, domain.ErrTokenExpired),
		errors.Is(err, domain.ErrAccountInactive),
		errors.Is(err, domain.ErrUnauthorized):
		return unauthorized(err.Error(), err)
	default:
		return err
	}
}

// SetClaims stores claims for downstream guards and handlers.
func SetClaims(c echo.Context, claims *domain.Claims) {
	c.Set(claimsKey, claims)
}

// ClaimsFrom returns the claims stored by Authenticate.
func ClaimsFrom(c echo.Context) (*domain.Claims, bool) {
	claims, ok := c.Get(claimsKey).(*domain.Claims)
	return claims, ok && claims != nil
}

func unauthorized(msg string, cause error) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusUnauthorized, msg).SetInternal(cause)
}

package domain

import (
	"errors"
	"time"
)

var (
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrTokenExpired     = errors.New("token has expired")
	ErrUnauthorized     = errors.New("could not validate credentials")
	ErrForbidden        = errors.New("access forbidden")
)

// Claims is the decoded payload of an access token. It reflects the user as
// it was at issuance time.
type Claims struct {
	Subject   string
	Email     string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// RequireRole admits claims only when they carry exactly role.
func RequireRole(claims *Claims, role Role) (*Claims, error) {
	return RequireAnyRole(claims, role)
}

// RequireAnyRole admits claims whose role is one of allowed.
func RequireAnyRole(claims *Claims, allowed ...Role) (*Claims, error) {
	if claims == nil {
		return nil, ErrUnauthorized
	}
	for _, r := range allowed {
		if claims.Role == r {
			return claims, nil
		}
	}
	return nil, ErrForbidden
}

// RequireAdmin is RequireRole with RoleAdmin.
func RequireAdmin(claims *Claims) (*Claims, error) {
	return RequireRole(claims, RoleAdmin)
}

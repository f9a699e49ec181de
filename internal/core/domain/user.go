package domain

import (
	"errors"
	"strings"
	"time"
)

// Role is the closed set of staff categories that govern access.
type Role string

const (
	RoleAdmin        Role = "admin"
	RolePractitioner Role = "practitioner"
	RoleNurse        Role = "nurse"
	RoleScheduler    Role = "scheduler"
	RoleFinance      Role = "finance"
)

// Roles lists every valid role in declaration order.
var Roles = []Role{RoleAdmin, RolePractitioner, RoleNurse, RoleScheduler, RoleFinance}

// MaxPasswordBytes is the longest password bcrypt accepts, in bytes.
const MaxPasswordBytes = 72

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidUser        = errors.New("email and password are required")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")
)

// Valid reports whether r is a member of the role enumeration.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// ParseRole converts s to a Role, rejecting anything outside the enumeration.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

// User is a staff account. The email is the primary key.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Sanitized returns a copy of u without the password hash.
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.PasswordHash = ""
	return &c
}

// NormalizeEmail lowercases and trims an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

package domain

import (
	"errors"
	"testing"
)

func TestRequireRole(t *testing.T) {
	practitioner := &Claims{Subject: "p@x.com", Role: RolePractitioner}

	if _, err := RequireRole(practitioner, RoleAdmin); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := RequireAdmin(practitioner); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden from RequireAdmin, got %v", err)
	}
	got, err := RequireAnyRole(practitioner, RolePractitioner, RoleNurse)
	if err != nil || got != practitioner {
		t.Fatalf("expected practitioner admitted, got %v", err)
	}
	if _, err := RequireAnyRole(practitioner); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected empty allow-list to deny, got %v", err)
	}
	if _, err := RequireRole(nil, RoleAdmin); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for missing claims, got %v", err)
	}
}

func TestParseRole(t *testing.T) {
	for _, r := range Roles {
		got, err := ParseRole(" " + string(r) + " ")
		if err != nil || got != r {
			t.Fatalf("ParseRole(%q) = %q, %v", r, got, err)
		}
	}
	if got, _ := ParseRole("ADMIN"); got != RoleAdmin {
		t.Fatalf("expected case-insensitive parse, got %q", got)
	}
	for _, bad := range []string{"", "patient", "root"} {
		if _, err := ParseRole(bad); !errors.Is(err, ErrInvalidRole) {
			t.Fatalf("ParseRole(%q): expected ErrInvalidRole, got %v", bad, err)
		}
	}
}

func TestUserSanitized(t *testing.T) {
	u := &User{Email: "a@x.com", PasswordHash: "secret"}
	s := u.Sanitized()
	if s.PasswordHash != "" {
		t.Fatalf("expected hash stripped")
	}
	if u.PasswordHash != "secret" {
		t.Fatalf("original must be untouched")
	}
	if (*User)(nil).Sanitized() != nil {
		t.Fatalf("expected nil for nil user")
	}
}

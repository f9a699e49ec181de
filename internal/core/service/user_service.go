package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/intersect-health/fhir-api/internal/core/domain"
	"github.com/intersect-health/fhir-api/internal/core/ports"
)

// UserService handles profile edits and administrative account changes.
// Role changes do not affect tokens issued before the change.
type UserService struct {
	options
	users ports.UserRepository
	log   zerolog.Logger
}

// NewUserService builds the service. A nil audit disables the trail; of the
// options only WithClock applies.
func NewUserService(users ports.UserRepository, audit ports.AuditRecorder, log zerolog.Logger, opts ...Option) *UserService {
	o := buildOptions(append(opts, WithAuditRecorder(audit)))
	return &UserService{users: users, options: o, log: log}
}

func (s *UserService) Get(ctx context.Context, email string) (*domain.User, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return u.Sanitized(), nil
}

func (s *UserService) List(ctx context.Context, filter ports.ListFilter) ([]*domain.User, int64, error) {
	users, total, err := s.users.List(ctx, normalizePage(filter))
	if err != nil {
		return nil, 0, err
	}
	out := make([]*domain.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Sanitized())
	}
	return out, total, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, email, firstName, lastName string) (*domain.User, error) {
	u, err := s.users.UpdateProfile(ctx, email, strings.TrimSpace(firstName), strings.TrimSpace(lastName))
	if err != nil {
		return nil, err
	}
	return u.Sanitized(), nil
}

// ChangeRole sets the role of email. Admins cannot change their own role.
func (s *UserService) ChangeRole(ctx context.Context, actor, email, role string) (*domain.User, error) {
	r, err := domain.ParseRole(role)
	if err != nil {
		return nil, err
	}
	if domain.NormalizeEmail(actor) == domain.NormalizeEmail(email) {
		return nil, domain.ErrForbidden
	}

	u, err := s.users.UpdateRole(ctx, email, r)
	if err != nil {
		s.record(actor, domain.AuditRoleChange, domain.OutcomeFailure, email, string(r))
		return nil, err
	}
	s.record(actor, domain.AuditRoleChange, domain.OutcomeSuccess, u.Email, string(r))
	s.log.Info().Str("actor", actor).Str("email", u.Email).Str("role", string(r)).Msg("user role changed")
	return u.Sanitized(), nil
}

// SetActive activates or deactivates email. Admins cannot deactivate
// themselves.
func (s *UserService) SetActive(ctx context.Context, actor, email string, active bool) (*domain.User, error) {
	if !active && domain.NormalizeEmail(actor) == domain.NormalizeEmail(email) {
		return nil, domain.ErrForbidden
	}

	detail := strconv.FormatBool(active)
	u, err := s.users.UpdateActive(ctx, email, active)
	if err != nil {
		s.record(actor, domain.AuditActiveChange, domain.OutcomeFailure, email, detail)
		return nil, err
	}
	s.record(actor, domain.AuditActiveChange, domain.OutcomeSuccess, u.Email, detail)
	s.log.Info().Str("actor", actor).Str("email", u.Email).Bool("active", active).Msg("user active flag changed")
	return u.Sanitized(), nil
}

func (s *UserService) record(actor string, action domain.AuditAction, outcome, target, detail string) {
	s.audit.Record(domain.AuditEvent{
		Actor:     actor,
		Action:    action,
		Outcome:   outcome,
		Target:    domain.NormalizeEmail(target),
		Detail:    detail,
		Timestamp: s.stamp(),
	})
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/intersect-health/fhir-api/internal/api/metrics"
	"github.com/intersect-health/fhir-api/internal/core/domain"
	"github.com/intersect-health/fhir-api/internal/core/ports"
)

const tokenTypeBearer = "bearer"

// AuthService implements registration, login and token based identity.
type AuthService struct {
	options
	users  ports.UserRepository
	hasher ports.PasswordHasher
	tokens ports.TokenManager
	log    zerolog.Logger
}

func NewAuthService(users ports.UserRepository, hasher ports.PasswordHasher, tokens ports.TokenManager, log zerolog.Logger, opts ...Option) *AuthService {
	return &AuthService{
		options: buildOptions(opts),
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		log:     log,
	}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrInvalidUser
	}
	if len(in.Password) > domain.MaxPasswordBytes {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrPasswordTooLong
	}
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	now := s.stamp()
	created, err := s.users.Create(ctx, &domain.User{
		ID:           email,
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
			s.record(email, domain.AuditRegister, domain.OutcomeFailure, "duplicate email")
			return nil, domain.ErrDuplicateEmail
		}
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("register: %w", err)
	}

	metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	s.record(email, domain.AuditRegister, domain.OutcomeSuccess, string(role))
	s.log.Info().Str("email", email).Str("role", string(role)).Msg("user registered")
	return created.Sanitized(), nil
}

// Login verifies credentials and issues an access token. Unknown emails and
// wrong passwords return the same ErrInvalidCredentials after the same
// amount of hashing work.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	if s.limiter != nil {
		blocked, err := s.limiter.Blocked(ctx, email)
		if err != nil {
			s.log.Warn().Err(err).Str("email", email).Msg("login limiter check failed, continuing")
		} else if blocked {
			metrics.LoginsTotal.WithLabelValues("throttled").Inc()
			s.record(email, domain.AuditLogin, domain.OutcomeFailure, "throttled")
			return nil, domain.ErrTooManyAttempts
		}
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			metrics.LoginsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("login: %w", err)
		}
		s.hasher.DummyVerify(password)
		return nil, s.loginFailed(ctx, email)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, s.loginFailed(ctx, email)
	}

	if !user.IsActive {
		metrics.LoginsTotal.WithLabelValues("inactive").Inc()
		s.record(email, domain.AuditLogin, domain.OutcomeFailure, "inactive")
		return nil, domain.ErrAccountInactive
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("login: %w", err)
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, email); err != nil {
			s.log.Warn().Err(err).Str("email", email).Msg("login limiter reset failed")
		}
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.record(email, domain.AuditLogin, domain.OutcomeSuccess, "")
	return &ports.LoginResult{
		AccessToken: token,
		TokenType:   tokenTypeBearer,
		ExpiresAt:   expiresAt,
		User:        user.Sanitized(),
	}, nil
}

func (s *AuthService) loginFailed(ctx context.Context, email string) error {
	if s.limiter != nil {
		if err := s.limiter.RecordFailure(ctx, email); err != nil {
			s.log.Warn().Err(err).Str("email", email).Msg("login limiter record failed")
		}
	}
	metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
	s.record(email, domain.AuditLogin, domain.OutcomeFailure, "invalid credentials")
	return domain.ErrInvalidCredentials
}

func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.Claims, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		metrics.TokenValidationsTotal.WithLabelValues(validationResult(err)).Inc()
		return nil, err
	}

	if s.checkActive {
		if _, err := s.loadActive(ctx, claims.Subject); err != nil {
			metrics.TokenValidationsTotal.WithLabelValues(validationResult(err)).Inc()
			return nil, err
		}
	}

	metrics.TokenValidationsTotal.WithLabelValues("valid").Inc()
	return claims, nil
}

// CurrentUser returns the stored profile of the token's subject, without the
// password hash. Every token failure matches ErrUnauthorized; the validator
// error stays in the chain.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}
	user, err := s.loadActive(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}

// loadActive fetches the subject's account. Inactive accounts are rejected
// only when the per-request active check is enabled.
func (s *AuthService) loadActive(ctx context.Context, subject string) (*domain.User, error) {
	user, err := s.users.FindByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if s.checkActive && !user.IsActive {
		return nil, domain.ErrAccountInactive
	}
	return user, nil
}

func (s *AuthService) record(actor string, action domain.AuditAction, outcome, detail string) {
	s.audit.Record(domain.AuditEvent{
		Actor:     actor,
		Action:    action,
		Outcome:   outcome,
		Detail:    detail,
		Timestamp: s.stamp(),
	})
}

func validationResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, domain.ErrTokenExpired):
		return "expired"
	case errors.Is(err, domain.ErrAccountInactive):
		return "inactive"
	default:
		return "unauthorized"
	}
}

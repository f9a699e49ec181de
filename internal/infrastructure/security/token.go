package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/intersect-health/fhir-api/internal/core/domain"
)

const DefaultTokenTTL = 30 * time.Minute

// TokenConfig is the immutable signing configuration.
type TokenConfig struct {
	Secret    string
	Algorithm string
	TTL       time.Duration
}

type accessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager implements ports.TokenManager with HMAC-signed JWTs.
type TokenManager struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// NewTokenManager validates cfg and returns a TokenManager. Only the HMAC
// family (HS256, HS384, HS512) is accepted.
func NewTokenManager(cfg TokenConfig) (*TokenManager, error) {
	return newTokenManager(cfg, time.Now)
}

// NewTokenManagerWithClock is NewTokenManager with an explicit time source.
func NewTokenManagerWithClock(cfg TokenConfig, now func() time.Time) (*TokenManager, error) {
	return newTokenManager(cfg, now)
}

func newTokenManager(cfg TokenConfig, now func() time.Time) (*TokenManager, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token: secret is required")
	}
	alg := cfg.Algorithm
	if alg == "" {
		alg = jwt.SigningMethodHS256.Alg()
	}
	method, ok := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("token: unsupported algorithm %q", alg)
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	m := &TokenManager{
		secret: []byte(cfg.Secret),
		method: method,
		ttl:    ttl,
		now:    now,
	}
	m.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return m.now() }),
	)
	return m, nil
}

// TTL returns the configured token lifetime.
func (m *TokenManager) TTL() time.Duration { return m.ttl }

func (m *TokenManager) Issue(userID, email string, role domain.Role) (string, time.Time, error) {
	return m.IssueWithTTL(userID, email, role, m.ttl)
}

// IssueWithTTL signs a token for the given identity that expires after ttl.
func (m *TokenManager) IssueWithTTL(userID, email string, role domain.Role, ttl time.Duration) (string, time.Time, error) {
	now := m.now().UTC().Truncate(time.Second)
	exp := now.Add(ttl)
	claims := accessClaims{
		Email: email,
		Role:  string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(m.method, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Validate verifies the signature first, then expiry, then decodes claims.
func (m *TokenManager) Validate(token string) (*domain.Claims, error) {
	var claims accessClaims
	_, err := m.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, domain.ErrInvalidSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, domain.ErrTokenExpired
		default:
			return nil, domain.ErrUnauthorized
		}
	}

	role := domain.Role(claims.Role)
	if claims.Subject == "" || !role.Valid() {
		return nil, domain.ErrUnauthorized
	}

	out := &domain.Claims{
		Subject: claims.Subject,
		Email:   claims.Email,
		Role:    role,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

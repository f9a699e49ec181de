package service

import (
	"time"

	"github.com/intersect-health/fhir-api/internal/core/domain"
	"github.com/intersect-health/fhir-api/internal/core/ports"
)

// Option configures the services in this package. A service ignores options
// that do not concern it.
type Option func(*options)

type options struct {
	limiter     ports.LoginLimiter
	audit       ports.AuditRecorder
	checkActive bool
	now         func() time.Time
}

func buildOptions(opts []Option) options {
	o := options{audit: nopRecorder{}, checkActive: true, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// stamp is the current time of the configured clock, in UTC.
func (o options) stamp() time.Time {
	return o.now().UTC()
}

// WithLoginLimiter enables failed-login throttling.
func WithLoginLimiter(l ports.LoginLimiter) Option {
	return func(o *options) { o.limiter = l }
}

// WithAuditRecorder sends audit events to r.
func WithAuditRecorder(r ports.AuditRecorder) Option {
	return func(o *options) {
		if r != nil {
			o.audit = r
		}
	}
}

// WithActiveCheck controls whether Authenticate reloads the account on every
// call to reject deactivated users. Enabled by default.
func WithActiveCheck(enabled bool) Option {
	return func(o *options) { o.checkActive = enabled }
}

// WithClock overrides the time source for account and audit timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

type nopRecorder struct{}

func (nopRecorder) Record(domain.AuditEvent) {}

package domain

import "time"

// AuditAction names a security-relevant operation.
type AuditAction string

const (
	AuditRegister       AuditAction = "register"
	AuditLogin          AuditAction = "login"
	AuditRoleChange     AuditAction = "role_change"
	AuditActiveChange   AuditAction = "active_change"
	AuditResourceCreate AuditAction = "resource_create"
	AuditResourceUpdate AuditAction = "resource_update"
	AuditResourceDelete AuditAction = "resource_delete"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// AuditEvent records who did what to which target.
type AuditEvent struct {
	Actor     string
	Action    AuditAction
	Outcome   string
	Target    string
	Detail    string
	Timestamp time.Time
}

package model

import "time"

// AuditAction names an administrative action recorded locally.
type AuditAction string

const (
	AuditRoleCreate   AuditAction = "role.create"
	AuditRoleAssign   AuditAction = "role.assign"
	AuditRoleRevoke   AuditAction = "role.revoke"
	AuditUserRemove   AuditAction = "user.remove"
	AuditUserRegister AuditAction = "user.register"
	AuditLoginFailed  AuditAction = "login.failed"
	AuditLoginLocked  AuditAction = "login.locked"
)

// Audit outcomes.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
	OutcomeDenied = "denied"
)

// AuditEvent is one entry of the local activity log.
type AuditEvent struct {
	ID         string      `json:"id"`
	Actor      string      `json:"actor"`
	Action     AuditAction `json:"action"`
	Target     string      `json:"target"`
	Outcome    string      `json:"outcome"`
	RequestID  string      `json:"request_id,omitempty"`
	RemoteAddr string      `json:"remote_addr,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

package model

import "slices"

// ResultCode is a structured outcome of an account administration call.
type ResultCode string

const (
	ResultRoleCreated   ResultCode = "role_created"
	ResultRoleExists    ResultCode = "role_exists"
	ResultRoleAssigned  ResultCode = "role_assigned"
	ResultRoleRevoked   ResultCode = "role_revoked"
	ResultRoleAvailable ResultCode = "role_available"
	ResultRoleNotHeld   ResultCode = "role_not_held"
	ResultUserFound     ResultCode = "user_found"
	ResultUserRemoved   ResultCode = "user_removed"
	ResultUserMissing   ResultCode = "user_missing"
)

// Result carries the codes reported by the API for one call. A call can
// report several facts at once, e.g. the role exists but the user does not.
type Result struct {
	Codes   []ResultCode `json:"codes"`
	Message string       `json:"message,omitempty"`
}

// Has reports whether code is present.
func (r Result) Has(code ResultCode) bool {
	return slices.Contains(r.Codes, code)
}

// Empty reports whether no code was recognized.
func (r Result) Empty() bool {
	return len(r.Codes) == 0
}

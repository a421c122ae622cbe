package model

// Role names as issued by the identity API.
const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

// Session is the per-request view of the three session cookies.
// There is no server-side session record.
type Session struct {
	Token    string
	Role     string
	Username string
}

// IsAuthenticated reports whether token, role and username are all present.
// It says nothing about whether the remote API still accepts the token.
func (s Session) IsAuthenticated() bool {
	return s.Token != "" && s.Role != "" && s.Username != ""
}

// IsAdmin reports whether the role is exactly "Admin".
func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

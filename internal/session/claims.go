package session

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/me/contactbook/pkg/model"
)

// Claim URIs used by the identity API.
const (
	RoleClaimURI = "http://schemas.microsoft.com/ws/2008/06/identity/claims/role"
	NameClaimURI = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/name"
)

// Claims is what the front end needs to know about a token's owner.
type Claims struct {
	Name  string
	Roles []string
}

// Role picks the role stored in the session: Admin if held, otherwise the
// last role listed. Empty when the token carries no role.
func (c Claims) Role() string {
	for _, r := range c.Roles {
		if r == model.RoleAdmin {
			return model.RoleAdmin
		}
	}
	if len(c.Roles) == 0 {
		return ""
	}
	return c.Roles[len(c.Roles)-1]
}

// ClaimsFromToken reads the name and role claims of a JWT. The signature is
// not checked here: the token is only trusted after the remote API has
// accepted it.
func ClaimsFromToken(token string) (Claims, error) {
	if token == "" {
		return Claims{}, errors.New("empty token")
	}

	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return Claims{}, fmt.Errorf("parse token: %w", err)
	}

	var c Claims
	c.Name = stringClaim(mc, NameClaimURI, "name", "unique_name", "sub")
	c.Roles = listClaim(mc, RoleClaimURI, "role", "roles")
	return c, nil
}

func stringClaim(mc jwt.MapClaims, keys ...string) string {
	for _, k := range keys {
		if s, ok := mc[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func listClaim(mc jwt.MapClaims, keys ...string) []string {
	for _, k := range keys {
		switch v := mc[k].(type) {
		case string:
			if v != "" {
				return []string{v}
			}
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok && s != "" {
					out = append(out, s)
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	return nil
}

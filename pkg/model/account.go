package model

import (
	"strings"
	"unicode/utf8"
)

// Account field limits enforced before anything is sent to the identity API.
const (
	MaxLoginLength    = 20
	MinPasswordLength = 6
)

// Credentials is the login request body.
type Credentials struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

// Validate checks the login form fields.
func (c *Credentials) Validate() []FieldError {
	var errs []FieldError
	switch {
	case strings.TrimSpace(c.UserName) == "":
		errs = append(errs, FieldError{Field: "LoginProp", Message: "required"})
	case utf8.RuneCountInString(c.UserName) > MaxLoginLength:
		errs = append(errs, FieldError{Field: "LoginProp", Message: "too long"})
	}
	if c.Password == "" {
		errs = append(errs, FieldError{Field: "Password", Message: "required"})
	}
	return errs
}

// Registration is the sign-up request body, used both for self-registration
// and for accounts created by an administrator.
type Registration struct {
	LoginProp       string `json:"loginProp"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Validate checks the registration form fields.
func (r *Registration) Validate() []FieldError {
	var errs []FieldError
	switch {
	case strings.TrimSpace(r.LoginProp) == "":
		errs = append(errs, FieldError{Field: "LoginProp", Message: "required"})
	case utf8.RuneCountInString(r.LoginProp) > MaxLoginLength:
		errs = append(errs, FieldError{Field: "LoginProp", Message: "too long"})
	}
	if utf8.RuneCountInString(r.Password) < MinPasswordLength {
		errs = append(errs, FieldError{Field: "Password", Message: "too short"})
	}
	if r.Password != r.ConfirmPassword {
		errs = append(errs, FieldError{Field: "ConfirmPassword", Message: "passwords do not match"})
	}
	return errs
}

// TokenResponse is returned by the authenticate and registration endpoints.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	Username    string `json:"username"`
}

// RoleModel is the command body for every role and user administration call.
// Unused fields are sent as empty strings.
type RoleModel struct {
	RoleName string `json:"roleName"`
	UserName string `json:"userName"`
}

// Package session keeps the front end's authentication state in cookies.
// The server holds no session storage: the bearer token, role and username
// travel with every request and are validated against the remote API.
package session

import (
	"net/http"
	"strconv"
	"time"

	"github.com/me/contactbook/pkg/model"
)

// Cookie names shared with earlier deployments of the front end.
const (
	TokenCookie     = "AuthToken"
	RoleCookie      = "RoleCookie"
	UserNameCookie  = "UserNameCookie"
	CurrentIDCookie = "CurrentId"
)

// DefaultTTL is the sliding session lifetime.
const DefaultTTL = 30 * time.Minute

// Options controls cookie attributes.
type Options struct {
	// Secure marks cookies HTTPS-only.
	Secure bool
	// TTL is the sliding lifetime; zero means DefaultTTL.
	TTL time.Duration
}

func (o Options) ttl() time.Duration {
	if o.TTL <= 0 {
		return DefaultTTL
	}
	return o.TTL
}

func (o Options) cookie(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(o.ttl().Seconds()),
		Expires:  time.Now().Add(o.ttl()),
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (o Options) expired(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// FromRequest reads the session cookies. Missing cookies yield empty fields.
func FromRequest(r *http.Request) model.Session {
	return model.Session{
		Token:    value(r, TokenCookie),
		Role:     value(r, RoleCookie),
		Username: value(r, UserNameCookie),
	}
}

// Write sets all three session cookies.
func Write(w http.ResponseWriter, sess model.Session, opts Options) {
	http.SetCookie(w, opts.cookie(TokenCookie, sess.Token))
	http.SetCookie(w, opts.cookie(RoleCookie, sess.Role))
	http.SetCookie(w, opts.cookie(UserNameCookie, sess.Username))
}

// Refresh re-issues the cookies of an authenticated session with a fresh
// lifetime. Unauthenticated sessions are left alone.
func Refresh(w http.ResponseWriter, sess model.Session, opts Options) {
	if !sess.IsAuthenticated() {
		return
	}
	Write(w, sess, opts)
}

// Clear overwrites the session cookies with empty values and expires them.
// The contact being edited is forgotten as well.
func Clear(w http.ResponseWriter, opts Options) {
	http.SetCookie(w, opts.expired(TokenCookie))
	http.SetCookie(w, opts.expired(RoleCookie))
	http.SetCookie(w, opts.expired(UserNameCookie))
	http.SetCookie(w, opts.expired(CurrentIDCookie))
}

// ClearToken overwrites only the token cookie, leaving role and username as
// they were. Used after a failed login.
func ClearToken(w http.ResponseWriter, opts Options) {
	http.SetCookie(w, opts.expired(TokenCookie))
}

// SetCurrentID remembers which contact is being edited.
func SetCurrentID(w http.ResponseWriter, id int, opts Options) {
	http.SetCookie(w, opts.cookie(CurrentIDCookie, strconv.Itoa(id)))
}

// CurrentID returns the contact being edited.
func CurrentID(r *http.Request) (int, bool) {
	raw := value(r, CurrentIDCookie)
	if raw == "" {
		return 0, false
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ClearCurrentID forgets the contact being edited.
func ClearCurrentID(w http.ResponseWriter, opts Options) {
	http.SetCookie(w, opts.expired(CurrentIDCookie))
}

func value(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

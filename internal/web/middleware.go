package web

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/me/contactbook/internal/metrics"
	"github.com/me/contactbook/internal/session"
	"github.com/me/contactbook/pkg/model"
)

// Context keys for session data.
type contextKey string

const (
	sessionContextKey contextKey = "session"
)

// SessionFromContext returns the session placed by SessionMiddleware, or the
// zero session.
func SessionFromContext(ctx context.Context) model.Session {
	sess, _ := ctx.Value(sessionContextKey).(model.Session)
	return sess
}

// ContextWithSession stores sess in ctx.
func ContextWithSession(ctx context.Context, sess model.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// SessionMiddleware reads the session cookies once per request and puts the
// session in the context. An authenticated session gets a fresh lifetime.
func (ui *UI) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromRequest(r)
		session.Refresh(w, sess, ui.cookies)
		next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), sess)))
	})
}

// TokenGuard requires all three session cookies and asks the remote API to
// confirm the token on every request. On failure the cookies are cleared and
// the user is sent to the login page.
func (ui *UI) TokenGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromContext(r.Context())

		if !sess.IsAuthenticated() {
			ui.metrics.GuardRejected(metrics.RejectNoSession)
			ui.rejectToLogin(w, r)
			return
		}
		if !ui.api.WithToken(sess.Token).CheckToken(r.Context()) {
			ui.logger.Info("token rejected by API", "username", sess.Username)
			ui.metrics.GuardRejected(metrics.RejectTokenInvalid)
			ui.rejectToLogin(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// AdminGuard requires the role cookie to be exactly "Admin".
// Must be used after TokenGuard.
func (ui *UI) AdminGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !SessionFromContext(r.Context()).IsAdmin() {
			ui.metrics.GuardRejected(metrics.RejectNotAdmin)
			http.Redirect(w, r, loginPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (ui *UI) rejectToLogin(w http.ResponseWriter, r *http.Request) {
	session.Clear(w, ui.cookies)

	target := loginPath
	if r.Method == http.MethodGet {
		target += "?ReturnUrl=" + url.QueryEscape(r.URL.RequestURI())
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func pathParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

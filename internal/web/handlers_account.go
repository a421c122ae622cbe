package web

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/me/contactbook/internal/metrics"
	"github.com/me/contactbook/internal/session"
	"github.com/me/contactbook/pkg/contactapi"
	"github.com/me/contactbook/pkg/model"
)

// Flash slots used by the account pages.
const (
	flashLogin      = "login"
	flashRegister   = "register"
	flashUserCreate = "userCreate"
)

// HandleLogin renders the login page.
func (ui *UI) HandleLogin(w http.ResponseWriter, r *http.Request) {
	data := ui.page(w, r, "Login")
	data["ReturnUrl"] = safeReturnURL(r.URL.Query().Get("ReturnUrl"))
	ui.render(w, http.StatusOK, "account/login", data)
}

// HandleLoginPost exchanges the form credentials for a token and writes the
// session cookies. A failed login never sets session cookies; the token
// cookie is overwritten with an empty value.
func (ui *UI) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		ui.flashRedirect(w, r, loginPath, flashLogin, "Invalid request")
		return
	}

	creds := model.Credentials{
		UserName: strings.TrimSpace(r.PostFormValue("LoginProp")),
		Password: r.PostFormValue("Password"),
	}
	returnURL := safeReturnURL(r.PostFormValue("ReturnUrl"))
	back := loginPath
	if returnURL != "/" {
		back += "?ReturnUrl=" + url.QueryEscape(returnURL)
	}

	if errs := creds.Validate(); len(errs) > 0 {
		ui.metrics.LoginAttempt(metrics.LoginInvalid)
		ui.flashRedirect(w, r, back, flashLogin, "Enter a login of at most 20 characters and a password")
		return
	}

	ctx := r.Context()
	if locked, remaining, err := ui.lockout.Locked(ctx, creds.UserName); err != nil {
		ui.logger.Error("lockout check failed", "error", err)
	} else if locked {
		ui.metrics.LoginAttempt(metrics.LoginLocked)
		ui.record(r, model.AuditLoginLocked, creds.UserName, creds.UserName, model.OutcomeDenied)
		ui.flashRedirect(w, r, back, flashLogin, lockedMessage(remaining))
		return
	}

	token, err := ui.api.Authenticate(ctx, creds)
	var claims session.Claims
	if err == nil {
		claims, err = session.ClaimsFromToken(token)
	}
	if err != nil {
		ui.loginFailed(w, r, creds.UserName, back, err)
		return
	}

	// A token without a role claim never yields a session.
	if claims.Role() == "" {
		ui.loginFailed(w, r, creds.UserName, back, errNoRole)
		return
	}

	sess := model.Session{
		Token:    token,
		Role:     claims.Role(),
		Username: claims.Name,
	}
	if sess.Username == "" {
		sess.Username = creds.UserName
	}
	session.Write(w, sess, ui.cookies)

	if err := ui.lockout.Reset(ctx, creds.UserName); err != nil {
		ui.logger.Error("lockout reset failed", "error", err)
	}
	ui.metrics.LoginAttempt(metrics.LoginSuccess)
	ui.logger.Info("user logged in", "username", sess.Username, "role", sess.Role)
	http.Redirect(w, r, returnURL, http.StatusSeeOther)
}

func (ui *UI) loginFailed(w http.ResponseWriter, r *http.Request, userName, back string, cause error) {
	ui.logger.Warn("login failed", "username", userName, "error", cause)
	session.ClearToken(w, ui.cookies)
	ui.metrics.LoginAttempt(metrics.LoginFailure)
	ui.record(r, model.AuditLoginFailed, userName, userName, model.OutcomeFailed)

	var msg string
	switch {
	case errors.Is(cause, errNoRole):
		msg = "This account has no role, ask an administrator to assign one"
	case credentialsRejected(cause):
		msg = "Invalid login or password"
	default:
		msg = "The identity service is unavailable, try again later"
	}

	// Only rejected credentials count toward the lockout; an outage does not.
	if credentialsRejected(cause) {
		locked, err := ui.lockout.Fail(r.Context(), userName)
		if err != nil {
			ui.logger.Error("lockout update failed", "error", err)
		} else if locked {
			ui.record(r, model.AuditLoginLocked, userName, userName, model.OutcomeDenied)
			msg = lockedMessage(0)
		}
	}
	ui.flashRedirect(w, r, back, flashLogin, msg)
}

var errNoRole = errors.New("token carries no role claim")

// credentialsRejected reports whether the identity API refused the
// credentials themselves, as opposed to being unreachable or failing.
func credentialsRejected(err error) bool {
	if contactapi.IsAuthError(err) || errors.Is(err, contactapi.ErrEmptyToken) {
		return true
	}
	var httpErr *contactapi.HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode >= 400 && httpErr.StatusCode < 500
}

func lockedMessage(remaining time.Duration) string {
	if remaining <= 0 {
		return "Too many failed attempts, the account is locked for a while"
	}
	return fmt.Sprintf("Too many failed attempts, try again in %s", remaining.Round(time.Second))
}

// HandleRegister renders the self-registration form.
func (ui *UI) HandleRegister(w http.ResponseWriter, r *http.Request) {
	data := ui.page(w, r, "Register")
	data["Form"] = model.Registration{}
	ui.render(w, http.StatusOK, "account/register", data)
}

// HandleRegisterPost creates an ordinary account and signs the user in with
// the User role.
func (ui *UI) HandleRegisterPost(w http.ResponseWriter, r *http.Request) {
	reg, ok := ui.parseRegistration(w, r, "account/register", "Register")
	if !ok {
		return
	}

	token, err := ui.api.Register(r.Context(), reg)
	if err != nil {
		ui.logger.Warn("registration failed", "username", reg.LoginProp, "error", err)
		ui.record(r, model.AuditUserRegister, reg.LoginProp, reg.LoginProp, model.OutcomeFailed)
		ui.flashRedirect(w, r, registerPath, flashRegister, "Registration failed")
		return
	}

	name := reg.LoginProp
	if claims, err := session.ClaimsFromToken(token); err == nil && claims.Name != "" {
		name = claims.Name
	}
	session.Write(w, model.Session{Token: token, Role: model.RoleUser, Username: name}, ui.cookies)
	ui.record(r, model.AuditUserRegister, name, name, model.OutcomeOK)
	ui.logger.Info("user registered", "username", name)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleAdminRegister renders the form administrators use to create accounts.
func (ui *UI) HandleAdminRegister(w http.ResponseWriter, r *http.Request) {
	data := ui.page(w, r, "Create Account")
	data["Form"] = model.Registration{}
	ui.render(w, http.StatusOK, "account/admin_register", data)
}

// HandleAdminRegisterPost creates an administrator account. The caller's own
// session is not touched.
func (ui *UI) HandleAdminRegisterPost(w http.ResponseWriter, r *http.Request) {
	reg, ok := ui.parseRegistration(w, r, "account/admin_register", "Create Account")
	if !ok {
		return
	}
	sess := SessionFromContext(r.Context())

	var f session.Flash
	if err := ui.client(r).AdminRegister(r.Context(), reg); err != nil {
		ui.logger.Warn("admin registration failed", "username", reg.LoginProp, "error", err)
		ui.record(r, model.AuditUserRegister, sess.Username, reg.LoginProp, model.OutcomeFailed)
		f.Set(flashUserCreate, "Account creation failed")
		f.Flag("isSuccess", false)
	} else {
		ui.record(r, model.AuditUserRegister, sess.Username, reg.LoginProp, model.OutcomeOK)
		f.Set(flashUserCreate, "Account created")
		f.Flag("isSuccess", true)
	}
	ui.flash(w, f)
	http.Redirect(w, r, adminRegisterPath, http.StatusSeeOther)
}

// parseRegistration reads and validates the registration form. On invalid
// input it re-renders page with field errors and returns false.
func (ui *UI) parseRegistration(w http.ResponseWriter, r *http.Request, page, title string) (model.Registration, bool) {
	if err := r.ParseForm(); err != nil {
		ui.renderError(w, r, http.StatusBadRequest, "Invalid request", err)
		return model.Registration{}, false
	}
	reg := model.Registration{
		LoginProp:       strings.TrimSpace(r.PostFormValue("LoginProp")),
		Password:        r.PostFormValue("Password"),
		ConfirmPassword: r.PostFormValue("ConfirmPassword"),
	}
	if errs := reg.Validate(); len(errs) > 0 {
		data := ui.page(w, r, title)
		data["Form"] = model.Registration{LoginProp: reg.LoginProp}
		data["Errors"] = fieldErrors(errs)
		ui.render(w, http.StatusBadRequest, page, data)
		return model.Registration{}, false
	}
	return reg, true
}

// HandleLogout overwrites the session cookies and returns to the login page.
func (ui *UI) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := SessionFromContext(r.Context()); sess.Username != "" {
		ui.logger.Info("user logged out", "username", sess.Username)
	}
	session.Clear(w, ui.cookies)
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}

// safeReturnURL keeps redirects on this site.
func safeReturnURL(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return "/"
	}
	return raw
}

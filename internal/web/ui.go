// Package web serves the contact book's HTML pages: the contact list and
// forms, login and registration, and account administration.
package web

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/me/contactbook/internal/audit"
	"github.com/me/contactbook/internal/lockout"
	"github.com/me/contactbook/internal/metrics"
	"github.com/me/contactbook/internal/session"
	"github.com/me/contactbook/pkg/contactapi"
	"github.com/me/contactbook/pkg/model"
)

// UI handles the web user interface.
type UI struct {
	api       *contactapi.Client
	audit     audit.Store
	lockout   lockout.Limiter
	metrics   *metrics.Metrics
	logger    *slog.Logger
	cookies   session.Options
	requestID func(context.Context) string
}

// Config holds UI configuration.
type Config struct {
	Secure     bool          // Use secure cookies for HTTPS
	SessionTTL time.Duration // Sliding session lifetime; zero means 30 minutes

	// RequestID extracts the request ID assigned by the server middleware.
	RequestID func(context.Context) string
}

// New creates a new UI handler. Audit defaults to a no-op store and lockout
// to an in-process limiter with the default policy.
func New(api *contactapi.Client, logger *slog.Logger, cfg Config) *UI {
	requestID := cfg.RequestID
	if requestID == nil {
		requestID = func(context.Context) string { return "" }
	}
	return &UI{
		api:       api,
		audit:     audit.Nop{},
		lockout:   lockout.NewMemory(lockout.DefaultPolicy()),
		logger:    logger.With("component", "web"),
		cookies:   session.Options{Secure: cfg.Secure, TTL: cfg.SessionTTL},
		requestID: requestID,
	}
}

// WithAudit sets the store administrative actions are recorded in.
func (ui *UI) WithAudit(st audit.Store) {
	ui.audit = st
}

// WithLockout replaces the failed-login limiter.
func (ui *UI) WithLockout(l lockout.Limiter) {
	ui.lockout = l
}

// WithMetrics sets the metrics sink.
func (ui *UI) WithMetrics(m *metrics.Metrics) {
	ui.metrics = m
}

// client returns an API client carrying the caller's token.
func (ui *UI) client(r *http.Request) *contactapi.Client {
	return ui.api.WithToken(SessionFromContext(r.Context()).Token)
}

// page builds the data every template receives.
func (ui *UI) page(w http.ResponseWriter, r *http.Request, title string) map[string]any {
	sess := SessionFromContext(r.Context())
	return map[string]any{
		"Title":    title + " - Contact Book",
		"Session":  sess,
		"IsAuth":   sess.IsAuthenticated(),
		"RoleName": sess.Role,
		"UserName": sess.Username,
		"Flash":    session.TakeFlash(w, r, ui.cookies),
		"Errors":   map[string]string{},
	}
}

func (ui *UI) flash(w http.ResponseWriter, f session.Flash) {
	session.SetFlash(w, f, ui.cookies)
}

func (ui *UI) flashRedirect(w http.ResponseWriter, r *http.Request, to, slot, msg string) {
	var f session.Flash
	f.Set(slot, msg)
	ui.flash(w, f)
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func (ui *UI) record(r *http.Request, action model.AuditAction, actor, target, outcome string) {
	ev := &model.AuditEvent{
		Actor:      actor,
		Action:     action,
		Target:     target,
		Outcome:    outcome,
		RequestID:  ui.requestID(r.Context()),
		RemoteAddr: r.RemoteAddr,
	}
	if err := ui.audit.Record(r.Context(), ev); err != nil {
		ui.logger.Error("audit record failed", "action", action, "error", err)
	}
}

func (ui *UI) pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(pathParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (ui *UI) render(w http.ResponseWriter, status int, template string, data map[string]any) {
	var buf bytes.Buffer
	if err := renderTemplate(&buf, template, data); err != nil {
		ui.logger.Error("template render failed", "template", template, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (ui *UI) renderError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	if err != nil {
		ui.logger.Error(message, "error", err)
	}
	data := ui.page(w, r, "Error")
	data["Message"] = message
	ui.render(w, status, "error", data)
}

// fieldErrors indexes validation errors by field for the templates.
func fieldErrors(errs []model.FieldError) map[string]string {
	m := make(map[string]string, len(errs))
	for _, e := range errs {
		if _, ok := m[e.Field]; !ok {
			m[e.Field] = e.Message
		}
	}
	return m
}

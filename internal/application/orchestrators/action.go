package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode"

	"reportconsole/internal/adapters/backend"
	"reportconsole/internal/application/session"
	"reportconsole/internal/domain/audit"
)

// ActionError is returned when a console action fails. Message is safe to show to the user.
type ActionError struct {
	Message string
	Err     error
}

func (e *ActionError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ActionError) Unwrap() error { return e.Err }

// MessageFor returns the user-facing message carried by err, or fallback.
func MessageFor(err error, fallback string) string {
	var ae *ActionError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return fallback
}

// AuditSink receives audit events for console actions.
type AuditSink interface {
	Save(ctx context.Context, event audit.Event) error
}

// invalid wraps a form validation error; its text becomes the message.
func invalid(err error) error {
	return &ActionError{Message: sentence(err.Error()), Err: err}
}

// fail wraps a backend failure. With verbatim set, a backend validation message is shown
// in place of fallback. ErrUnauthorized passes through untouched so callers can redirect.
func fail(err error, fallback string, verbatim bool) error {
	if errors.Is(err, backend.ErrUnauthorized) {
		return err
	}
	msg := fallback
	if verbatim {
		msg = backend.UserMessage(err, fallback)
	}
	return &ActionError{Message: msg, Err: err}
}

func sentence(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	out := string(r)
	if !strings.HasSuffix(out, ".") {
		out += "."
	}
	return out
}

// actorEvent starts an audit event attributed to the session in ctx.
func actorEvent(ctx context.Context, cat audit.Category, action audit.Action) audit.Event {
	_, sess, _ := session.FromContext(ctx)
	return audit.NewEvent(sess.UserID, sess.Email, string(sess.Role), cat, action)
}

func recordAudit(ctx context.Context, sink AuditSink, e audit.Event) {
	if sink == nil {
		return
	}
	info := session.RequestInfoFromContext(ctx)
	if err := sink.Save(ctx, e.WithRequest(info.IP, info.UserAgent)); err != nil {
		slog.Error("internal_error", "op", "audit.Save", "action", e.Action, "error", err)
	}
}

package session

import (
	"context"

	"reportconsole/internal/adapters/backend"
	"reportconsole/internal/domain/account"
)

type ctxKey int

const (
	sessionKey ctxKey = iota
	requestKey
)

type current struct {
	id   string
	sess account.Session
}

// WithSession returns a context carrying the console session id and its Session.
// Backend calls made with the returned context authenticate with sess.Token.
func WithSession(ctx context.Context, id string, sess account.Session) context.Context {
	ctx = context.WithValue(ctx, sessionKey, current{id: id, sess: sess})
	return backend.ContextWithToken(ctx, sess.Token)
}

// FromContext returns the session placed by WithSession.
func FromContext(ctx context.Context) (string, account.Session, bool) {
	c, ok := ctx.Value(sessionKey).(current)
	return c.id, c.sess, ok
}

// RequestInfo identifies the client of the current request for the audit trail.
type RequestInfo struct {
	IP        string
	UserAgent string
}

// WithRequestInfo returns a context carrying the request's client details.
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestKey, info)
}

// RequestInfoFromContext returns the client details placed by WithRequestInfo.
func RequestInfoFromContext(ctx context.Context) RequestInfo {
	info, _ := ctx.Value(requestKey).(RequestInfo)
	return info
}

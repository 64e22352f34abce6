package orchestrators

import (
	"context"
	"errors"

	"reportconsole/internal/domain/account"
)

// MsgLoginFailed is shown when the backend gives no reason for a failed login.
const MsgLoginFailed = "Login failed. Please try again."

// SessionStarter opens console sessions.
type SessionStarter interface {
	Login(ctx context.Context, creds account.Credentials) (string, account.Session, error)
}

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult carries the result of a successful login.
type LoginResult struct {
	SessionID string
	Session   account.Session
	Landing   string
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	Sessions SessionStarter
}

// ExecuteLogin exchanges credentials for a console session and picks the landing page.
// PRE: none
// POST: On success a session exists and Landing is the role's home; on failure no session exists
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (LoginResult, error) {
	id, sess, err := deps.Sessions.Login(ctx, account.Credentials{Email: input.Email, Password: input.Password})
	if err != nil {
		switch {
		case errors.Is(err, account.ErrEmptyEmail), errors.Is(err, account.ErrInvalidEmail), errors.Is(err, account.ErrEmptyPassword):
			return LoginResult{}, invalid(err)
		}
		return LoginResult{}, fail(err, MsgLoginFailed, true)
	}
	return LoginResult{SessionID: id, Session: sess, Landing: account.LandingPath(sess.Role)}, nil
}

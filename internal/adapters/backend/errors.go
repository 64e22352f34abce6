package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized is returned for any 401 on a request that carried an access token.
// The token is no longer accepted and the console session must be invalidated.
var ErrUnauthorized = errors.New("backend rejected the access token")

// ErrNoToken is returned when an authenticated endpoint is called without a token in the context.
var ErrNoToken = errors.New("no access token in context")

// ValidationError is a 4xx answer other than an expired token. Message is the
// backend's "error" text and is safe to show to the user.
type ValidationError struct {
	Status  int
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("backend %d: %s", e.Status, e.Message)
}

// ServerError is a 5xx answer or a body the console could not decode.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend %d: %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("backend %d: %s", e.Status, e.Message)
}

// NetworkError wraps a transport failure: the backend could not be reached or the
// request was cancelled.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// UserMessage returns the text to show for err: the backend's own message for
// validation errors, fallback for everything else.
func UserMessage(err error, fallback string) string {
	var ve *ValidationError
	if errors.As(err, &ve) && ve.Message != "" {
		return ve.Message
	}
	return fallback
}

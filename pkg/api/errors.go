package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrAnonymous is returned by authenticated calls when no session token is
// available. No request is sent in that case.
var ErrAnonymous = errors.New("api: no session token")

// networkMessage is shown when the backend cannot be reached.
const networkMessage = "Unable to reach the store. Check your connection and try again."

// AuthenticationError is returned when login or signup is rejected.
// Message is the backend's message, passed through verbatim.
type AuthenticationError struct {
	Status  int
	Message string
	Err     error
}

func (e *AuthenticationError) Error() string {
	return "authentication failed: " + e.Message
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// SessionExpiredError is returned when an authenticated call is rejected as
// unauthorized. It triggers a silent logout rather than a visible error.
type SessionExpiredError struct {
	Op      string
	Status  int
	Message string
}

func (e *SessionExpiredError) Error() string {
	return fmt.Sprintf("%s: session expired (%d)", e.Op, e.Status)
}

// MutationError is returned when a cart, wishlist, checkout or review call
// fails at the backend.
type MutationError struct {
	Op      string
	Status  int
	Message string
}

func (e *MutationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: failed with status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// RequestError is returned when a read call fails at the backend.
type RequestError struct {
	Op      string
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: failed with status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// NetworkError is returned when no response was received from the backend.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsSessionExpired reports whether err means the session token was rejected.
func IsSessionExpired(err error) bool {
	var se *SessionExpiredError
	return errors.As(err, &se)
}

// IsNetwork reports whether err is a transport failure.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// Message returns the text to show a user for err. Backend messages are
// passed through verbatim; fallback is used when the backend sent none.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var (
		ae *AuthenticationError
		me *MutationError
		re *RequestError
		ne *NetworkError
	)
	switch {
	case errors.As(err, &ae) && ae.Message != "":
		return ae.Message
	case errors.As(err, &me) && me.Message != "":
		return me.Message
	case errors.As(err, &re) && re.Message != "":
		return re.Message
	case errors.As(err, &ne):
		return networkMessage
	}
	if fallback != "" {
		return fallback
	}
	return err.Error()
}

// classify maps a non-2xx response to the error taxonomy. A 401 on a call
// that carried a token means the token is no longer accepted.
func classify(op string, kind callKind, withToken bool, status int, message string) error {
	if kind == kindAuth {
		return &AuthenticationError{Status: status, Message: message}
	}
	if withToken && status == http.StatusUnauthorized {
		return &SessionExpiredError{Op: op, Status: status, Message: message}
	}
	if kind == kindMutation {
		return &MutationError{Op: op, Status: status, Message: message}
	}
	return &RequestError{Op: op, Status: status, Message: message}
}

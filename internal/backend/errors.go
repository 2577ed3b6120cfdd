package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Match them with errors.Is; a *StatusError unwraps to one of these.
var (
	ErrNotLoggedIn        = errors.New("not logged in")
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotAuthorized      = errors.New("not authorized")
	ErrAlreadyInvited     = errors.New("user already invited")
	ErrConflict           = errors.New("conflict")
	ErrBadRequest         = errors.New("bad request")
	ErrUnexpectedResponse = errors.New("unexpected response")
	ErrNetwork            = errors.New("network failure")
)

// StatusError is a non-2xx answer from the backend.
type StatusError struct {
	Op         string
	StatusCode int
	Message    string
	Kind       error
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v (status %d)", e.Op, e.Kind, e.StatusCode)
}

func (e *StatusError) Unwrap() error { return e.Kind }

// KindForStatus maps an HTTP status code to an error kind.
func KindForStatus(code int) error {
	switch code {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusBadRequest:
		return ErrBadRequest
	default:
		return ErrUnexpectedResponse
	}
}

// StatusForKind is the inverse of KindForStatus, used when serving the contract.
func StatusForKind(err error) int {
	switch {
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrNotLoggedIn), errors.Is(err, ErrNotAuthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, ErrAlreadyInvited):
		return http.StatusConflict
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Package apperr defines the error taxonomy shared by policies, the
// lifecycle engine, stores, and HTTP handlers.
//
// Every rejected operation maps to exactly one category, so handlers can
// translate errors to status codes without inspecting message text, and
// callers always receive a human-readable reason.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel categories. Wrap with Unauthenticatedf/Forbiddenf/... to attach
// a message; match with errors.Is.
var (
	// ErrUnauthenticated: no session/profile present. Mutating calls
	// reject immediately without touching the store.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden: authenticated caller whose role/department does not
	// satisfy the operation's guard. Rejected before any remote call.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound: target record absent at validation time.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState: target exists but its current status does not match
	// the transition's required from-state.
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalid: malformed or unacceptable input, rejected before any
	// guard or store call.
	ErrInvalid = errors.New("invalid input")

	// ErrRemote: the persistence collaborator's call failed. The local
	// cache is left unmodified.
	ErrRemote = errors.New("remote failure")
)

func Unauthenticatedf(format string, args ...any) error {
	return wrapf(ErrUnauthenticated, format, args...)
}

func Forbiddenf(format string, args ...any) error {
	return wrapf(ErrForbidden, format, args...)
}

func NotFoundf(format string, args ...any) error {
	return wrapf(ErrNotFound, format, args...)
}

func InvalidStatef(format string, args ...any) error {
	return wrapf(ErrInvalidState, format, args...)
}

func Invalidf(format string, args ...any) error {
	return wrapf(ErrInvalid, format, args...)
}

// Remote wraps a persistence error so handlers surface it as a remote
// failure while keeping the cause available for logging.
func Remote(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrRemote, err)
}

func wrapf(category error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", category, fmt.Sprintf(format, args...))
}

// HTTPStatus maps an error to the response status code the API uses for
// its category. Unrecognized errors map to 500.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, ErrRemote):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

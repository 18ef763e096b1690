package errmsg

import (
	"errors"
	"net/http"
)

type HTTPError struct {
	Code    int
	Message error
}

func NewHTTPError(code int, message error) HTTPError {
	return HTTPError{Code: code, Message: message}
}

func (e *HTTPError) Error() string {
	return e.Message.Error()
}

var (
	ErrRequestPayloadEmpty = NewHTTPError(
		http.StatusBadRequest,
		errors.New("request payload is empty"),
	)

	ErrRequestPayloadInvalid = NewHTTPError(
		http.StatusBadRequest,
		errors.New("request payload is invalid"),
	)

	ErrQueryDateInvalid = NewHTTPError(
		http.StatusBadRequest,
		errors.New("date must be formatted as YYYY-MM-DD"),
	)

	ErrExportFormatInvalid = NewHTTPError(
		http.StatusBadRequest,
		errors.New("export format must be xlsx or pdf"),
	)
)

var (
	ErrUserCredentialsInvalid = NewHTTPError(
		http.StatusUnauthorized,
		errors.New("invalid credentials"),
	)

	ErrSessionInvalid = NewHTTPError(
		http.StatusUnauthorized,
		errors.New("session is invalid or logged out"),
	)

	ErrUserRoleUnknown = NewHTTPError(
		http.StatusForbidden,
		errors.New("user role is not recognised"),
	)

	ErrViewForbidden = NewHTTPError(
		http.StatusForbidden,
		errors.New("operation not allowed for this role"),
	)
)

var (
	ErrReportInvalid = NewHTTPError(
		http.StatusUnprocessableEntity,
		errors.New("report is invalid"),
	)

	ErrStoreUnavailable = NewHTTPError(
		http.StatusServiceUnavailable,
		errors.New("record store is unavailable, try again"),
	)
)

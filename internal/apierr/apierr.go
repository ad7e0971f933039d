package apierr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Sentinel errors for the request-boundary taxonomy. Handlers attach a
// message with E; the server's error handler maps the kind to a status.
var (
	ErrValidation    = errors.New("validation failed") // 400
	ErrNotAuthorized = errors.New("not authorized")    // 403
	ErrNotFound      = errors.New("not found")         // 404
	ErrConflict      = errors.New("conflict")          // 409
)

// Error pairs a taxonomy kind with the caller-facing message. errors.Is
// matches the kind through Unwrap; Error() renders only the message.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }
func (e *Error) Unwrap() error { return e.kind }

// E builds a taxonomy error: apierr.E(apierr.ErrNotFound, "order not found").
func E(kind error, msg string) error {
	return &Error{kind: kind, msg: msg}
}

// Status maps a taxonomy error to its HTTP status code.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// HTTPErrorHandler renders every unhandled error as {"error": message}.
// Set it as the echo server's error handler.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "internal server error"

	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		code = he.Code
		message = fmt.Sprint(he.Message)
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrNotAuthorized),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConflict):
		code = Status(err)
		message = err.Error()
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, map[string]string{"error": message})
}

// Package apperr defines the typed error kinds that flow from services to
// the two ingress edges (HTTP and WebSocket), per the error handling design.
package apperr

import "net/http"

type Kind string

const (
	Validation     Kind = "VALIDATION_ERROR"
	Authentication Kind = "AUTHENTICATION_ERROR"
	Forbidden      Kind = "FORBIDDEN"
	NotFound       Kind = "NOT_FOUND"
	Internal       Kind = "INTERNAL_ERROR"
)

// Error is the typed failure every service-level operation returns instead
// of a bare error, so the ingress layer never has to sniff error strings.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Validationf(code, message string) *Error { return New(Validation, code, message) }
func Forbiddenf(code, message string) *Error  { return New(Forbidden, code, message) }
func NotFoundf(code, message string) *Error   { return New(NotFound, code, message) }
func Authf(code, message string) *Error       { return New(Authentication, code, message) }
func Internalf(message string) *Error         { return New(Internal, "INTERNAL_ERROR", message) }

// HTTPStatus projects a Kind onto its matching HTTP status code.
func HTTPStatus(k Kind) int {
	switch k {
	case Validation:
		return http.StatusBadRequest
	case Authentication:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// WSCode projects a Kind onto its matching WebSocket error-frame code.
// Forbidden maps to SEND_FAILED since, on the WebSocket side, it is only
// raised by the chat handler's participant check.
func WSCode(k Kind) string {
	switch k {
	case Validation:
		return "INVALID_PAYLOAD"
	case Authentication:
		return "NOT_AUTHENTICATED"
	case Forbidden:
		return "SEND_FAILED"
	case NotFound:
		return "NOT_FOUND"
	default:
		return "SEND_FAILED"
	}
}

// As extracts an *Error from any error, synthesizing an Internal kind for
// anything the core did not originate itself.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return Internalf(err.Error())
}

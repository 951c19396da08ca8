package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies application errors so handlers can map them to HTTP
// status codes without inspecting message text.
type Kind string

const (
	KindValidation            Kind = "VALIDATION"
	KindNotFound              Kind = "NOT_FOUND"
	KindInvalidVisitState     Kind = "INVALID_VISIT_STATE"
	KindDoctorUnavailable     Kind = "DOCTOR_UNAVAILABLE"
	KindPendingInvestigations Kind = "PENDING_INVESTIGATIONS"
	KindPaymentRequired       Kind = "PAYMENT_REQUIRED"
	KindConflict              Kind = "CONFLICT"
	KindIntegrity             Kind = "INTEGRITY"
	KindInternal              Kind = "INTERNAL"
)

// Error is an application error carrying a Kind.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps the error kind to an HTTP status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidVisitState, KindConflict:
		return http.StatusConflict
	case KindDoctorUnavailable, KindPendingInvestigations:
		return http.StatusUnprocessableEntity
	case KindPaymentRequired:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(err error, kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func Validation(format string, args ...interface{}) *Error {
	return New(KindValidation, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return New(KindNotFound, format, args...)
}

func InvalidVisitState(format string, args ...interface{}) *Error {
	return New(KindInvalidVisitState, format, args...)
}

func DoctorUnavailable(format string, args ...interface{}) *Error {
	return New(KindDoctorUnavailable, format, args...)
}

func PendingInvestigations(format string, args ...interface{}) *Error {
	return New(KindPendingInvestigations, format, args...)
}

func PaymentRequired(format string, args ...interface{}) *Error {
	return New(KindPaymentRequired, format, args...)
}

func Integrity(err error, format string, args ...interface{}) *Error {
	return Wrap(err, KindIntegrity, format, args...)
}

// IsKind reports whether err is an application error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}

// StatusOf returns the HTTP status for any error, defaulting to 500.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.HTTPStatus()
	}
	return http.StatusInternalServerError
}

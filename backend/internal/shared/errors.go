// ============================================================================
// backend/internal/shared/errors.go
// Service error taxonomy, carried to the HTTP layer as gRPC status codes
// ============================================================================

package shared

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind classifies a service error
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindAccess
	KindConflict
	KindCapacity
	KindPolicy
	KindUnauthenticated
)

// FieldError describes one invalid input field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is returned by every service operation that fails for a reason the
// caller should see.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// GRPCStatus lets status.FromError classify service errors.
func (e *Error) GRPCStatus() *status.Status {
	return status.New(e.Code(), e.Message)
}

// Code maps the error kind onto a gRPC code
func (e *Error) Code() codes.Code {
	switch e.Kind {
	case KindValidation:
		return codes.InvalidArgument
	case KindNotFound:
		return codes.NotFound
	case KindAccess:
		return codes.PermissionDenied
	case KindConflict:
		return codes.AlreadyExists
	case KindCapacity:
		return codes.ResourceExhausted
	case KindPolicy:
		return codes.FailedPrecondition
	case KindUnauthenticated:
		return codes.Unauthenticated
	default:
		return codes.Internal
	}
}

// ============================================================================
// Constructors
// ============================================================================

func ValidationError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationFields builds a validation error from a list of field problems
func ValidationFields(fields []FieldError) *Error {
	return &Error{Kind: KindValidation, Message: "Validation failed", Fields: fields}
}

func NotFoundError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func AccessError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindAccess, Message: fmt.Sprintf(format, args...)}
}

func ConflictError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func CapacityError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindCapacity, Message: fmt.Sprintf(format, args...)}
}

func PolicyError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindPolicy, Message: fmt.Sprintf(format, args...)}
}

func UnauthenticatedError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindUnauthenticated, Message: fmt.Sprintf(format, args...)}
}

// InternalError hides cause from the caller but keeps it for logging
func InternalError(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: message, cause: cause}
}

// KindOf returns the kind of err, or KindInternal for foreign errors
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err is a service error of the given kind
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

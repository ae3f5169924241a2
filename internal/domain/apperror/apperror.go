package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error for propagation and transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindValidation
	// KindConsistencyFault marks a multi-record mutation that committed partially.
	// It is never treated as a client error.
	KindConsistencyFault
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	case KindConsistencyFault:
		return "consistency_fault"
	default:
		return "internal"
	}
}

// Error is the domain error carried from services to the transport layer.
// Two errors are equal under errors.Is when their codes match, so the
// sentinels below can be compared against errors built with extra detail.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Field   string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + " " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrUserNotFound   = &Error{Kind: KindNotFound, Code: "USER_NOT_FOUND", Message: "user not found"}
	ErrCircleNotFound = &Error{Kind: KindNotFound, Code: "CIRCLE_NOT_FOUND", Message: "circle not found"}

	ErrUsernameTaken               = &Error{Kind: KindConflict, Code: "USERNAME_TAKEN", Message: "that username is already taken"}
	ErrEmailTaken                  = &Error{Kind: KindConflict, Code: "EMAIL_TAKEN", Message: "an account with that email already exists"}
	ErrAlreadyConnectedOrRequested = &Error{Kind: KindConflict, Code: "ALREADY_CONNECTED_OR_REQUESTED", Message: "already requested or connected"}
	ErrNoSuchRequest               = &Error{Kind: KindConflict, Code: "NO_SUCH_REQUEST", Message: "no such request"}
	ErrNotAConnection              = &Error{Kind: KindConflict, Code: "NOT_A_CONNECTION", Message: "member is not a connection of the circle owner"}
	ErrConcurrentUpdate            = &Error{Kind: KindConflict, Code: "CONCURRENT_UPDATE", Message: "record was modified concurrently, try again"}

	ErrMissingField = &Error{Kind: KindValidation, Code: "MISSING_FIELD", Message: "is required"}
	ErrInvalidOrder = &Error{Kind: KindValidation, Code: "INVALID_ORDER", Message: "order must be a permutation of the circle members"}
	ErrSelfRequest  = &Error{Kind: KindValidation, Code: "SELF_REQUEST", Message: "cannot send a request to yourself"}
	ErrInvalidInput = &Error{Kind: KindValidation, Code: "INVALID_INPUT", Message: "invalid input"}

	ErrConsistencyFault = &Error{Kind: KindConsistencyFault, Code: "CONSISTENCY_FAULT", Message: "connection was only partially persisted"}
)

// MissingField reports a required field that was empty.
func MissingField(field string) error {
	return &Error{Kind: KindValidation, Code: ErrMissingField.Code, Message: ErrMissingField.Message, Field: field}
}

// Invalid reports a malformed field value.
func Invalid(field, message string) error {
	return &Error{Kind: KindValidation, Code: ErrInvalidInput.Code, Message: message, Field: field}
}

// ConsistencyFault wraps the storage error that left records half-written.
func ConsistencyFault(err error) error {
	return &Error{Kind: KindConsistencyFault, Code: ErrConsistencyFault.Code, Message: ErrConsistencyFault.Message, Err: err}
}

// KindOf returns the Kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As extracts the domain error from err.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

package types

import (
	"errors"
	"fmt"
)

// Error kinds returned by the engine. Callers classify failures with
// errors.Is against these sentinels.
var (
	ErrUnauthorized   = errors.New("not authenticated")
	ErrAccessDenied   = errors.New("access denied")
	ErrNotFound       = errors.New("not found")
	ErrAlreadyExists  = errors.New("already exists")
	ErrCrossWorkspace = errors.New("cross-workspace reference")
	ErrSelfReference  = errors.New("self reference")
	ErrValidation     = errors.New("validation failed")
	ErrStore          = errors.New("store failure")
)

// defaultMessages holds the caller-facing text for each kind when no more
// specific message was attached.
var defaultMessages = map[error]string{
	ErrUnauthorized:   "Not authenticated",
	ErrAccessDenied:   "You do not have access to this workspace",
	ErrNotFound:       "Not found",
	ErrAlreadyExists:  "Already exists",
	ErrCrossWorkspace: "Cannot link entities from different workspaces",
	ErrSelfReference:  "Cannot link an entity to itself",
	ErrValidation:     "Invalid request",
}

// Error pairs an error kind with the message shown to callers.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// Unwrap exposes the kind to errors.Is.
func (e *Error) Unwrap() error { return e.Kind }

// Errorf returns an *Error of the given kind with a formatted message.
func Errorf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// NotFoundf is shorthand for Errorf(ErrNotFound, ...).
func NotFoundf(format string, args ...any) error {
	return Errorf(ErrNotFound, format, args...)
}

// Invalidf is shorthand for Errorf(ErrValidation, ...).
func Invalidf(format string, args ...any) error {
	return Errorf(ErrValidation, format, args...)
}

// Message returns the caller-facing text for err. Errors carrying an *Error
// use its message; bare kinds use their default text; anything else passes
// through unchanged.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	for kind, msg := range defaultMessages {
		if errors.Is(err, kind) {
			return msg
		}
	}
	return err.Error()
}

// Kind returns the sentinel kind of err, or ErrStore for unclassified errors.
func Kind(err error) error {
	for _, kind := range []error{
		ErrUnauthorized, ErrAccessDenied, ErrNotFound, ErrAlreadyExists,
		ErrCrossWorkspace, ErrSelfReference, ErrValidation, ErrStore,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ErrStore
}

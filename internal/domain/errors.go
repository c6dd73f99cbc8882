package domain

import (
	"context"
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	ErrCancelled          = errors.New("cancelled")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrValidation         = errors.New("validation error")
	ErrConnectionFailure  = errors.New("connection failure")
	ErrReferenced         = errors.New("referenced")
	ErrNotFound           = errors.New("not found")
	ErrStoreFailure       = errors.New("store failure")
)

// ErrStatusChanged is returned by a conditional order status update whose
// order left the expected status before the write.
var ErrStatusChanged = errors.New("order status changed concurrently")

type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Kind.Error() + ": " + e.Err.Error()
	}
	return e.Kind.Error()
}

func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

func Validation(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func InvalidCredentials(message string) error {
	return &Error{Kind: ErrInvalidCredentials, Message: message}
}

func Referenced(message string, cause error) error {
	return &Error{Kind: ErrReferenced, Message: message, Err: cause}
}

func NotFound(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func ConnectionFailure(cause error) error {
	return &Error{Kind: ErrConnectionFailure, Message: "cannot connect to database", Err: cause}
}

func StoreFailure(cause error) error {
	return &Error{Kind: ErrStoreFailure, Err: cause}
}

func Cancelled(cause error) error {
	return &Error{Kind: ErrCancelled, Err: cause}
}

// IsCancelled reports whether err came from an aborted operation, including
// context cancellation that reached the store driver.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}

// Message returns the user-facing text for err. Cancelled operations have none.
func Message(err error) string {
	if err == nil || IsCancelled(err) {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		switch {
		case de.Kind == ErrStoreFailure && de.Err != nil:
			return "database error: " + de.Err.Error()
		case de.Kind == ErrConnectionFailure:
			return de.Error()
		case de.Message != "":
			return de.Message
		}
		return de.Error()
	}
	return err.Error()
}

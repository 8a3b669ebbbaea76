package apperror

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation          Kind = "validation"
	KindNotFound            Kind = "not_found"
	KindAuthorization       Kind = "authorization"
	KindState               Kind = "state"
	KindCancellationWindow  Kind = "cancellation_window"
	KindConcurrencyConflict Kind = "concurrency_conflict"
)

// Error is a classified domain error. Reason is a stable machine-readable code
// (e.g. "SlotFull") and is empty for kinds that do not need one.
type Error struct {
	Kind    Kind
	Reason  string
	Message string
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", e.Reason, e.Message)
	}
	return e.Message
}

// Is matches on Kind and, when the target carries one, on Reason. This lets
// package sentinels such as booking.ErrSlotFull work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

func Validation(reason, message string) *Error {
	return &Error{Kind: KindValidation, Reason: reason, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Reason: "NotFound", Message: message}
}

func Authorization(message string) *Error {
	return &Error{Kind: KindAuthorization, Reason: "NotAuthorized", Message: message}
}

func State(message string) *Error {
	return &Error{Kind: KindState, Reason: "InvalidState", Message: message}
}

func CancellationWindow(message string) *Error {
	return &Error{Kind: KindCancellationWindow, Reason: "CancellationWindow", Message: message}
}

func ConcurrencyConflict(message string) *Error {
	return &Error{Kind: KindConcurrencyConflict, Reason: "ConcurrencyConflict", Message: message}
}

// Kind-only targets for errors.Is.
var (
	ErrValidation          = &Error{Kind: KindValidation}
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrAuthorization       = &Error{Kind: KindAuthorization}
	ErrState               = &Error{Kind: KindState}
	ErrCancellationWindow  = &Error{Kind: KindCancellationWindow}
	ErrConcurrencyConflict = &Error{Kind: KindConcurrencyConflict}
)

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// ReasonOf returns the reason code of a classified error, or "" otherwise.
func ReasonOf(err error) string {
	if appErr, ok := As(err); ok {
		return appErr.Reason
	}
	return ""
}

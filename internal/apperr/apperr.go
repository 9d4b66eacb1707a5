package apperr

import (
	"errors"
	"fmt"
)

// Kind категория ошибки, по которой клиент может ветвиться
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindUnauthorized
	KindInvalidState
	KindInvalidInput
	KindConflict
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindInvalidState:
		return "invalid_state"
	case KindInvalidInput:
		return "invalid_input"
	case KindConflict:
		return "conflict"
	case KindFatal:
		return "fatal"
	}
	return "unknown"
}

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is позволяет сравнивать через errors.Is по категории:
// errors.Is(err, &Error{Kind: KindConflict}) — совпадение по Kind
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf возвращает категорию ошибки (KindUnknown если ошибка не наша)
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Стабильные сообщения - клиенты ветвятся по ним и по Kind
var (
	ErrSlotNotFound       = New(KindNotFound, "slot not found")
	ErrSlotsNotFound      = New(KindNotFound, "one or both slots not found")
	ErrSwapNotFound       = New(KindNotFound, "swap request not found")
	ErrSwapSlotsGone      = New(KindNotFound, "slots involved in swap no longer exist")
	ErrUserNotFound       = New(KindNotFound, "user not found")
	ErrNotSlotOwner       = New(KindUnauthorized, "not authorized to modify this slot")
	ErrInvalidOwnership   = New(KindUnauthorized, "invalid slot ownership")
	ErrNotReceiver        = New(KindUnauthorized, "not authorized to respond")
	ErrSlotPending        = New(KindInvalidState, "cannot change status of a pending swap")
	ErrSlotNotDeletable   = New(KindInvalidState, "cannot delete a slot involved in a swap")
	ErrNotSwappable       = New(KindInvalidState, "both slots must be marked as swappable")
	ErrAlreadyActioned    = New(KindInvalidState, "this request has already been actioned")
	ErrInvalidTimeRange   = New(KindInvalidInput, "start time must be before end time")
	ErrInvalidStatus      = New(KindInvalidInput, "invalid status")
	ErrTitleRequired      = New(KindInvalidInput, "title is required")
	ErrEmailTaken         = New(KindInvalidInput, "email already registered")
	ErrInvalidCredentials = New(KindUnauthorized, "invalid email or password")
	ErrInvalidToken       = New(KindUnauthorized, "invalid or expired token")
	ErrConcurrentUpdate   = New(KindConflict, "record was modified concurrently, retry from fresh state")
	ErrPartialSwapApplied = New(KindFatal, "swap left records in an inconsistent state")
)

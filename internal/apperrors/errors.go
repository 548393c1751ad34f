// Package apperrors defines the typed failures returned by the ticketing core.
//
// Validation, Conflict, NotFound and State errors are always returned to the
// caller. External errors come from notification or payment collaborators and are
// logged by the component that triggered them.
package apperrors

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind classifies an error for propagation and presentation
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindState
	KindExternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindState:
		return "state"
	case KindExternal:
		return "external"
	default:
		return "internal"
	}
}

// Error is a classified application error
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinel errors by kind and code so wrapped copies still compare equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

var (
	ErrEmptyRequest       = &Error{Kind: KindValidation, Code: "EMPTY_REQUEST", Message: "no ticket ids given"}
	ErrOrderExpired       = &Error{Kind: KindState, Code: "ORDER_EXPIRED", Message: "order has expired"}
	ErrOrderNotPending    = &Error{Kind: KindState, Code: "ORDER_NOT_PENDING", Message: "order is not pending"}
	ErrRoundAlreadyDrawn  = &Error{Kind: KindState, Code: "ROUND_ALREADY_DRAWN", Message: "round already drawn with different winning numbers"}
	ErrRoundNotOpen       = &Error{Kind: KindState, Code: "ROUND_NOT_OPEN", Message: "round is not open"}
	ErrRoundNotDrawn      = &Error{Kind: KindState, Code: "ROUND_NOT_DRAWN", Message: "round has not been drawn"}
	ErrTicketNotDeletable = &Error{Kind: KindState, Code: "TICKET_NOT_DELETABLE", Message: "only available tickets can be deleted"}
	ErrSweepInProgress    = &Error{Kind: KindState, Code: "SWEEP_IN_PROGRESS", Message: "expiry sweep already running"}
	ErrAnnounceInProgress = &Error{Kind: KindState, Code: "ANNOUNCE_IN_PROGRESS", Message: "announcement already running for round"}
)

// Validation builds a ValidationError
func Validation(code, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds a NotFoundError for the named entity
func NotFound(entity string, id any) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    strings.ToUpper(entity) + "_NOT_FOUND",
		Message: fmt.Sprintf("%s %v not found", entity, id),
	}
}

// State builds a StateError
func State(code, format string, args ...any) *Error {
	return &Error{Kind: KindState, Code: code, Message: fmt.Sprintf(format, args...)}
}

// External wraps a collaborator failure
func External(service string, err error) *Error {
	return &Error{Kind: KindExternal, Code: "EXTERNAL_" + strings.ToUpper(service), Message: service + " call failed", Err: err}
}

// TicketUnavailableError is the conflict returned when a checkout loses the race
// for one or more tickets, or names tickets that cannot be sold.
type TicketUnavailableError struct {
	IDs []int64
}

// NewTicketUnavailable returns the error with ids sorted ascending.
func NewTicketUnavailable(ids []int64) *TicketUnavailableError {
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return &TicketUnavailableError{IDs: sorted}
}

func (e *TicketUnavailableError) Error() string {
	parts := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return "tickets unavailable: " + strings.Join(parts, ",")
}

// KindOf returns the classification of err, KindInternal when unclassified.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	var tu *TicketUnavailableError
	if errors.As(err, &tu) {
		return KindConflict
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// CodeOf returns the stable code of err, or "INTERNAL".
func CodeOf(err error) string {
	var tu *TicketUnavailableError
	if errors.As(err, &tu) {
		return "TICKET_UNAVAILABLE"
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return "INTERNAL"
}

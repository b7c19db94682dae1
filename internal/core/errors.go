package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/valter-silva-au/plan-manager/pkg/models"
)

// ErrorKind classifies domain errors so the transport layer can decide how
// to present them without parsing message strings.
type ErrorKind string

const (
	KindNotFound          ErrorKind = "not_found"
	KindSelfReference     ErrorKind = "self_reference"
	KindCycleDetected     ErrorKind = "cycle_detected"
	KindInvalidTransition ErrorKind = "invalid_transition"
	KindDependencyUnmet   ErrorKind = "dependency_unmet"
	KindValidation        ErrorKind = "validation"
	KindPersistence       ErrorKind = "persistence"
)

// Error is a structured domain error. Every violation detected inside the
// core is raised as one of these, carrying enough context (ids, current
// state, allowed next operations) that no guessing is required upstream.
type Error struct {
	Kind    ErrorKind
	Message string

	// ID is the item the error is about, when there is one.
	ID string

	// CyclePath is the ordered id list from the repeated node back to
	// itself, set for KindCycleDetected.
	CyclePath []string

	// From and AllowedOps describe a rejected lifecycle transition, set for
	// KindInvalidTransition.
	From       models.Status
	AllowedOps []string

	// UnmetDependencies lists every dependency blocking a gate, set for
	// KindDependencyUnmet.
	UnmetDependencies []string

	// Dependents lists items still referencing a deletion target, set when
	// a delete is rejected without explicit acknowledgment.
	Dependents []string

	// Err is the wrapped cause, set for KindPersistence.
	Err error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindCycleDetected:
		return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.CyclePath, " -> "))
	case KindInvalidTransition:
		if len(e.AllowedOps) > 0 {
			return fmt.Sprintf("%s (current status %s; allowed operations: %s)",
				e.Message, e.From, strings.Join(e.AllowedOps, ", "))
		}
		return fmt.Sprintf("%s (current status %s; no operations allowed)", e.Message, e.From)
	case KindDependencyUnmet:
		return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.UnmetDependencies, ", "))
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of a domain error, or "" for other errors.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// notFoundError reports a missing item by id.
func notFoundError(what, id string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s %q not found", what, id),
		ID:      id,
	}
}

// selfReferenceError reports an item listing itself as a dependency.
func selfReferenceError(id string) *Error {
	return &Error{
		Kind:    KindSelfReference,
		Message: fmt.Sprintf("item %q cannot depend on itself", id),
		ID:      id,
	}
}

// cycleError reports a dependency cycle with its path.
func cycleError(path []string) *Error {
	return &Error{
		Kind:      KindCycleDetected,
		Message:   "dependency cycle detected",
		CyclePath: path,
	}
}

// invalidTransitionError reports a lifecycle operation that is not legal
// from the item's current status, naming the allowed next operations.
func invalidTransitionError(taskID, op string, from models.Status) *Error {
	return &Error{
		Kind:       KindInvalidTransition,
		Message:    fmt.Sprintf("cannot %s task %q", op, taskID),
		ID:         taskID,
		From:       from,
		AllowedOps: allowedOperations(from),
	}
}

// dependencyUnmetError reports a gate attempt with incomplete upstream
// dependencies, listing every unmet dependency id.
func dependencyUnmetError(taskID string, unmet []string) *Error {
	return &Error{
		Kind:              KindDependencyUnmet,
		Message:           fmt.Sprintf("task %q has unmet dependencies", taskID),
		ID:                taskID,
		UnmetDependencies: unmet,
	}
}

// validationError reports malformed input.
func validationError(format string, args ...any) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

// persistenceError wraps a load/save failure from the plan store.
func persistenceError(op string, err error) *Error {
	return &Error{
		Kind:    KindPersistence,
		Message: fmt.Sprintf("%s: %v", op, err),
		Err:     err,
	}
}

package entity

import (
	"context"
	"errors"
)

// ErrorKind is the closed classification of automation failures carried in
// failed snapshots. The poller gets structure, not free text to parse.
type ErrorKind string

const (
	// ErrKindTimeout covers login/navigation deadlines and the per-job
	// execution timeout.
	ErrKindTimeout ErrorKind = "timeout"
	// ErrKindElementNotFound means the portal markup changed or there was
	// nothing to process.
	ErrKindElementNotFound ErrorKind = "element_not_found"
	// ErrKindUnexpected is the catch-all for everything else.
	ErrKindUnexpected ErrorKind = "unexpected"
)

var (
	// ErrNotFound is returned for unknown or expired job handles.
	ErrNotFound = errors.New("job not found")
	// ErrBackendUnavailable means the execution backend cannot accept work.
	ErrBackendUnavailable = errors.New("execution backend unavailable")
	// ErrTerminal is returned on any write to a job already in a terminal
	// state.
	ErrTerminal = errors.New("job already in terminal state")
)

// AutomationError is a classified failure raised by a run.
type AutomationError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *AutomationError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *AutomationError) Unwrap() error {
	return e.Err
}

// ClassifyError maps an arbitrary run failure onto the closed kind set.
func ClassifyError(err error) (ErrorKind, string) {
	if err == nil {
		return "", ""
	}
	var ae *AutomationError
	if errors.As(err, &ae) {
		return ae.Kind, ae.Error()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrKindTimeout, "job exceeded its execution deadline"
	}
	return ErrKindUnexpected, err.Error()
}

package coordinator

import (
	"errors"
	"runtime/debug"
)

const runErrorPrefix = "run-browser-agent error: "

// RunError is the only error shape StartRun returns. Error() carries the
// cause and the stack captured where the failure was normalized.
type RunError struct {
	Cause error
	Stack string
}

func newRunError(cause error) *RunError {
	if cause == nil {
		cause = errors.New("unknown error")
	}
	return &RunError{Cause: cause, Stack: string(debug.Stack())}
}

func (e *RunError) Error() string {
	return runErrorPrefix + e.Cause.Error() + "\n" + e.Stack
}

func (e *RunError) Unwrap() error {
	return e.Cause
}

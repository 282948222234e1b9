package workflow

import (
	"errors"
	"fmt"
)

// CancelledMessage is stored as the error message of a record whose
// workflow the user declined at a confirmation.
const CancelledMessage = "cancelled by user"

// ErrCancelled ends a workflow the user declined. It is not a failure: the
// record is written with success=false and CancelledMessage, and the process
// exits 0.
var ErrCancelled = errors.New(CancelledMessage)

// MsgNoStagedChanges is the precondition failure for workflows that need
// staged changes.
const MsgNoStagedChanges = "no staged changes found; stage files with 'git add' first"

// PreconditionError reports repository state that a workflow requires but
// is missing.
type PreconditionError struct {
	Msg string
}

func (e *PreconditionError) Error() string {
	return e.Msg
}

func precondition(format string, args ...any) error {
	return &PreconditionError{Msg: fmt.Sprintf(format, args...)}
}

// ExternalToolError reports a failed git or code-hosting invocation. Err
// carries the tool's own error text.
type ExternalToolError struct {
	Op  string
	Err error
}

func (e *ExternalToolError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ExternalToolError) Unwrap() error {
	return e.Err
}

func toolError(op string, err error) error {
	return &ExternalToolError{Op: op, Err: err}
}

// AssistantError reports an assistant that could not be reached or whose
// reply could not be understood. A *parse.Error in the chain means the reply
// lacked a required section.
type AssistantError struct {
	Op  string
	Err error
}

func (e *AssistantError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *AssistantError) Unwrap() error {
	return e.Err
}

// AssistantHint is printed after an assistant failure.
const AssistantHint = "check the assistant settings (assistant.backend, assistant.command) or run 'gitpilot doctor'"

// ExitCode maps a workflow's terminal error to the process exit code:
// 0 for success and cancellation, 1 for everything else.
func ExitCode(err error) int {
	if err == nil || errors.Is(err, ErrCancelled) {
		return 0
	}
	return 1
}

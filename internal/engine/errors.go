package engine

import (
	"errors"
	"fmt"
)

// ExecError reports a command that failed while the Player executed it.
//
// Execution errors never stop playback: the Player logs them, reports them
// to its Observer, and moves on to the next command.
type ExecError struct {
	// Code identifies the error category.
	Code ExecErrorCode

	// Command is the wire name of the failing command.
	Command string

	// Index is the command's position in the active log, or -1 when the
	// command ran outside one.
	Index int

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// ExecErrorCode categorizes execution errors.
type ExecErrorCode string

const (
	// ErrCodeUnknownCommand indicates a command outside the vocabulary or
	// with arguments that could not be parsed.
	ErrCodeUnknownCommand ExecErrorCode = "UNKNOWN_COMMAND"

	// ErrCodeHandlerMissing indicates an Internal command with no bound handler.
	ErrCodeHandlerMissing ExecErrorCode = "HANDLER_MISSING"

	// ErrCodeHandlerFailed indicates a handler returned an error.
	ErrCodeHandlerFailed ExecErrorCode = "HANDLER_FAILED"

	// ErrCodePanic indicates a command panicked.
	ErrCodePanic ExecErrorCode = "PANIC"

	// ErrCodeReentrant indicates a handler called back into the Player.
	ErrCodeReentrant ExecErrorCode = "REENTRANT"
)

// Error implements the error interface.
func (e *ExecError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Command != "" {
		msg = fmt.Sprintf("%s (command=%s)", msg, e.Command)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ExecError) Unwrap() error {
	return e.Err
}

// ErrorCode returns the ExecErrorCode carried by err, or "" if err is not
// an *ExecError. Uses errors.As to handle wrapped errors.
func ErrorCode(err error) ExecErrorCode {
	var ee *ExecError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}

// IsUnknownCommand returns true if err reports an unknown command.
func IsUnknownCommand(err error) bool {
	return ErrorCode(err) == ErrCodeUnknownCommand
}

// IsHandlerError returns true if err reports a missing or failing handler.
func IsHandlerError(err error) bool {
	code := ErrorCode(err)
	return code == ErrCodeHandlerMissing || code == ErrCodeHandlerFailed
}

func newReentrantError(op string) *ExecError {
	return &ExecError{
		Code:    ErrCodeReentrant,
		Index:   -1,
		Message: fmt.Sprintf("%s called from inside an effect handler", op),
	}
}

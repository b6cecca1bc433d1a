package cli

import (
	"errors"
	"fmt"
)

// ErrBlocked is wrapped when a command found blocking problems in a
// document. The message has already been printed.
var ErrBlocked = errors.New("blocking findings")

// CommandError represents an error from a command execution.
type CommandError struct {
	Command  string
	Err      error
	ExitCode int
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError creates a new CommandError with exit code 1.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command:  command,
		Err:      err,
		ExitCode: 1,
	}
}

// Blocked reports that command rejected n documents. It exits with code 2
// so scripts can tell findings from failures.
func Blocked(command string, n int) *CommandError {
	return &CommandError{
		Command:  command,
		Err:      fmt.Errorf("%w in %d document(s)", ErrBlocked, n),
		ExitCode: 2,
	}
}

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ce *CommandError
	if errors.As(err, &ce) && ce.ExitCode != 0 {
		return ce.ExitCode
	}
	return 1
}

package execshell

import (
	"errors"
	"fmt"
)

const (
	commandFailedErrorTemplateConstant             = "%s exited with code %d"
	commandFailedWithStandardErrorTemplateConstant = "%s exited with code %d: %s"
	commandExecutionErrorTemplateConstant          = "%s could not be executed: %v"
	streamReadErrorTemplateConstant                = "reading %s of %s failed: %v"
	loggerNotConfiguredMessageConstant             = "logger not configured"
	executableNotConfiguredMessageConstant         = "executable not configured"
)

var (
	// ErrLoggerNotConfigured indicates that a streaming invocation was attempted without a logger.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrExecutableNotConfigured indicates that an Invoker was created without an executable.
	ErrExecutableNotConfigured = errors.New(executableNotConfiguredMessageConstant)
)

// CommandFailedError reports that the wrapped process terminated with a non-zero exit code.
// StandardError is populated only for capture-mode invocations.
type CommandFailedError struct {
	Command       ShellCommand
	ExitCode      int
	StandardError string
}

// Error describes the failed command.
func (failure CommandFailedError) Error() string {
	if len(failure.StandardError) == 0 {
		return fmt.Sprintf(commandFailedErrorTemplateConstant, failure.Command.Name, failure.ExitCode)
	}
	return fmt.Sprintf(commandFailedWithStandardErrorTemplateConstant, failure.Command.Name, failure.ExitCode, failure.StandardError)
}

// CommandExecutionError reports that the wrapped process could not be started or awaited.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure.
func (failure CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionErrorTemplateConstant, failure.Command.Name, failure.Cause)
}

// Unwrap exposes the underlying cause.
func (failure CommandExecutionError) Unwrap() error {
	return failure.Cause
}

// StreamReadError reports an I/O failure while draining one of the child output streams.
type StreamReadError struct {
	Command ShellCommand
	Stream  StreamName
	Cause   error
}

// Error describes the stream failure.
func (failure StreamReadError) Error() string {
	return fmt.Sprintf(streamReadErrorTemplateConstant, failure.Stream, failure.Command.Name, failure.Cause)
}

// Unwrap exposes the underlying cause.
func (failure StreamReadError) Unwrap() error {
	return failure.Cause
}

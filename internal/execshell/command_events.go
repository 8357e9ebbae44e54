package execshell

import "go.uber.org/zap"

// CommandEventObserver receives lifecycle notifications for shell command execution.
type CommandEventObserver interface {
	// CommandStarted notifies observers that command execution is beginning.
	CommandStarted(command ShellCommand)
	// CommandCompleted notifies observers that command execution finished and supplies the result.
	CommandCompleted(command ShellCommand, result ExecutionResult)
	// CommandExecutionFailed reports unexpected failures prior to receiving an execution result.
	CommandExecutionFailed(command ShellCommand, failure error)
}

// noopCommandEventObserver discards all command events.
type noopCommandEventObserver struct{}

// CommandStarted implements CommandEventObserver for the no-op observer.
func (noopCommandEventObserver) CommandStarted(ShellCommand) {}

// CommandCompleted implements CommandEventObserver for the no-op observer.
func (noopCommandEventObserver) CommandCompleted(ShellCommand, ExecutionResult) {}

// CommandExecutionFailed implements CommandEventObserver for the no-op observer.
func (noopCommandEventObserver) CommandExecutionFailed(ShellCommand, error) {}

const (
	logFieldExitCodeConstant         = "exit_code"
	logFieldWorkingDirectoryConstant = "working_directory"
)

// LoggingCommandEventObserver records command lifecycle events as debug log entries.
type LoggingCommandEventObserver struct {
	logger    *zap.Logger
	formatter CommandMessageFormatter
}

// NewLoggingCommandEventObserver constructs an observer writing to the provided logger.
func NewLoggingCommandEventObserver(logger *zap.Logger) (*LoggingCommandEventObserver, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	return &LoggingCommandEventObserver{logger: logger}, nil
}

// CommandStarted logs the command about to run.
func (observer *LoggingCommandEventObserver) CommandStarted(command ShellCommand) {
	observer.logger.Debug(
		observer.formatter.BuildStartedMessage(command),
		zap.String(logFieldCommandConstant, string(command.Name)),
		zap.String(logFieldWorkingDirectoryConstant, command.Details.WorkingDirectory),
	)
}

// CommandCompleted logs the command outcome.
func (observer *LoggingCommandEventObserver) CommandCompleted(command ShellCommand, result ExecutionResult) {
	message := observer.formatter.BuildSuccessMessage(command)
	if result.ExitCode != 0 {
		message = observer.formatter.BuildFailureMessage(command, result)
	}
	observer.logger.Debug(
		message,
		zap.String(logFieldCommandConstant, string(command.Name)),
		zap.Int(logFieldExitCodeConstant, result.ExitCode),
	)
}

// CommandExecutionFailed logs failures that prevented an exit code from being observed.
func (observer *LoggingCommandEventObserver) CommandExecutionFailed(command ShellCommand, failure error) {
	observer.logger.Debug(
		observer.formatter.BuildExecutionFailureMessage(command, failure),
		zap.String(logFieldCommandConstant, string(command.Name)),
		zap.Error(failure),
	)
}

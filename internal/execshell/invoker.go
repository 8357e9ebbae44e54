package execshell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"go.uber.org/zap"
)

const (
	environmentAssignmentTemplateConstant = "%s=%s"
	standardOutputPipeErrorTemplate       = "unable to attach standard output: %w"
	standardErrorPipeErrorTemplate        = "unable to attach standard error: %w"
)

// InvokerOption customizes an Invoker during construction.
type InvokerOption func(*invokerSettings)

type invokerSettings struct {
	leadingArguments      []string
	workingDirectory      string
	environment           map[string]string
	inheritStandardInput  bool
	commandEventsObserver CommandEventObserver
}

// WithWorkingDirectory runs every invocation from the provided directory.
func WithWorkingDirectory(workingDirectory string) InvokerOption {
	return func(settings *invokerSettings) {
		settings.workingDirectory = strings.TrimSpace(workingDirectory)
	}
}

// WithEnvironment replaces the inherited environment with the provided mapping.
// An empty mapping keeps the inherited environment.
func WithEnvironment(environment map[string]string) InvokerOption {
	return func(settings *invokerSettings) {
		settings.environment = environment
	}
}

// WithLeadingArguments places fixed arguments between the executable and the sub-command.
func WithLeadingArguments(arguments ...string) InvokerOption {
	return func(settings *invokerSettings) {
		settings.leadingArguments = append([]string{}, arguments...)
	}
}

// WithInheritedStandardInput connects the child standard input to the supervisor's own.
func WithInheritedStandardInput() InvokerOption {
	return func(settings *invokerSettings) {
		settings.inheritStandardInput = true
	}
}

// WithCommandEventObserver registers an observer notified about each invocation.
func WithCommandEventObserver(observer CommandEventObserver) InvokerOption {
	return func(settings *invokerSettings) {
		settings.commandEventsObserver = observer
	}
}

// Invoker spawns and supervises the wrapped executable. It holds no per-call state,
// so one instance may serve any number of sequential invocations.
type Invoker struct {
	executable            CommandName
	leadingArguments      []string
	workingDirectory      string
	environment           []string
	inheritStandardInput  bool
	commandEventsObserver CommandEventObserver
}

// NewInvoker constructs an Invoker for the provided executable name or path.
func NewInvoker(executable string, options ...InvokerOption) (*Invoker, error) {
	trimmedExecutable := strings.TrimSpace(executable)
	if len(trimmedExecutable) == 0 {
		return nil, ErrExecutableNotConfigured
	}

	settings := invokerSettings{}
	for _, option := range options {
		if option != nil {
			option(&settings)
		}
	}

	observer := settings.commandEventsObserver
	if observer == nil {
		observer = noopCommandEventObserver{}
	}

	return &Invoker{
		executable:            CommandName(trimmedExecutable),
		leadingArguments:      settings.leadingArguments,
		workingDirectory:      settings.workingDirectory,
		environment:           buildEnvironment(settings.environment),
		inheritStandardInput:  settings.inheritStandardInput,
		commandEventsObserver: observer,
	}, nil
}

// Executable reports the wrapped executable.
func (invoker *Invoker) Executable() CommandName {
	return invoker.executable
}

// Environment returns a copy of the environment handed to every child.
func (invoker *Invoker) Environment() []string {
	return append([]string{}, invoker.environment...)
}

// Run executes the wrapped tool, captures both output streams and waits for it to exit.
// A non-zero exit code yields a CommandFailedError alongside the captured result.
func (invoker *Invoker) Run(executionContext context.Context, subCommand string, arguments ...string) (ExecutionResult, error) {
	shellCommand := invoker.describeCommand(subCommand, arguments)
	executable := invoker.buildExecutable(executionContext, shellCommand)

	var standardOutputBuffer bytes.Buffer
	var standardErrorBuffer bytes.Buffer
	executable.Stdout = &standardOutputBuffer
	executable.Stderr = &standardErrorBuffer

	invoker.commandEventsObserver.CommandStarted(shellCommand)

	runError := executable.Run()
	result := ExecutionResult{
		StandardOutput: standardOutputBuffer.String(),
		StandardError:  standardErrorBuffer.String(),
	}

	if runError != nil {
		exitError := &exec.ExitError{}
		if !errors.As(runError, &exitError) {
			executionError := CommandExecutionError{Command: shellCommand, Cause: runError}
			invoker.commandEventsObserver.CommandExecutionFailed(shellCommand, executionError)
			return ExecutionResult{}, executionError
		}
		result.ExitCode = exitCodeFromState(exitError.ProcessState)
	}

	invoker.commandEventsObserver.CommandCompleted(shellCommand, result)

	if result.ExitCode != 0 {
		return result, CommandFailedError{
			Command:       shellCommand,
			ExitCode:      result.ExitCode,
			StandardError: result.StandardError,
		}
	}

	return result, nil
}

// RunAndStream executes the wrapped tool and relays every output line to the logger while
// the process runs. Interrupt signals received by the supervisor are forwarded to the child
// until it exits. A non-zero exit code yields a CommandFailedError without captured output.
func (invoker *Invoker) RunAndStream(executionContext context.Context, logger *zap.Logger, subCommand string, arguments ...string) error {
	if logger == nil {
		return ErrLoggerNotConfigured
	}

	shellCommand := invoker.describeCommand(subCommand, arguments)
	executable := invoker.buildExecutable(executionContext, shellCommand)

	standardOutput, standardOutputError := executable.StdoutPipe()
	if standardOutputError != nil {
		return CommandExecutionError{Command: shellCommand, Cause: fmt.Errorf(standardOutputPipeErrorTemplate, standardOutputError)}
	}
	standardError, standardErrorError := executable.StderrPipe()
	if standardErrorError != nil {
		return CommandExecutionError{Command: shellCommand, Cause: fmt.Errorf(standardErrorPipeErrorTemplate, standardErrorError)}
	}

	forwarder := startSignalForwarding()

	invoker.commandEventsObserver.CommandStarted(shellCommand)

	if startError := executable.Start(); startError != nil {
		forwarder.stop()
		executionError := CommandExecutionError{Command: shellCommand, Cause: startError}
		invoker.commandEventsObserver.CommandExecutionFailed(shellCommand, executionError)
		return executionError
	}
	forwarder.attach(executable.Process)

	relay := newStreamRelay(logger, shellCommand).withAbort(func() {
		_ = interruptProcess(executable.Process)
	})
	relayError := relay.drain([]outputStream{
		{name: StreamStandardError, reader: standardError},
		{name: StreamStandardOutput, reader: standardOutput},
	})

	waitError := executable.Wait()
	forwarder.stop()

	if relayError != nil {
		invoker.commandEventsObserver.CommandExecutionFailed(shellCommand, relayError)
		return relayError
	}

	result := ExecutionResult{}
	if waitError != nil {
		exitError := &exec.ExitError{}
		if !errors.As(waitError, &exitError) {
			executionError := CommandExecutionError{Command: shellCommand, Cause: waitError}
			invoker.commandEventsObserver.CommandExecutionFailed(shellCommand, executionError)
			return executionError
		}
		result.ExitCode = exitCodeFromState(exitError.ProcessState)
	}

	invoker.commandEventsObserver.CommandCompleted(shellCommand, result)

	if result.ExitCode != 0 {
		return CommandFailedError{Command: shellCommand, ExitCode: result.ExitCode}
	}

	return nil
}

func (invoker *Invoker) describeCommand(subCommand string, arguments []string) ShellCommand {
	commandArguments := append([]string{}, invoker.leadingArguments...)
	if len(subCommand) > 0 {
		commandArguments = append(commandArguments, subCommand)
	}
	commandArguments = append(commandArguments, arguments...)

	return ShellCommand{
		Name: invoker.executable,
		Details: CommandDetails{
			Arguments:        commandArguments,
			WorkingDirectory: invoker.workingDirectory,
		},
	}
}

func (invoker *Invoker) buildExecutable(executionContext context.Context, command ShellCommand) *exec.Cmd {
	if executionContext == nil {
		executionContext = context.Background()
	}

	executable := exec.CommandContext(executionContext, string(command.Name), command.Details.Arguments...)
	executable.Cancel = func() error {
		return interruptProcess(executable.Process)
	}
	executable.Env = append([]string{}, invoker.environment...)

	if len(command.Details.WorkingDirectory) > 0 {
		executable.Dir = command.Details.WorkingDirectory
	}

	if invoker.inheritStandardInput {
		executable.Stdin = os.Stdin
	}

	return executable
}

func buildEnvironment(environment map[string]string) []string {
	if len(environment) == 0 {
		return append([]string{}, os.Environ()...)
	}

	environmentKeys := make([]string, 0, len(environment))
	for environmentKey := range environment {
		environmentKeys = append(environmentKeys, environmentKey)
	}
	sort.Strings(environmentKeys)

	assignments := make([]string, 0, len(environmentKeys))
	for _, environmentKey := range environmentKeys {
		assignments = append(assignments, fmt.Sprintf(environmentAssignmentTemplateConstant, environmentKey, environment[environmentKey]))
	}
	return assignments
}

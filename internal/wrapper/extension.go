package wrapper

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/edk/internal/execshell"
	"github.com/temirov/edk/internal/extension"
)

const (
	extensionCommandSuffixConstant         = "_extension"
	invokerCommandSuffixConstant           = "_invoker"
	extensionCommandDescriptionConstant    = "extension commands"
	invokerCommandDescriptionConstant      = "pass through invoker"
	invocationFailedTemplateConstant       = "%s invocation failed"
	commandLabelTemplateConstant           = "%s %s"
	executableResolvedMessageConstant      = "wrapped executable resolved"
	executableMissingMessageConstant       = "wrapped executable not found, continuing because initialization was forced"
	executableLookupErrorTemplateConstant  = "wrapped executable %s not found: %w"
	logFieldExecutableConstant             = "executable"
	logFieldResolvedPathConstant           = "resolved_path"
	loggerNotConfiguredMessageConstant     = "wrapper logger not configured"
	executableNotConfiguredMessageConstant = "wrapper executable not configured"
)

var (
	// ErrLoggerNotConfigured indicates that the extension was created without a logger.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrExecutableNotConfigured indicates that no executable was configured.
	ErrExecutableNotConfigured = errors.New(executableNotConfiguredMessageConstant)
)

// ExecutableLocator resolves an executable name to a path.
type ExecutableLocator func(executable string) (string, error)

// Extension forwards invocations to the wrapped executable and streams its output.
type Extension struct {
	logger            *zap.Logger
	binary            string
	commandPrefix     string
	invoker           *execshell.Invoker
	executableLocator ExecutableLocator
}

// NewExtension builds the pass-through extension for the configured executable.
func NewExtension(logger *zap.Logger, configuration Configuration, invokerOptions ...execshell.InvokerOption) (*Extension, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}

	binary, leadingArguments, parseError := configuration.ParsedExecutable()
	if parseError != nil {
		return nil, parseError
	}

	environment, environmentError := configuration.EnvironmentVariables()
	if environmentError != nil {
		return nil, environmentError
	}

	options := []execshell.InvokerOption{
		execshell.WithLeadingArguments(leadingArguments...),
		execshell.WithWorkingDirectory(configuration.WorkingDirectory),
		execshell.WithEnvironment(environment),
	}
	if configuration.InheritStandardInput {
		options = append(options, execshell.WithInheritedStandardInput())
	}
	options = append(options, invokerOptions...)

	invoker, invokerError := execshell.NewInvoker(binary, options...)
	if invokerError != nil {
		return nil, invokerError
	}

	return &Extension{
		logger:            logger,
		binary:            binary,
		commandPrefix:     configuration.ResolvedCommandPrefix(filepath.Base(binary)),
		invoker:           invoker,
		executableLocator: exec.LookPath,
	}, nil
}

// Invoke runs the wrapped executable with the provided command and arguments.
func (wrapper *Extension) Invoke(executionContext context.Context, commandName string, arguments []string) error {
	invokeError := wrapper.invoker.RunAndStream(executionContext, wrapper.logger, commandName, arguments...)
	if invokeError == nil {
		return nil
	}

	commandFailure := execshell.CommandFailedError{}
	if errors.As(invokeError, &commandFailure) {
		execshell.LogCommandFailure(
			wrapper.logger,
			strings.TrimSpace(fmt.Sprintf(commandLabelTemplateConstant, wrapper.commandPrefix, commandName)),
			invokeError,
			fmt.Sprintf(invocationFailedTemplateConstant, wrapper.commandPrefix),
		)
	}
	return invokeError
}

// Initialize verifies that the wrapped executable can be located. With force a missing
// executable is reported as a warning only.
func (wrapper *Extension) Initialize(_ context.Context, force bool) error {
	resolvedPath, lookupError := wrapper.executableLocator(wrapper.binary)
	if lookupError != nil {
		if force {
			wrapper.logger.Warn(executableMissingMessageConstant, zap.String(logFieldExecutableConstant, wrapper.binary), zap.Error(lookupError))
			return nil
		}
		return fmt.Errorf(executableLookupErrorTemplateConstant, wrapper.binary, lookupError)
	}

	wrapper.logger.Info(executableResolvedMessageConstant,
		zap.String(logFieldExecutableConstant, wrapper.binary),
		zap.String(logFieldResolvedPathConstant, resolvedPath),
	)
	return nil
}

// Describe lists the extension and pass-through invoker commands.
func (wrapper *Extension) Describe() extension.Description {
	return extension.Description{Commands: []extension.Command{
		extension.NewExtensionCommand(wrapper.commandPrefix+extensionCommandSuffixConstant, extensionCommandDescriptionConstant),
		extension.NewInvokerCommand(wrapper.commandPrefix+invokerCommandSuffixConstant, invokerCommandDescriptionConstant),
	}}
}

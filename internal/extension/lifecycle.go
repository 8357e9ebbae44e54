package extension

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/temirov/edk/internal/execshell"
)

// InternalErrorExitCode is the status used when the harness itself, not the wrapped tool, fails.
const InternalErrorExitCode = 1

const (
	passThroughCalledMessageConstant       = "pass through invoker called"
	uncaughtFailureMessageTemplateConstant = "%s failed with uncaught exception, please report to maintainer"
	commandFailureMessageTemplateConstant  = "%s failed because the wrapped command exited with a non-zero status"
	phasePanicTemplateConstant             = "panic: %v"
	logFieldPhaseConstant                  = "phase"
	logFieldCommandNameConstant            = "command_name"
	logFieldCommandArgumentsConstant       = "command_args"
	logFieldExitCodeConstant               = "exit_code"
	logFieldErrorKindConstant              = "error_kind"
	logFieldStackConstant                  = "stack"
	logFieldForceConstant                  = "force"
	logFieldFormatConstant                 = "format"
	errorKindInternalConstant              = "internal"
	errorKindCommandConstant               = "command"
	loggerNotConfiguredMessageConstant     = "lifecycle logger not configured"
	extensionNotConfiguredMessageConstant  = "lifecycle extension not configured"
)

var (
	// ErrLoggerNotConfigured indicates that a lifecycle was constructed without a logger.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrExtensionNotConfigured indicates that a lifecycle was constructed without an extension.
	ErrExtensionNotConfigured = errors.New(extensionNotConfiguredMessageConstant)
)

// ExitFunction terminates the process with the provided status.
type ExitFunction func(exitCode int)

// LifecycleOption customizes a Lifecycle.
type LifecycleOption func(*Lifecycle)

// WithExitFunction replaces os.Exit, which is the default termination routine.
func WithExitFunction(exitFunction ExitFunction) LifecycleOption {
	return func(lifecycle *Lifecycle) {
		if exitFunction != nil {
			lifecycle.exitFunction = exitFunction
		}
	}
}

// Lifecycle runs extension phases under a failure boundary. It keeps no state across calls
// apart from the last phase reached, which State reports.
type Lifecycle struct {
	logger       *zap.Logger
	extension    Extension
	exitFunction ExitFunction
	state        Phase
}

// NewLifecycle constructs a lifecycle driver for the extension.
func NewLifecycle(logger *zap.Logger, extension Extension, options ...LifecycleOption) (*Lifecycle, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if extension == nil {
		return nil, ErrExtensionNotConfigured
	}

	lifecycle := &Lifecycle{
		logger:       logger,
		extension:    extension,
		exitFunction: os.Exit,
		state:        PhaseIdle,
	}
	for _, option := range options {
		if option != nil {
			option(lifecycle)
		}
	}
	return lifecycle, nil
}

// State reports the last phase the lifecycle entered.
func (lifecycle *Lifecycle) State() Phase {
	return lifecycle.state
}

// PassThrough runs pre-invoke, invoke and post-invoke in order. A failing phase terminates
// the process through the exit function and the remaining phases are skipped.
func (lifecycle *Lifecycle) PassThrough(executionContext context.Context, commandName string, arguments []string) error {
	lifecycle.logger.Debug(
		passThroughCalledMessageConstant,
		zap.String(logFieldCommandNameConstant, commandName),
		zap.Strings(logFieldCommandArgumentsConstant, arguments),
	)

	phases := []struct {
		phase Phase
		run   func() error
	}{
		{phase: PhasePreInvoke, run: func() error {
			if preInvoker, supported := lifecycle.extension.(PreInvoker); supported {
				return preInvoker.PreInvoke(executionContext, commandName, arguments)
			}
			return nil
		}},
		{phase: PhaseInvoke, run: func() error {
			return lifecycle.extension.Invoke(executionContext, commandName, arguments)
		}},
		{phase: PhasePostInvoke, run: func() error {
			if postInvoker, supported := lifecycle.extension.(PostInvoker); supported {
				return postInvoker.PostInvoke(executionContext, commandName, arguments)
			}
			return nil
		}},
	}

	for _, lifecyclePhase := range phases {
		lifecycle.state = lifecyclePhase.phase
		if phaseError := runWithinBoundary(lifecyclePhase.run); phaseError != nil {
			return lifecycle.terminate(lifecyclePhase.phase, phaseError,
				zap.String(logFieldCommandNameConstant, commandName),
				zap.Strings(logFieldCommandArgumentsConstant, arguments),
			)
		}
	}

	lifecycle.state = PhaseDone
	return nil
}

// Initialize runs the optional initialization capability under the failure boundary.
func (lifecycle *Lifecycle) Initialize(executionContext context.Context, force bool) error {
	initializer, supported := lifecycle.extension.(Initializer)
	if !supported {
		return nil
	}

	lifecycle.state = PhaseInitialize
	if initializeError := runWithinBoundary(func() error {
		return initializer.Initialize(executionContext, force)
	}); initializeError != nil {
		return lifecycle.terminate(PhaseInitialize, initializeError, zap.Bool(logFieldForceConstant, force))
	}

	lifecycle.state = PhaseDone
	return nil
}

// DescribeFormatted renders the extension description under the failure boundary.
func (lifecycle *Lifecycle) DescribeFormatted(format DescribeFormat) (string, error) {
	lifecycle.state = PhaseDescribe

	var renderedDescription string
	if describeError := runWithinBoundary(func() error {
		rendered, renderError := RenderDescription(lifecycle.extension.Describe(), format)
		renderedDescription = rendered
		return renderError
	}); describeError != nil {
		return "", lifecycle.terminate(PhaseDescribe, describeError, zap.String(logFieldFormatConstant, string(format)))
	}

	lifecycle.state = PhaseDone
	return renderedDescription, nil
}

// terminate logs the phase failure and exits with the code the failure maps to.
func (lifecycle *Lifecycle) terminate(phase Phase, cause error, contextFields ...zap.Field) error {
	exitCode := InternalErrorExitCode
	logFields := append([]zap.Field{zap.String(logFieldPhaseConstant, phase.String())}, contextFields...)

	commandFailure := execshell.CommandFailedError{}
	if phase == PhaseInvoke && errors.As(cause, &commandFailure) && commandFailure.ExitCode > 0 {
		exitCode = commandFailure.ExitCode
		// the extension has already reported the wrapped command's failure
		lifecycle.logger.Debug(
			fmt.Sprintf(commandFailureMessageTemplateConstant, phase),
			append(logFields,
				zap.String(logFieldErrorKindConstant, errorKindCommandConstant),
				zap.Int(logFieldExitCodeConstant, exitCode),
			)...,
		)
	} else {
		logFields = append(logFields,
			zap.String(logFieldErrorKindConstant, errorKindInternalConstant),
			zap.Int(logFieldExitCodeConstant, exitCode),
			zap.Error(cause),
		)
		panicFailure := phasePanicError{}
		if errors.As(cause, &panicFailure) {
			logFields = append(logFields, zap.ByteString(logFieldStackConstant, panicFailure.stack))
		}
		lifecycle.logger.Error(fmt.Sprintf(uncaughtFailureMessageTemplateConstant, phase), logFields...)
	}

	lifecycle.state = PhaseFailed
	lifecycle.exitFunction(exitCode)

	return TerminationError{Phase: phase, ExitCode: exitCode, Cause: cause}
}

func runWithinBoundary(phaseFunction func() error) (phaseError error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			phaseError = phasePanicError{value: recovered, stack: debug.Stack()}
		}
	}()
	return phaseFunction()
}

type phasePanicError struct {
	value any
	stack []byte
}

func (failure phasePanicError) Error() string {
	return fmt.Sprintf(phasePanicTemplateConstant, failure.value)
}

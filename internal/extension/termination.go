package extension

import (
	"errors"
	"fmt"

	"github.com/temirov/edk/internal/execshell"
)

const terminationErrorTemplateConstant = "%s phase terminated with exit code %d: %v"

// TerminationError records the phase failure that ended a lifecycle call.
type TerminationError struct {
	Phase    Phase
	ExitCode int
	Cause    error
}

// Error describes the terminated phase.
func (termination TerminationError) Error() string {
	return fmt.Sprintf(terminationErrorTemplateConstant, termination.Phase, termination.ExitCode, termination.Cause)
}

// Unwrap exposes the phase failure.
func (termination TerminationError) Unwrap() error {
	return termination.Cause
}

// ExitCode maps an error returned by the harness to the process exit status.
func ExitCode(failure error) int {
	if failure == nil {
		return 0
	}

	termination := TerminationError{}
	if errors.As(failure, &termination) {
		return termination.ExitCode
	}

	commandFailure := execshell.CommandFailedError{}
	if errors.As(failure, &commandFailure) && commandFailure.ExitCode > 0 {
		return commandFailure.ExitCode
	}

	return InternalErrorExitCode
}

package execshell

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	invocationErrorTemplateConstant = "error invoking %s"
	logFieldReturnCodeConstant      = "returncode"
	logFieldErrorMessageConstant    = "error_message"
	standardErrorLineSeparator      = "\n"
)

// LogCommandFailure replays captured standard error as warnings and then records the failure.
// Failures other than CommandFailedError are logged with their message only.
func LogCommandFailure(logger *zap.Logger, commandLabel string, failure error, errorMessage string) {
	if logger == nil || failure == nil {
		return
	}

	commandFailure := CommandFailedError{}
	if !errors.As(failure, &commandFailure) {
		logger.Error(
			fmt.Sprintf(invocationErrorTemplateConstant, commandLabel),
			zap.String(logFieldErrorMessageConstant, errorMessage),
			zap.Error(failure),
		)
		return
	}

	if len(commandFailure.StandardError) > 0 {
		for _, line := range strings.Split(strings.TrimRight(commandFailure.StandardError, standardErrorLineSeparator), standardErrorLineSeparator) {
			logger.Warn(
				line,
				zap.String(logFieldCommandConstant, commandLabel),
				zap.String(logFieldStreamConstant, string(StreamStandardError)),
			)
		}
	}

	logger.Error(
		fmt.Sprintf(invocationErrorTemplateConstant, commandLabel),
		zap.Int(logFieldReturnCodeConstant, commandFailure.ExitCode),
		zap.String(logFieldErrorMessageConstant, errorMessage),
	)
}

package execshell_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/edk/internal/execshell"
)

const (
	testListSubCommandConstant         = "list"
	testAllFlagConstant                = "--all"
	testExpectedStubOutputConstant     = "stub list --all\n"
	testStreamFieldConstant            = "stdio_stream"
	testCommandFieldConstant           = "command"
	testFloodLineCountConstant         = 5000
	testEnvironmentKeyConstant         = "EXECSHELL_TEST_VALUE"
	testEnvironmentValueConstant       = "configured value"
	testMissingExecutableConstant      = "execshell-test-missing-executable"
	testStandardErrorTextConstant      = "first failure line\nsecond failure line\n"
	testStreamedFailureExitCode        = 17
	testSingleArgumentCaseName         = "single_argument"
	testSeveralArgumentsCaseName       = "several_arguments"
	testPathLikeArgumentsCaseName      = "path_like_arguments"
	testExitCodeCaseNameTemplate       = "exit_code_%d"
	testUnexpectedFloodLineTemplate    = "unexpected relayed line %q"
	testFloodLineTemplate              = "%s %d"
	testEmptyStandardErrorCaseName     = "empty_standard_error"
	testMultilineStandardErrorCaseName = "multiline_standard_error"
)

func newHelperInvoker(testInstance *testing.T, mode string, options ...execshell.InvokerOption) *execshell.Invoker {
	testInstance.Helper()
	combinedOptions := append([]execshell.InvokerOption{execshell.WithEnvironment(helperEnvironment(mode, nil))}, options...)
	invoker, creationError := execshell.NewInvoker(helperExecutable(testInstance), combinedOptions...)
	require.NoError(testInstance, creationError)
	return invoker
}

func TestNewInvokerRequiresExecutable(testInstance *testing.T) {
	invoker, creationError := execshell.NewInvoker("   ")
	require.ErrorIs(testInstance, creationError, execshell.ErrExecutableNotConfigured)
	require.Nil(testInstance, invoker)
}

func TestNewInvokerCopiesInheritedEnvironment(testInstance *testing.T) {
	invoker, creationError := execshell.NewInvoker(testMissingExecutableConstant)
	require.NoError(testInstance, creationError)
	require.ElementsMatch(testInstance, os.Environ(), invoker.Environment())

	returnedEnvironment := invoker.Environment()
	returnedEnvironment[0] = testEnvironmentKeyConstant
	require.ElementsMatch(testInstance, os.Environ(), invoker.Environment())
}

func TestInvokerRunCapturesStubOutput(testInstance *testing.T) {
	invoker := newHelperInvoker(testInstance, helperModeStubConstant)

	executionResult, executionError := invoker.Run(context.Background(), testListSubCommandConstant, testAllFlagConstant)

	require.NoError(testInstance, executionError)
	require.Equal(testInstance, testExpectedStubOutputConstant, executionResult.StandardOutput)
	require.Empty(testInstance, executionResult.StandardError)
	require.Zero(testInstance, executionResult.ExitCode)
}

func TestInvokerRunEchoesArgumentsInOrder(testInstance *testing.T) {
	testCases := []struct {
		name       string
		subCommand string
		arguments  []string
	}{
		{name: testSingleArgumentCaseName, subCommand: "version"},
		{name: testSeveralArgumentsCaseName, subCommand: "run", arguments: []string{"--select", "model_a", "--full-refresh"}},
		{name: testPathLikeArgumentsCaseName, arguments: []string{filepath.Join("project", "models"), filepath.Join("target", "run")}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			invoker := newHelperInvoker(testInstance, helperModeStubConstant)

			executionResult, executionError := invoker.Run(context.Background(), testCase.subCommand, testCase.arguments...)
			require.NoError(testInstance, executionError)

			expectedWords := []string{helperStubPrefixConstant}
			if len(testCase.subCommand) > 0 {
				expectedWords = append(expectedWords, testCase.subCommand)
			}
			expectedWords = append(expectedWords, testCase.arguments...)
			require.Equal(testInstance, strings.Join(expectedWords, " ")+"\n", executionResult.StandardOutput)
		})
	}
}

func TestInvokerRunReportsExitCodeAndStandardError(testInstance *testing.T) {
	testCases := []struct {
		name          string
		exitCode      int
		standardError string
	}{
		{name: fmt.Sprintf(testExitCodeCaseNameTemplate, 1), exitCode: 1, standardError: "failure\n"},
		{name: fmt.Sprintf(testExitCodeCaseNameTemplate, 17), exitCode: 17, standardError: testStandardErrorTextConstant},
		{name: fmt.Sprintf(testExitCodeCaseNameTemplate, 255), exitCode: 255, standardError: "no trailing newline"},
		{name: testEmptyStandardErrorCaseName, exitCode: 2, standardError: ""},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			invoker := newHelperInvoker(testInstance, helperModeFailConstant)

			executionResult, executionError := invoker.Run(context.Background(), strconv.Itoa(testCase.exitCode), testCase.standardError)

			require.Error(testInstance, executionError)
			commandFailure := execshell.CommandFailedError{}
			require.True(testInstance, errors.As(executionError, &commandFailure))
			require.Equal(testInstance, testCase.exitCode, commandFailure.ExitCode)
			require.Equal(testInstance, testCase.standardError, commandFailure.StandardError)
			require.Equal(testInstance, invoker.Executable(), commandFailure.Command.Name)
			require.Equal(testInstance, testCase.exitCode, executionResult.ExitCode)
		})
	}
}

func TestInvokerRunIsRepeatable(testInstance *testing.T) {
	invoker := newHelperInvoker(testInstance, helperModeStubConstant)

	firstResult, firstError := invoker.Run(context.Background(), testListSubCommandConstant, testAllFlagConstant)
	require.NoError(testInstance, firstError)

	secondResult, secondError := invoker.Run(context.Background(), testListSubCommandConstant, testAllFlagConstant)
	require.NoError(testInstance, secondError)

	require.Equal(testInstance, firstResult, secondResult)
	require.Equal(testInstance, testExpectedStubOutputConstant, secondResult.StandardOutput)
}

func TestInvokerRunReportsMissingExecutable(testInstance *testing.T) {
	invoker, creationError := execshell.NewInvoker(testMissingExecutableConstant)
	require.NoError(testInstance, creationError)

	_, executionError := invoker.Run(context.Background(), testListSubCommandConstant)

	require.Error(testInstance, executionError)
	require.IsType(testInstance, execshell.CommandExecutionError{}, executionError)
}

func TestInvokerRunUsesConfiguredEnvironment(testInstance *testing.T) {
	invoker, creationError := execshell.NewInvoker(
		helperExecutable(testInstance),
		execshell.WithEnvironment(helperEnvironment(helperModeEnvironmentConstant, map[string]string{testEnvironmentKeyConstant: testEnvironmentValueConstant})),
	)
	require.NoError(testInstance, creationError)

	executionResult, executionError := invoker.Run(context.Background(), testEnvironmentKeyConstant, "HOME")

	require.NoError(testInstance, executionError)
	require.Equal(testInstance, testEnvironmentValueConstant+"\n\n", executionResult.StandardOutput)
}

func TestInvokerRunUsesWorkingDirectory(testInstance *testing.T) {
	workingDirectory := testInstance.TempDir()
	invoker := newHelperInvoker(testInstance, helperModeWorkingDirectoryConstant, execshell.WithWorkingDirectory(workingDirectory))

	executionResult, executionError := invoker.Run(context.Background(), "")
	require.NoError(testInstance, executionError)

	expectedDirectory, resolveError := filepath.EvalSymlinks(workingDirectory)
	require.NoError(testInstance, resolveError)
	reportedDirectory, reportedResolveError := filepath.EvalSymlinks(strings.TrimSpace(executionResult.StandardOutput))
	require.NoError(testInstance, reportedResolveError)
	require.Equal(testInstance, expectedDirectory, reportedDirectory)
}

func TestInvokerRunAndStreamRequiresLogger(testInstance *testing.T) {
	invoker := newHelperInvoker(testInstance, helperModeStubConstant)

	streamError := invoker.RunAndStream(context.Background(), nil, testListSubCommandConstant)

	require.ErrorIs(testInstance, streamError, execshell.ErrLoggerNotConfigured)
}

func TestInvokerRunAndStreamRelaysLines(testInstance *testing.T) {
	observerCore, observerLogs := observer.New(zap.InfoLevel)
	invoker := newHelperInvoker(testInstance, helperModeStubConstant)

	streamError := invoker.RunAndStream(context.Background(), zap.New(observerCore), testListSubCommandConstant, testAllFlagConstant)

	require.NoError(testInstance, streamError)
	relayedEntries := observerLogs.All()
	require.Len(testInstance, relayedEntries, 1)
	require.Equal(testInstance, strings.TrimSuffix(testExpectedStubOutputConstant, "\n"), relayedEntries[0].Message)
	require.Equal(testInstance, zap.InfoLevel, relayedEntries[0].Level)
	require.Equal(testInstance, string(execshell.StreamStandardOutput), relayedEntries[0].ContextMap()[testStreamFieldConstant])
	require.Equal(testInstance, string(invoker.Executable()), relayedEntries[0].ContextMap()[testCommandFieldConstant])
}

func TestInvokerRunAndStreamReportsExitCodeWithoutStandardError(testInstance *testing.T) {
	testCases := []struct {
		name          string
		standardError string
	}{
		{name: testEmptyStandardErrorCaseName, standardError: ""},
		{name: testMultilineStandardErrorCaseName, standardError: testStandardErrorTextConstant},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			observerCore, observerLogs := observer.New(zap.InfoLevel)
			invoker := newHelperInvoker(testInstance, helperModeFailConstant)

			streamError := invoker.RunAndStream(context.Background(), zap.New(observerCore), strconv.Itoa(testStreamedFailureExitCode), testCase.standardError)

			commandFailure := execshell.CommandFailedError{}
			require.True(testInstance, errors.As(streamError, &commandFailure))
			require.Equal(testInstance, testStreamedFailureExitCode, commandFailure.ExitCode)
			require.Empty(testInstance, commandFailure.StandardError)

			relayedStandardError := observerLogs.FilterField(zap.String(testStreamFieldConstant, string(execshell.StreamStandardError))).All()
			relayedMessages := make([]string, 0, len(relayedStandardError))
			for _, relayedEntry := range relayedStandardError {
				relayedMessages = append(relayedMessages, relayedEntry.Message)
			}
			expectedMessages := []string{}
			if len(testCase.standardError) > 0 {
				expectedMessages = strings.Split(strings.TrimSuffix(testCase.standardError, "\n"), "\n")
			}
			require.Equal(testInstance, expectedMessages, relayedMessages)
		})
	}
}

func TestInvokerRunAndStreamPreservesPerStreamOrder(testInstance *testing.T) {
	observerCore, observerLogs := observer.New(zap.InfoLevel)
	invoker := newHelperInvoker(testInstance, helperModeFloodConstant)

	streamError := invoker.RunAndStream(context.Background(), zap.New(observerCore), strconv.Itoa(testFloodLineCountConstant))
	require.NoError(testInstance, streamError)

	nextExpectedIndex := map[string]int{
		string(execshell.StreamStandardOutput): 0,
		string(execshell.StreamStandardError):  0,
	}
	for _, relayedEntry := range observerLogs.All() {
		streamName, streamNameAvailable := relayedEntry.ContextMap()[testStreamFieldConstant].(string)
		require.True(testInstance, streamNameAvailable)
		expectedIndex, knownStream := nextExpectedIndex[streamName]
		require.True(testInstance, knownStream, testUnexpectedFloodLineTemplate, relayedEntry.Message)
		require.Equal(testInstance, fmt.Sprintf(testFloodLineTemplate, streamName, expectedIndex), relayedEntry.Message)
		nextExpectedIndex[streamName] = expectedIndex + 1
	}

	require.Equal(testInstance, testFloodLineCountConstant, nextExpectedIndex[string(execshell.StreamStandardOutput)])
	require.Equal(testInstance, testFloodLineCountConstant, nextExpectedIndex[string(execshell.StreamStandardError)])
}

func TestInvokerRunAndStreamReportsMissingExecutable(testInstance *testing.T) {
	invoker, creationError := execshell.NewInvoker(testMissingExecutableConstant)
	require.NoError(testInstance, creationError)

	streamError := invoker.RunAndStream(context.Background(), zap.NewNop(), testListSubCommandConstant)

	require.IsType(testInstance, execshell.CommandExecutionError{}, streamError)
}

func TestInvokerNotifiesCommandEventObserver(testInstance *testing.T) {
	recordingObserver := &recordingCommandEventObserver{}
	invoker := newHelperInvoker(testInstance, helperModeFailConstant, execshell.WithCommandEventObserver(recordingObserver))

	_, executionError := invoker.Run(context.Background(), "5", "")
	require.Error(testInstance, executionError)

	require.Len(testInstance, recordingObserver.startedCommands, 1)
	require.Equal(testInstance, []string{"5", ""}, recordingObserver.startedCommands[0].Details.Arguments)
	require.Len(testInstance, recordingObserver.completedResults, 1)
	require.Equal(testInstance, 5, recordingObserver.completedResults[0].ExitCode)
	require.Empty(testInstance, recordingObserver.failures)
}

func TestInvokerPlacesLeadingArgumentsBeforeSubCommand(testInstance *testing.T) {
	invoker := newHelperInvoker(testInstance, helperModeStubConstant, execshell.WithLeadingArguments("--no-color"))

	executionResult, executionError := invoker.Run(context.Background(), testListSubCommandConstant, testAllFlagConstant)

	require.NoError(testInstance, executionError)
	require.Equal(testInstance, "stub --no-color list --all\n", executionResult.StandardOutput)
}

type recordingCommandEventObserver struct {
	startedCommands  []execshell.ShellCommand
	completedResults []execshell.ExecutionResult
	failures         []error
}

func (observer *recordingCommandEventObserver) CommandStarted(command execshell.ShellCommand) {
	observer.startedCommands = append(observer.startedCommands, command)
}

func (observer *recordingCommandEventObserver) CommandCompleted(_ execshell.ShellCommand, result execshell.ExecutionResult) {
	observer.completedResults = append(observer.completedResults, result)
}

func (observer *recordingCommandEventObserver) CommandExecutionFailed(_ execshell.ShellCommand, failure error) {
	observer.failures = append(observer.failures, failure)
}

package execshell

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommandMessageFormatterBuildsLifecycleMessages(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: "dbt",
		Details: CommandDetails{
			Arguments:        []string{"run", "--select", "orders"},
			WorkingDirectory: "/workspace/project",
		},
	}

	require.Equal(t, "Running dbt run --select orders (in /workspace/project)", formatter.BuildStartedMessage(command))
	require.Equal(t, "Completed dbt run --select orders (in /workspace/project)", formatter.BuildSuccessMessage(command))
	require.Equal(t, "dbt run --select orders (in /workspace/project) failed with exit code 2: compilation error", formatter.BuildFailureMessage(command, ExecutionResult{ExitCode: 2, StandardError: "compilation error\n"}))
	require.Equal(t, "dbt run --select orders (in /workspace/project) failed: executable file not found", formatter.BuildExecutionFailureMessage(command, errors.New("executable file not found")))
}

func TestCommandMessageFormatterOmitsEmptyDetails(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{Name: "dbt"}

	require.Equal(t, "Running dbt", formatter.BuildStartedMessage(command))
	require.Equal(t, "dbt failed with exit code 1", formatter.BuildFailureMessage(command, ExecutionResult{ExitCode: 1}))
	require.Equal(t, "dbt failed: unknown error", formatter.BuildExecutionFailureMessage(command, nil))
}

package execshell

const (
	standardOutputStreamNameConstant = "stdout"
	standardErrorStreamNameConstant  = "stderr"
)

// CommandName identifies the executable wrapped by an Invoker.
type CommandName string

// StreamName labels one of the child output streams in relayed log entries.
type StreamName string

// Supported stream names.
const (
	StreamStandardOutput StreamName = StreamName(standardOutputStreamNameConstant)
	StreamStandardError  StreamName = StreamName(standardErrorStreamNameConstant)
)

// CommandDetails describes the arguments and working directory of a single invocation.
type CommandDetails struct {
	Arguments        []string
	WorkingDirectory string
}

// ShellCommand couples the executable with invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable outcome of a capture-mode invocation.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

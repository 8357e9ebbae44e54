//go:build windows

package execshell

import "os"

// Windows has no interrupt delivery to arbitrary processes, so nothing is forwarded.
var forwardedSignals []os.Signal

func interruptProcess(process *os.Process) error {
	if process == nil {
		return os.ErrProcessDone
	}
	return process.Kill()
}

func exitCodeFromState(state *os.ProcessState) int {
	if state == nil {
		return 0
	}
	return state.ExitCode()
}

//go:build !windows

package execshell

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

const signalExitCodeOffsetConstant = 128

var forwardedSignals = []os.Signal{unix.SIGINT, unix.SIGTERM}

// interruptProcess asks the child to stop the same way an operator pressing Ctrl+C would.
func interruptProcess(process *os.Process) error {
	if process == nil {
		return os.ErrProcessDone
	}
	return process.Signal(unix.SIGINT)
}

// exitCodeFromState maps signal terminations to the conventional 128+N shell exit code.
func exitCodeFromState(state *os.ProcessState) int {
	if state == nil {
		return 0
	}
	if waitStatus, isWaitStatus := state.Sys().(syscall.WaitStatus); isWaitStatus && waitStatus.Signaled() {
		return signalExitCodeOffsetConstant + int(waitStatus.Signal())
	}
	return state.ExitCode()
}

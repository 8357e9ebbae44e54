// Package execshell supervises the external tool wrapped by an extension.
//
// Invoker spawns exactly one child process per call. Run captures both output
// streams and returns them to the caller, while RunAndStream relays every
// output line to a zap logger as it is produced, forwards interrupt signals to
// the child for the duration of the call, and reports a non-zero exit status as
// a CommandFailedError.
package execshell

// Package extension drives the supervised lifecycle of a wrapped command.
//
// Lifecycle runs the pre-invoke, invoke and post-invoke phases of an Extension
// under a failure boundary. A failing phase is logged and the process exits with
// either the wrapped tool's own exit code (invoke phase) or InternalErrorExitCode.
// The package also models the static description document that extensions
// publish for introspection.
package extension

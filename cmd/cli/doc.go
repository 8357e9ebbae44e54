// Package cli constructs the extension command-line interface. The Cobra root
// command resolves logging and wrapper configuration, and the initialize,
// invoke and describe subcommands run the wrapper extension through the
// lifecycle driver so failures map to process exit codes.
package cli

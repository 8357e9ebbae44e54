package main

import (
	"fmt"
	"os"

	"github.com/temirov/edk/cmd/cli"
	"github.com/temirov/edk/internal/extension"
)

const (
	exitErrorTemplateConstant = "%v\n"
)

// main executes the extension command-line application.
func main() {
	if executionError := cli.Execute(); executionError != nil {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
		os.Exit(extension.ExitCode(executionError))
	}
}

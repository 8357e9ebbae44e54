// Command passthrough forwards its entire argument list to the wrapped executable, so it can stand in for
// the tool itself.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/temirov/edk/cmd/cli"
	"github.com/temirov/edk/internal/extension"
)

const (
	exitErrorTemplateConstant = "%v\n"
)

func main() {
	application := cli.NewApplication()
	if executionError := application.ExecutePassThrough(context.Background(), os.Args[1:]); executionError != nil {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
		os.Exit(extension.ExitCode(executionError))
	}
}

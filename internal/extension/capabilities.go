package extension

import "context"

// Invoker runs the wrapped command. It is the only mandatory phase.
type Invoker interface {
	Invoke(executionContext context.Context, commandName string, arguments []string) error
}

// PreInvoker runs before Invoke.
type PreInvoker interface {
	PreInvoke(executionContext context.Context, commandName string, arguments []string) error
}

// PostInvoker runs after a successful Invoke.
type PostInvoker interface {
	PostInvoke(executionContext context.Context, commandName string, arguments []string) error
}

// Initializer prepares the extension on demand, for example by verifying the wrapped tool is installed.
type Initializer interface {
	Initialize(executionContext context.Context, force bool) error
}

// Describer reports the commands and capabilities offered by an extension.
type Describer interface {
	Describe() Description
}

// Extension is the capability set every extension provides.
type Extension interface {
	Invoker
	Describer
}

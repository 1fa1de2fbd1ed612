package shell

import "go.trai.ch/devshell/internal/core/ports"

// ResolveEnvironment exports resolveEnvironment for testing.
var ResolveEnvironment = resolveEnvironment

// LookPath exports lookPath for testing.
var LookPath = lookPath

// NewExecutorWithEnviron creates an Executor with a fixed base environment for testing.
func NewExecutorWithEnviron(logger ports.Logger, environ []string) *Executor {
	return &Executor{logger: logger, environ: func() []string { return environ }}
}

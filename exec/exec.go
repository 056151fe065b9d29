package exec

import (
	"context"
	"io"
	"time"
)

// Executor is the interface for running commands. It is satisfied by
// *Command and *CommandWrapper, and is what callers should accept so tests
// can substitute a fake.
type Executor interface {
	// WithEnv sets environment variables for the next run.
	WithEnv(env map[string]string) Executor

	// WithDir sets the working directory for the next run.
	WithDir(dir string) Executor

	// WithContext sets the context for the next run.
	WithContext(ctx context.Context) Executor

	// WithTimeout bounds the next run.
	WithTimeout(timeout time.Duration) Executor

	// WithInheritEnv makes the next run inherit the parent environment.
	WithInheritEnv() Executor

	// WithStdin feeds r to the next run's standard input.
	WithStdin(r io.Reader) Executor

	// Run executes the command with the given arguments.
	Run(args ...string) (*Result, error)

	// Clone returns an independent copy with the same global configuration.
	Clone() Executor
}

// Result represents the result of a command execution.
type Result struct {
	// Stdout is the captured standard output.
	Stdout string

	// Stderr is the captured standard error.
	Stderr string

	// Combined is stdout and stderr interleaved in write order.
	Combined string

	// ExitCode is the process exit code, or -1 if it never started.
	ExitCode int
}

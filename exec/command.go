package exec

import (
	"context"
	"io"
	"maps"
	"os"
	osexec "os/exec"
	"time"
)

// Command is the concrete Executor backed by os/exec.
type Command struct {
	global settings
	local  settings
	ctx    context.Context
	stdin  io.Reader
}

// New creates a new Command with the given global options.
func New(opts ...Option) *Command {
	cmd := &Command{
		global: newSettings(),
		local:  newSettings(),
		ctx:    context.Background(),
	}

	for _, opt := range opts {
		opt(cmd)
	}

	return cmd
}

// WithEnv sets environment variables for the next run.
func (c *Command) WithEnv(env map[string]string) Executor {
	maps.Copy(c.local.env, env)
	return c
}

// WithDir sets the working directory for the next run.
func (c *Command) WithDir(dir string) Executor {
	c.local.dir = dir
	return c
}

// WithContext sets the context for the next run.
func (c *Command) WithContext(ctx context.Context) Executor {
	c.ctx = ctx
	return c
}

// WithTimeout bounds the next run.
func (c *Command) WithTimeout(timeout time.Duration) Executor {
	c.local.timeout = timeout
	return c
}

// WithInheritEnv makes the next run inherit the parent environment.
func (c *Command) WithInheritEnv() Executor {
	c.local.inheritEnv = true
	return c
}

// WithStdin feeds r to the next run's standard input.
func (c *Command) WithStdin(r io.Reader) Executor {
	c.stdin = r
	return c
}

// Run executes the command with the given arguments. Local settings are
// cleared whether or not the command succeeds.
func (c *Command) Run(args ...string) (*Result, error) {
	cfg := c.global.merge(c.local)
	stdin := c.stdin
	c.local = newSettings()
	c.stdin = nil

	if len(args) == 0 {
		return nil, &ExecError{Command: args, ExitCode: -1, Err: osexec.ErrNotFound}
	}

	ctx := c.ctx
	if cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	cmd := osexec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = cfg.dir
	cmd.Stdin = stdin

	if cfg.inheritEnv {
		cmd.Env = os.Environ()
	}
	for k, v := range cfg.env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	combined := &combinedBuffer{}
	stdout := &capture{combined: combined}
	stderr := &capture{combined: combined}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()

	result := &Result{
		Stdout:   stdout.own.String(),
		Stderr:   stderr.own.String(),
		Combined: combined.String(),
		ExitCode: -1,
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	if err != nil {
		return result, &ExecError{
			Command:  args,
			ExitCode: result.ExitCode,
			Stdout:   result.Stdout,
			Stderr:   result.Stderr,
			Err:      err,
		}
	}

	return result, nil
}

// Clone returns a copy with the same global configuration and context.
func (c *Command) Clone() Executor {
	return &Command{
		global: c.global.clone(),
		local:  newSettings(),
		ctx:    c.ctx,
	}
}

package exec

import (
	"context"
	"maps"
	"time"
)

// Option configures global settings of a Command at creation time.
type Option func(*Command)

// WithEnv returns an Option that sets global environment variables.
func WithEnv(env map[string]string) Option {
	return func(c *Command) {
		maps.Copy(c.global.env, env)
	}
}

// WithDir returns an Option that sets the global working directory.
func WithDir(dir string) Option {
	return func(c *Command) {
		c.global.dir = dir
	}
}

// WithContext returns an Option that sets the global context.
func WithContext(ctx context.Context) Option {
	return func(c *Command) {
		c.ctx = ctx
	}
}

// WithTimeout returns an Option that bounds every run.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Command) {
		c.global.timeout = timeout
	}
}

// WithInheritEnv returns an Option that makes every run inherit the parent
// environment.
func WithInheritEnv() Option {
	return func(c *Command) {
		c.global.inheritEnv = true
	}
}

// settings is one layer of configuration. A Command holds a global layer
// set at creation and a local layer cleared after each Run.
type settings struct {
	env        map[string]string
	dir        string
	timeout    time.Duration
	inheritEnv bool
}

func newSettings() settings {
	return settings{env: make(map[string]string)}
}

func (s settings) clone() settings {
	out := s
	out.env = maps.Clone(s.env)
	return out
}

// merge returns s overridden by local.
func (s settings) merge(local settings) settings {
	out := s.clone()
	maps.Copy(out.env, local.env)
	if local.dir != "" {
		out.dir = local.dir
	}
	if local.timeout > 0 {
		out.timeout = local.timeout
	}
	out.inheritEnv = s.inheritEnv || local.inheritEnv
	return out
}

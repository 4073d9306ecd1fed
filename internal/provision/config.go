// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"io"

	"github.com/google/uuid"
)

type (
	// Config holds tunables for a Provisioner.
	Config struct {
		// CloneDepth requests a shallow clone; 0 clones full history.
		CloneDepth int

		// HookStdout and HookStderr receive post_checkout hook output.
		// Nil discards it.
		HookStdout io.Writer
		HookStderr io.Writer

		// StagingSuffix returns a unique suffix for staging directory names.
		StagingSuffix func() string
	}

	// Option is a functional option for configuring a Config.
	Option func(*Config)
)

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		StagingSuffix: uuid.NewString,
	}
}

// WithCloneDepth returns an Option that sets CloneDepth on the config.
func WithCloneDepth(depth int) Option {
	return func(c *Config) {
		c.CloneDepth = depth
	}
}

// WithHookOutput returns an Option that routes post_checkout hook output.
func WithHookOutput(stdout, stderr io.Writer) Option {
	return func(c *Config) {
		c.HookStdout = stdout
		c.HookStderr = stderr
	}
}

// WithStagingSuffix returns an Option that sets the staging name generator.
func WithStagingSuffix(fn func() string) Option {
	return func(c *Config) {
		c.StagingSuffix = fn
	}
}

// Apply applies the given options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

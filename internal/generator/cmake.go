// SPDX-License-Identifier: MPL-2.0

package generator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"

	"github.com/extdeps/extdeps/internal/shell"
	"github.com/extdeps/extdeps/internal/toolerr"
)

// DefaultCMakeBinary is the executable used when CMake.Binary is empty.
const DefaultCMakeBinary = "cmake"

type (
	// CMake is the Generator for CMake projects.
	CMake struct {
		// Binary is the cmake executable name or path.
		Binary  string
		Runtime Runtime
		// DryRun prints the command lines to Stdout instead of running them.
		DryRun bool
		Stdout io.Writer
		Stderr io.Writer
	}

	// Option configures a CMake generator.
	Option func(*CMake)
)

// NewCMake creates a CMake generator running natively with output discarded.
func NewCMake(opts ...Option) *CMake {
	c := &CMake{
		Binary:  DefaultCMakeBinary,
		Runtime: RuntimeNative,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithBinary sets the cmake executable. Empty keeps the default.
func WithBinary(binary string) Option {
	return func(c *CMake) {
		if binary != "" {
			c.Binary = binary
		}
	}
}

// WithRuntime sets the execution runtime.
func WithRuntime(rt Runtime) Option {
	return func(c *CMake) {
		c.Runtime = rt
	}
}

// WithDryRun enables printing commands instead of running them.
func WithDryRun(dryRun bool) Option {
	return func(c *CMake) {
		c.DryRun = dryRun
	}
}

// WithOutput routes the generator's stdout and stderr.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(c *CMake) {
		c.Stdout = stdout
		c.Stderr = stderr
	}
}

// Commands returns the argv lists InvokeGenerator would run for inv.
func (c *CMake) Commands(inv Invocation) [][]string {
	configure := []string{c.Binary, "-S", string(inv.SourceDir), "-B", string(inv.BuildDir)}
	configure = append(configure, inv.Flags...)
	configure = append(configure, inv.Args...)
	cmds := [][]string{configure}

	if inv.GenerateOnly || len(inv.Targets) == 0 {
		return cmds
	}
	build := []string{c.Binary, "--build", string(inv.BuildDir)}
	for _, t := range inv.Targets {
		build = append(build, "--target", t)
	}
	return append(cmds, build)
}

// InvokeGenerator implements Generator.
func (c *CMake) InvokeGenerator(ctx context.Context, inv Invocation) error {
	if err := inv.Validate(); err != nil {
		return err
	}
	if err := c.Runtime.Validate(); err != nil {
		return err
	}

	for _, argv := range c.Commands(inv) {
		if c.DryRun {
			if _, err := fmt.Fprintln(c.out(), shell.Quote(argv)); err != nil {
				return fmt.Errorf("failed to print command: %w", err)
			}
			continue
		}

		slog.Debug("running generator", "runtime", c.Runtime, "argv", argv)
		var err error
		switch c.Runtime {
		case RuntimeVirtual:
			err = c.runVirtual(ctx, argv)
		default:
			err = c.runNative(ctx, argv)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *CMake) runNative(ctx context.Context, argv []string) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stderr bytes.Buffer
	cmd.Stdout = c.out()
	cmd.Stderr = io.MultiWriter(c.errOut(), &stderr)

	if err := cmd.Run(); err != nil {
		return toolerr.FromExec(argv[0], argv[1:], stderr.String(), err)
	}
	return nil
}

func (c *CMake) runVirtual(ctx context.Context, argv []string) error {
	err := shell.Run(ctx, shell.Quote(argv), shell.Options{
		Name:   argv[0],
		Stdout: c.out(),
		Stderr: c.errOut(),
	})
	var te *toolerr.ToolInvocationError
	if errors.As(err, &te) {
		te.Args = argv[1:]
	}
	return err
}

func (c *CMake) out() io.Writer {
	if c.Stdout == nil {
		return io.Discard
	}
	return c.Stdout
}

func (c *CMake) errOut() io.Writer {
	if c.Stderr == nil {
		return io.Discard
	}
	return c.Stderr
}

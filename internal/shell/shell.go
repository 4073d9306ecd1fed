// SPDX-License-Identifier: MPL-2.0

// Package shell runs POSIX shell scripts in-process with the mvdan/sh
// interpreter, so hooks and generator commands behave the same on every
// platform without a system shell.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/extdeps/extdeps/internal/toolerr"
)

// ErrParse is returned when a script is not valid shell syntax.
var ErrParse = errors.New("failed to parse script")

// Options configure Run.
type Options struct {
	// Name identifies the script in errors ("post_checkout", "cmake").
	Name string
	// Dir is the working directory; empty means the current directory.
	Dir string
	// Env is appended to the inherited process environment.
	Env []string
	// Stdin, Stdout and Stderr default to empty input and discarded output.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Run interprets script. A non-zero exit status becomes a
// *toolerr.ToolInvocationError carrying the status and the captured stderr.
func Run(ctx context.Context, script string, opts Options) error {
	name := opts.Name
	if name == "" {
		name = "script"
	}

	prog, err := syntax.NewParser().Parse(strings.NewReader(script), name)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrParse, name, err)
	}

	var captured bytes.Buffer
	stderr := io.Writer(&captured)
	if opts.Stderr != nil {
		stderr = io.MultiWriter(opts.Stderr, &captured)
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = io.Discard
	}

	runnerOpts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(append(os.Environ(), opts.Env...)...)),
		interp.StdIO(opts.Stdin, stdout, stderr),
	}
	if opts.Dir != "" {
		runnerOpts = append(runnerOpts, interp.Dir(opts.Dir))
	}

	runner, err := interp.New(runnerOpts...)
	if err != nil {
		return fmt.Errorf("failed to create interpreter: %w", err)
	}

	if err := runner.Run(ctx, prog); err != nil {
		te := &toolerr.ToolInvocationError{Tool: name, Stderr: captured.String(), Err: err}
		var status interp.ExitStatus
		if errors.As(err, &status) {
			te.ExitCode = int(status)
		}
		return te
	}
	return nil
}

// Quote renders argv as a single shell command line. Each argument is
// quoted only when it needs to be.
func Quote(argv []string) string {
	quoted := make([]string, 0, len(argv))
	for _, arg := range argv {
		q, err := syntax.Quote(arg, syntax.LangBash)
		if err != nil {
			// Only NUL bytes are unquotable; they cannot reach a real argv either.
			q = fmt.Sprintf("%q", arg)
		}
		quoted = append(quoted, q)
	}
	return strings.Join(quoted, " ")
}

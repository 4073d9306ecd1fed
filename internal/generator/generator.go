// SPDX-License-Identifier: MPL-2.0

package generator

import (
	"context"
	"errors"
	"fmt"

	"github.com/extdeps/extdeps/pkg/types"
)

const (
	// RuntimeNative runs the generator as a child process.
	RuntimeNative Runtime = "native"
	// RuntimeVirtual runs the generator command line through the embedded shell.
	RuntimeVirtual Runtime = "virtual"
)

var (
	// ErrInvalidRuntime is the sentinel error wrapped by InvalidRuntimeError.
	ErrInvalidRuntime = errors.New("invalid generator runtime")
	// ErrInvalidInvocation is returned by Invocation.Validate.
	ErrInvalidInvocation = errors.New("invalid generator invocation")
)

type (
	// Generator configures (and optionally builds) a project.
	Generator interface {
		InvokeGenerator(ctx context.Context, inv Invocation) error
	}

	// Invocation is one generator run. Flags and Targets come from the
	// accumulated build configuration and are passed verbatim.
	Invocation struct {
		SourceDir types.FilesystemPath
		BuildDir  types.FilesystemPath
		Flags     []string
		// Targets are built after generation unless GenerateOnly is set.
		Targets []string
		// Args are extra generator arguments placed after the flags.
		Args         []string
		GenerateOnly bool
	}

	// Runtime selects how commands are executed.
	Runtime string

	// InvalidRuntimeError is returned for an unknown Runtime.
	InvalidRuntimeError struct {
		Value Runtime
	}
)

// String returns the string representation of the Runtime.
func (r Runtime) String() string { return string(r) }

// Validate returns nil if r is a known runtime.
func (r Runtime) Validate() error {
	switch r {
	case RuntimeNative, RuntimeVirtual:
		return nil
	default:
		return &InvalidRuntimeError{Value: r}
	}
}

// Error implements the error interface.
func (e *InvalidRuntimeError) Error() string {
	return fmt.Sprintf("invalid generator runtime %q (expected native or virtual)", e.Value)
}

// Unwrap returns ErrInvalidRuntime so callers can use errors.Is.
func (e *InvalidRuntimeError) Unwrap() error { return ErrInvalidRuntime }

// Validate checks that both directories are set and no flag or target is empty.
func (inv Invocation) Validate() error {
	if err := inv.SourceDir.Validate(); err != nil {
		return fmt.Errorf("%w: source directory: %w", ErrInvalidInvocation, err)
	}
	if err := inv.BuildDir.Validate(); err != nil {
		return fmt.Errorf("%w: build directory: %w", ErrInvalidInvocation, err)
	}
	for i, f := range inv.Flags {
		if f == "" {
			return fmt.Errorf("%w: flag %d is empty", ErrInvalidInvocation, i)
		}
	}
	for i, t := range inv.Targets {
		if t == "" {
			return fmt.Errorf("%w: target %d is empty", ErrInvalidInvocation, i)
		}
	}
	return nil
}

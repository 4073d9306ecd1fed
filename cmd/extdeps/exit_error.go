// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/extdeps/extdeps/internal/config"
	"github.com/extdeps/extdeps/pkg/depspec"
	"github.com/extdeps/extdeps/pkg/types"
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Code types.ExitCode
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// usageError marks err as a usage problem (exit status 2).
func usageError(err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: types.ExitUsage, Err: err}
}

// classifyExit wraps manifest, configuration and argument errors as usage
// errors; everything else keeps the default failure status.
func classifyExit(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, depspec.ErrInvalidManifest),
		errors.Is(err, depspec.ErrManifestNotFound),
		errors.Is(err, depspec.ErrDependencyNotFound),
		errors.Is(err, depspec.ErrInvalidDescriptor),
		errors.Is(err, config.ErrInvalidConfig):
		return usageError(err)
	default:
		return err
	}
}

// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"

	"github.com/extdeps/extdeps/internal/toolerr"
)

type (
	// ActionableError is a user-facing error: what failed, on which
	// resource, and what the user can do about it.
	//
	//	return issue.NewErrorContext().
	//		WithOperation("create manifest").
	//		WithResource(path).
	//		WithSuggestion("Use --force to overwrite it").
	//		Wrap(err).
	//		BuildError()
	ActionableError struct {
		// Operation is a verb phrase such as "load manifest".
		Operation string
		// Resource is the file, path or dependency involved. Optional.
		Resource    string
		Suggestions []string
		Cause       error
	}

	// ErrorContext builds an ActionableError incrementally.
	ErrorContext struct {
		operation   string
		resource    string
		suggestions []string
		cause       error
	}
)

// kindSuggestions are the default hints attached by Classify.
var kindSuggestions = map[toolerr.Kind][]string{
	toolerr.KindNetwork: {
		"Check the git_url and your network connection",
		"Export GITHUB_TOKEN, GITLAB_TOKEN or GIT_TOKEN for private HTTPS remotes",
	},
	toolerr.KindRefNotFound: {
		"Verify the pinned commit exists upstream",
		"Set 'branch' if the commit is not reachable from the default refs",
	},
	toolerr.KindFilesystem: {
		"Check that EXTERNAL_LIBS_DIR is writable",
		"Remove any non-git directory at the checkout path",
	},
	toolerr.KindToolInvocation: {
		"Read the tool output above",
		"Re-run with --verbose for the full error chain",
	},
}

// NewErrorContext creates an empty builder.
func NewErrorContext() *ErrorContext {
	return &ErrorContext{}
}

// Wrap attaches operation and resource context to err. It returns nil for
// a nil err.
func Wrap(err error, operation, resource string) error {
	if err == nil {
		return nil
	}
	return &ActionableError{Operation: operation, Resource: resource, Cause: err}
}

// Classify wraps err with operation context and the default suggestions for
// its failure category. An error that already is an ActionableError is
// returned unchanged, as is err when operation is empty.
func Classify(err error, operation, resource string) error {
	if err == nil || operation == "" {
		return err
	}
	var ae *ActionableError
	if errors.As(err, &ae) {
		return err
	}
	return &ActionableError{
		Operation:   operation,
		Resource:    resource,
		Suggestions: kindSuggestions[toolerr.KindOf(err)],
		Cause:       err,
	}
}

// Error returns "failed to <operation>[: <resource>][: <cause>]".
func (e *ActionableError) Error() string {
	var msg strings.Builder
	msg.WriteString("failed to ")
	msg.WriteString(e.Operation)
	if e.Resource != "" {
		msg.WriteString(": ")
		msg.WriteString(e.Resource)
	}
	if e.Cause != nil {
		msg.WriteString(": ")
		msg.WriteString(e.Cause.Error())
	}
	return msg.String()
}

// Unwrap returns the cause.
func (e *ActionableError) Unwrap() error {
	return e.Cause
}

// Format renders the message followed by one bullet per suggestion. Verbose
// output also lists every error in the Unwrap chain, outermost first.
func (e *ActionableError) Format(verbose bool) string {
	var msg strings.Builder
	msg.WriteString(e.Error())

	if len(e.Suggestions) > 0 {
		msg.WriteString("\n")
		for _, s := range e.Suggestions {
			msg.WriteString("\n  • ")
			msg.WriteString(s)
		}
	}

	if verbose && e.Cause != nil {
		msg.WriteString("\n\nError chain:")
		depth := 1
		for err := e.Cause; err != nil; err = errors.Unwrap(err) {
			fmt.Fprintf(&msg, "\n  %d. %s", depth, err.Error())
			depth++
		}
	}
	return msg.String()
}

// WithOperation sets the operation being performed.
func (c *ErrorContext) WithOperation(op string) *ErrorContext {
	c.operation = op
	return c
}

// WithResource sets the file, path or dependency involved.
func (c *ErrorContext) WithResource(res string) *ErrorContext {
	c.resource = res
	return c
}

// WithSuggestion appends a hint. It may be called repeatedly.
func (c *ErrorContext) WithSuggestion(sug string) *ErrorContext {
	c.suggestions = append(c.suggestions, sug)
	return c
}

// Wrap sets the underlying cause.
func (c *ErrorContext) Wrap(err error) *ErrorContext {
	c.cause = err
	return c
}

// BuildError returns the ActionableError, or nil when no operation is set.
// The suggestions are copied so the builder can be reused.
func (c *ErrorContext) BuildError() error {
	if c.operation == "" {
		return nil
	}
	return &ActionableError{
		Operation:   c.operation,
		Resource:    c.resource,
		Suggestions: append([]string(nil), c.suggestions...),
		Cause:       c.cause,
	}
}

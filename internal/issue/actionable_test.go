// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/extdeps/extdeps/internal/toolerr"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *ActionableError
		want string
	}{
		{"operation only", &ActionableError{Operation: "load manifest"}, "failed to load manifest"},
		{
			"with resource",
			&ActionableError{Operation: "load manifest", Resource: "./extdeps.cue"},
			"failed to load manifest: ./extdeps.cue",
		},
		{
			"with cause",
			&ActionableError{Operation: "parse config", Cause: errors.New("syntax error at line 5")},
			"failed to parse config: syntax error at line 5",
		},
		{
			"full context",
			&ActionableError{Operation: "provision dependency", Resource: "util_dmx", Cause: errors.New("exit status 128")},
			"failed to provision dependency: util_dmx: exit status 128",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	inner := errors.New("connection refused")
	err := &ActionableError{
		Operation:   "clone",
		Resource:    "https://github.com/Silverlan/util_dmx.git",
		Suggestions: []string{"Check the network", "Retry later"},
		Cause:       fmt.Errorf("fetch: %w", inner),
	}

	short := err.Format(false)
	for _, want := range []string{"failed to clone", "  • Check the network", "  • Retry later"} {
		if !strings.Contains(short, want) {
			t.Errorf("Format(false) missing %q:\n%s", want, short)
		}
	}
	if strings.Contains(short, "Error chain:") {
		t.Error("Format(false) should not include the error chain")
	}

	verbose := err.Format(true)
	for _, want := range []string{"Error chain:", "1. fetch: connection refused", "2. connection refused"} {
		if !strings.Contains(verbose, want) {
			t.Errorf("Format(true) missing %q:\n%s", want, verbose)
		}
	}

	if got := (&ActionableError{Operation: "x"}).Format(true); got != "failed to x" {
		t.Errorf("Format(true) without cause = %q", got)
	}
}

func TestActionableError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("underlying")
	if !errors.Is(&ActionableError{Operation: "op", Cause: cause}, cause) {
		t.Error("errors.Is should find the cause")
	}
	if (&ActionableError{Operation: "op"}).Unwrap() != nil {
		t.Error("Unwrap() without cause should be nil")
	}
}

func TestErrorContext_BuildError(t *testing.T) {
	t.Parallel()

	if NewErrorContext().WithResource("path").BuildError() != nil {
		t.Error("BuildError() without operation should be nil")
	}

	cause := errors.New("parse error")
	err := NewErrorContext().
		WithOperation("load config").
		WithResource("/etc/extdeps/config.cue").
		WithSuggestion("Check syntax").
		WithSuggestion("Run 'extdeps config show'").
		Wrap(cause).
		BuildError()

	var ae *ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("BuildError() = %T, want *ActionableError", err)
	}
	if ae.Operation != "load config" || ae.Resource != "/etc/extdeps/config.cue" || len(ae.Suggestions) != 2 {
		t.Errorf("built = %+v", ae)
	}
	if !errors.Is(err, cause) {
		t.Error("built error should wrap the cause")
	}
}

func TestErrorContext_Reuse(t *testing.T) {
	t.Parallel()

	ctx := NewErrorContext().WithOperation("process file").WithSuggestion("Check file format")
	first := ctx.Wrap(errors.New("error 1")).BuildError()
	ctx.WithSuggestion("added later")
	second := ctx.Wrap(errors.New("error 2")).BuildError()

	var a, b *ActionableError
	errors.As(first, &a)
	errors.As(second, &b)
	if a.Cause.Error() != "error 1" || b.Cause.Error() != "error 2" {
		t.Errorf("causes = %v, %v", a.Cause, b.Cause)
	}
	if len(a.Suggestions) != 1 {
		t.Errorf("earlier error saw later suggestion: %v", a.Suggestions)
	}
}

func TestWrap(t *testing.T) {
	t.Parallel()

	if Wrap(nil, "op", "res") != nil {
		t.Error("Wrap(nil) should be nil")
	}
	cause := errors.New("denied")
	err := Wrap(cause, "create manifest", "extdeps.cue")
	if err.Error() != "failed to create manifest: extdeps.cue: denied" || !errors.Is(err, cause) {
		t.Errorf("Wrap() = %v", err)
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		cause error
		hint  string
	}{
		{"network", &toolerr.NetworkError{Op: "clone", Err: errors.New("refused")}, "network connection"},
		{"ref not found", &toolerr.RefNotFoundError{Op: "checkout", Ref: "377524e"}, "pinned commit"},
		{"filesystem", &toolerr.FilesystemError{Op: "rename", Path: "/x", Err: errors.New("EXDEV")}, "writable"},
		{"tool", &toolerr.ToolInvocationError{Tool: "cmake", Err: errors.New("exit status 1")}, "tool output"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Classify(tt.cause, "provision dependency util_dmx", "external_libs/util_dmx")

			var ae *ActionableError
			if !errors.As(err, &ae) {
				t.Fatalf("Classify() = %T, want *ActionableError", err)
			}
			if !errors.Is(err, tt.cause) {
				t.Error("Classify() result should wrap the cause")
			}
			if len(ae.Suggestions) == 0 || !strings.Contains(ae.Suggestions[0], tt.hint) {
				t.Errorf("Suggestions = %v, want hint containing %q", ae.Suggestions, tt.hint)
			}
		})
	}
}

func TestClassify_Passthrough(t *testing.T) {
	t.Parallel()

	if Classify(nil, "op", "") != nil {
		t.Error("Classify(nil) should return nil")
	}

	cause := errors.New("boom")
	if got := Classify(cause, "", ""); got != cause {
		t.Errorf("Classify() without operation = %v, want the cause unchanged", got)
	}

	existing := NewErrorContext().WithOperation("load manifest").Wrap(cause).BuildError()
	if got := Classify(existing, "other", ""); got != existing {
		t.Errorf("Classify() rewrapped an ActionableError: %v", got)
	}

	var ae *ActionableError
	if !errors.As(Classify(cause, "run", ""), &ae) || len(ae.Suggestions) != 0 {
		t.Errorf("Classify(plain) = %+v, want no suggestions", ae)
	}
}

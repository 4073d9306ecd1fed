// SPDX-License-Identifier: MPL-2.0

package generator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/extdeps/extdeps/internal/toolerr"
)

func dmxInvocation() Invocation {
	return Invocation{
		SourceDir: "/src/pragma",
		BuildDir:  "/src/pragma/build",
		Flags: []string{
			"-DPME_EXTERNAL_LIB_LOCATION=/src/external_libs",
			"-DPME_EXTERNAL_LIB_BIN_LOCATION=/src/external_libs/bin",
			"-DPME_THIRD_PARTY_LIB_LOCATION=/src/third_party_libs",
		},
		Targets: []string{"pr_dmx"},
	}
}

// fakeCMake writes an executable script that appends its arguments, one per
// line and followed by "---", to a log file. It exits with exitCode.
func fakeCMake(t *testing.T, exitCode int) (binary, logPath string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake cmake is a POSIX shell script")
	}
	dir := t.TempDir()
	logPath = filepath.Join(dir, "calls.log")
	binary = filepath.Join(dir, "cmake")
	script := fmt.Sprintf("#!/bin/sh\nprintf '%%s\\n' \"$@\" >> '%s'\necho --- >> '%s'\necho generated\necho warning >&2\nexit %d\n",
		logPath, logPath, exitCode)
	if err := os.WriteFile(binary, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return binary, logPath
}

func readCalls(t *testing.T, logPath string) [][]string {
	t.Helper()
	raw, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("fake cmake was not called: %v", err)
	}
	var calls [][]string
	var cur []string
	for _, line := range strings.Split(strings.TrimSuffix(string(raw), "\n"), "\n") {
		if line == "---" {
			calls = append(calls, cur)
			cur = nil
			continue
		}
		cur = append(cur, line)
	}
	return calls
}

func TestCMake_Commands(t *testing.T) {
	t.Parallel()

	c := NewCMake()
	inv := dmxInvocation()
	inv.Targets = []string{"pr_dmx", "core"}
	inv.Args = []string{"-G", "Ninja"}

	got := c.Commands(inv)
	if len(got) != 2 {
		t.Fatalf("len(Commands()) = %d, want 2", len(got))
	}
	wantConfigure := append([]string{"cmake", "-S", "/src/pragma", "-B", "/src/pragma/build"}, inv.Flags...)
	wantConfigure = append(wantConfigure, "-G", "Ninja")
	if !slices.Equal(got[0], wantConfigure) {
		t.Errorf("configure = %v, want %v", got[0], wantConfigure)
	}
	wantBuild := []string{"cmake", "--build", "/src/pragma/build", "--target", "pr_dmx", "--target", "core"}
	if !slices.Equal(got[1], wantBuild) {
		t.Errorf("build = %v, want %v", got[1], wantBuild)
	}

	inv.GenerateOnly = true
	if n := len(c.Commands(inv)); n != 1 {
		t.Errorf("GenerateOnly: len(Commands()) = %d, want 1", n)
	}
	inv.GenerateOnly = false
	inv.Targets = nil
	if n := len(c.Commands(inv)); n != 1 {
		t.Errorf("no targets: len(Commands()) = %d, want 1", n)
	}
}

func TestCMake_DryRun(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	c := NewCMake(WithDryRun(true), WithOutput(&out, nil), WithBinary("/opt/cmake/bin/cmake"))
	inv := dmxInvocation()
	inv.Flags = append(inv.Flags, "-DLOC=/my libs")

	if err := c.InvokeGenerator(context.Background(), inv); err != nil {
		t.Fatalf("InvokeGenerator() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("dry run printed %d lines, want 2:\n%s", len(lines), out.String())
	}
	if !strings.HasPrefix(lines[0], "/opt/cmake/bin/cmake -S /src/pragma -B /src/pragma/build") {
		t.Errorf("configure line = %q", lines[0])
	}
	if !strings.Contains(lines[0], "'-DLOC=/my libs'") {
		t.Errorf("configure line does not quote the spaced flag: %q", lines[0])
	}
	if lines[1] != "/opt/cmake/bin/cmake --build /src/pragma/build --target pr_dmx" {
		t.Errorf("build line = %q", lines[1])
	}
}

func TestCMake_Runtimes(t *testing.T) {
	t.Parallel()

	for _, rt := range []Runtime{RuntimeNative, RuntimeVirtual} {
		t.Run(string(rt), func(t *testing.T) {
			t.Parallel()

			binary, logPath := fakeCMake(t, 0)
			var stdout, stderr bytes.Buffer
			c := NewCMake(WithBinary(binary), WithRuntime(rt), WithOutput(&stdout, &stderr))
			inv := dmxInvocation()
			inv.Flags = append(inv.Flags, "-DLOC=/my libs")

			if err := c.InvokeGenerator(context.Background(), inv); err != nil {
				t.Fatalf("InvokeGenerator() error = %v", err)
			}

			calls := readCalls(t, logPath)
			if len(calls) != 2 {
				t.Fatalf("cmake called %d times, want 2: %v", len(calls), calls)
			}
			want := c.Commands(inv)
			for i := range calls {
				if !slices.Equal(calls[i], want[i][1:]) {
					t.Errorf("call %d args = %q, want %q", i, calls[i], want[i][1:])
				}
			}
			if !strings.Contains(stdout.String(), "generated") {
				t.Errorf("stdout not forwarded: %q", stdout.String())
			}
			if !strings.Contains(stderr.String(), "warning") {
				t.Errorf("stderr not forwarded: %q", stderr.String())
			}
		})
	}
}

func TestCMake_Failure(t *testing.T) {
	t.Parallel()

	for _, rt := range []Runtime{RuntimeNative, RuntimeVirtual} {
		t.Run(string(rt), func(t *testing.T) {
			t.Parallel()

			binary, logPath := fakeCMake(t, 3)
			c := NewCMake(WithBinary(binary), WithRuntime(rt))

			err := c.InvokeGenerator(context.Background(), dmxInvocation())
			var te *toolerr.ToolInvocationError
			if !errors.As(err, &te) {
				t.Fatalf("InvokeGenerator() error = %v, want ToolInvocationError", err)
			}
			if te.ExitCode != 3 {
				t.Errorf("ExitCode = %d, want 3", te.ExitCode)
			}
			if !strings.Contains(te.Stderr, "warning") {
				t.Errorf("Stderr = %q, want captured stderr", te.Stderr)
			}
			if calls := readCalls(t, logPath); len(calls) != 1 {
				t.Errorf("build step ran after a failed configure: %d calls", len(calls))
			}
		})
	}
}

func TestCMake_MissingBinary(t *testing.T) {
	t.Parallel()

	for _, rt := range []Runtime{RuntimeNative, RuntimeVirtual} {
		t.Run(string(rt), func(t *testing.T) {
			t.Parallel()

			c := NewCMake(WithBinary("extdeps-no-such-cmake"), WithRuntime(rt))
			err := c.InvokeGenerator(context.Background(), dmxInvocation())
			if !errors.Is(err, toolerr.ErrToolInvocation) {
				t.Errorf("InvokeGenerator() error = %v, want ErrToolInvocation", err)
			}
		})
	}
}

func TestInvocation_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Invocation)
		wantErr bool
	}{
		{"valid", func(*Invocation) {}, false},
		{"no source", func(i *Invocation) { i.SourceDir = "" }, true},
		{"no build", func(i *Invocation) { i.BuildDir = " " }, true},
		{"empty flag", func(i *Invocation) { i.Flags = append(i.Flags, "") }, true},
		{"empty target", func(i *Invocation) { i.Targets = []string{""} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			inv := dmxInvocation()
			tt.mutate(&inv)
			err := inv.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidInvocation) {
				t.Errorf("errors.Is(err, ErrInvalidInvocation) = false")
			}
		})
	}
}

func TestRuntime_Validate(t *testing.T) {
	t.Parallel()

	if err := RuntimeNative.Validate(); err != nil {
		t.Errorf("native: %v", err)
	}
	if err := RuntimeVirtual.Validate(); err != nil {
		t.Errorf("virtual: %v", err)
	}
	if err := Runtime("docker").Validate(); !errors.Is(err, ErrInvalidRuntime) {
		t.Errorf("docker: error = %v, want ErrInvalidRuntime", err)
	}

	c := NewCMake(WithRuntime("docker"), WithDryRun(true))
	if err := c.InvokeGenerator(context.Background(), dmxInvocation()); !errors.Is(err, ErrInvalidRuntime) {
		t.Errorf("InvokeGenerator(docker) error = %v, want ErrInvalidRuntime", err)
	}
}

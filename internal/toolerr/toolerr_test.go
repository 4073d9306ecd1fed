// SPDX-License-Identifier: MPL-2.0

package toolerr

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strings"
	"syscall"
	"testing"
)

func TestKindOf(t *testing.T) {
	t.Parallel()

	cause := errors.New("cause")
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"plain", cause, KindUnknown},
		{"network", &NetworkError{Op: "clone", Resource: "https://example/x.git", Err: cause}, KindNetwork},
		{"ref", &RefNotFoundError{Op: "checkout", Ref: "abc123"}, KindRefNotFound},
		{"filesystem", &FilesystemError{Op: "create", Path: "/x", Err: cause}, KindFilesystem},
		{"tool", &ToolInvocationError{Tool: "cmake", ExitCode: 1}, KindToolInvocation},
		{"wrapped", fmt.Errorf("provision util_dmx: %w", &RefNotFoundError{Ref: "abc123"}), KindRefNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorsKeepCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := &NetworkError{Op: "fetch", Resource: "origin", Err: cause}

	if !errors.Is(err, ErrNetwork) {
		t.Error("NetworkError should match ErrNetwork")
	}
	if !errors.Is(err, cause) {
		t.Error("NetworkError should unwrap to its cause")
	}
	if errors.Is(err, ErrFilesystem) {
		t.Error("NetworkError must not match ErrFilesystem")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("Error() = %q, should include the cause", err.Error())
	}
}

func TestToolInvocationError_Error(t *testing.T) {
	t.Parallel()

	err := &ToolInvocationError{
		Tool:     "cmake",
		Args:     []string{"-S", ".", "-B", "build"},
		ExitCode: 1,
		Stderr:   "CMake Error: no CMakeLists.txt\n",
	}
	want := "cmake -S . -B build: exit status 1: CMake Error: no CMakeLists.txt"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestFilesystem(t *testing.T) {
	t.Parallel()

	if Filesystem("mkdir", "/x", nil) != nil {
		t.Error("Filesystem(nil) should be nil")
	}

	already := &RefNotFoundError{Ref: "abc"}
	if got := Filesystem("mkdir", "/x", already); got != already {
		t.Errorf("classified errors must pass through unchanged, got %v", got)
	}

	err := Filesystem("mkdir", "/x", fs.ErrPermission)
	if !errors.Is(err, ErrFilesystem) || !errors.Is(err, fs.ErrPermission) {
		t.Errorf("Filesystem() = %v, want FilesystemError wrapping fs.ErrPermission", err)
	}
}

func TestCauseDetection(t *testing.T) {
	t.Parallel()

	pathErr := &fs.PathError{Op: "open", Path: "/x", Err: syscall.EACCES}
	if !IsFilesystemCause(pathErr) {
		t.Error("PathError should be a filesystem cause")
	}
	if !IsFilesystemCause(fmt.Errorf("write: %w", syscall.ENOSPC)) {
		t.Error("ENOSPC should be a filesystem cause")
	}
	if IsFilesystemCause(errors.New("other")) {
		t.Error("plain errors are not filesystem causes")
	}

	opErr := &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}
	if !IsNetworkCause(opErr) {
		t.Error("net.OpError should be a network cause")
	}
	if !IsNetworkCause(&net.DNSError{Err: "no such host", Name: "example.invalid"}) {
		t.Error("DNSError should be a network cause")
	}
	if !IsNetworkCause(fmt.Errorf("fetch: %w", context.DeadlineExceeded)) {
		t.Error("deadline exceeded should be a network cause")
	}
	if IsNetworkCause(errors.New("other")) {
		t.Error("plain errors are not network causes")
	}
}

// SPDX-License-Identifier: MPL-2.0

package toolerr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNetwork matches failures to reach or authenticate against a remote.
	ErrNetwork = errors.New("network error")
	// ErrRefNotFound matches a commit or branch that does not exist.
	ErrRefNotFound = errors.New("ref not found")
	// ErrFilesystem matches permission, space and layout problems on disk.
	ErrFilesystem = errors.New("filesystem error")
	// ErrToolInvocation matches an external command that is missing or exited non-zero.
	ErrToolInvocation = errors.New("tool invocation failed")
)

type (
	// Kind identifies one of the four failure categories.
	Kind string

	// NetworkError is returned when a clone or fetch cannot reach the remote.
	NetworkError struct {
		Op       string
		Resource string
		Err      error
	}

	// RefNotFoundError is returned when the requested commit or branch is absent.
	RefNotFoundError struct {
		Op  string
		Ref string
		Err error
	}

	// FilesystemError is returned for permission, disk space and path layout failures.
	FilesystemError struct {
		Op   string
		Path string
		Err  error
	}

	// ToolInvocationError is returned when an external command cannot be
	// started or exits with a non-zero status.
	ToolInvocationError struct {
		Tool     string
		Args     []string
		ExitCode int
		Stderr   string
		Err      error
	}
)

const (
	KindNetwork        Kind = "network"
	KindRefNotFound    Kind = "ref-not-found"
	KindFilesystem     Kind = "filesystem"
	KindToolInvocation Kind = "tool-invocation"
	KindUnknown        Kind = "unknown"
)

// String returns the string representation of the Kind.
func (k Kind) String() string { return string(k) }

// KindOf reports which category err belongs to, or KindUnknown.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrRefNotFound):
		return KindRefNotFound
	case errors.Is(err, ErrNetwork):
		return KindNetwork
	case errors.Is(err, ErrFilesystem):
		return KindFilesystem
	case errors.Is(err, ErrToolInvocation):
		return KindToolInvocation
	default:
		return KindUnknown
	}
}

func (e *NetworkError) Error() string {
	return withCause(fmt.Sprintf("%s %s: %s", e.Op, e.Resource, ErrNetwork), e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Is reports whether target is ErrNetwork.
func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

func (e *RefNotFoundError) Error() string {
	return withCause(fmt.Sprintf("%s: ref %q not found", e.Op, e.Ref), e.Err)
}

func (e *RefNotFoundError) Unwrap() error { return e.Err }

// Is reports whether target is ErrRefNotFound.
func (e *RefNotFoundError) Is(target error) bool { return target == ErrRefNotFound }

func (e *FilesystemError) Error() string {
	return withCause(fmt.Sprintf("%s %s", e.Op, e.Path), e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }

// Is reports whether target is ErrFilesystem.
func (e *FilesystemError) Is(target error) bool { return target == ErrFilesystem }

func (e *ToolInvocationError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Tool)
	if len(e.Args) > 0 {
		sb.WriteString(" ")
		sb.WriteString(strings.Join(e.Args, " "))
	}
	if e.ExitCode > 0 {
		fmt.Fprintf(&sb, ": exit status %d", e.ExitCode)
	} else if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		sb.WriteString(": ")
		sb.WriteString(stderr)
	}
	return sb.String()
}

func (e *ToolInvocationError) Unwrap() error { return e.Err }

// Is reports whether target is ErrToolInvocation.
func (e *ToolInvocationError) Is(target error) bool { return target == ErrToolInvocation }

func withCause(msg string, cause error) string {
	if cause == nil {
		return msg
	}
	return msg + ": " + cause.Error()
}

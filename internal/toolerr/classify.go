// SPDX-License-Identifier: MPL-2.0

package toolerr

import (
	"context"
	"errors"
	"io/fs"
	"net"
	"net/url"
	"os"
	"os/exec"
	"syscall"
)

// Filesystem wraps err as a FilesystemError unless it already carries a kind.
func Filesystem(op, path string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindUnknown {
		return err
	}
	return &FilesystemError{Op: op, Path: path, Err: err}
}

// IsFilesystemCause reports whether err originates from the local filesystem:
// path errors, permission denials, a full or read-only disk.
func IsFilesystemCause(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, fs.ErrPermission) ||
		errors.Is(err, syscall.ENOSPC) ||
		errors.Is(err, syscall.EROFS) {
		return true
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return true
	}
	var linkErr *os.LinkError
	return errors.As(err, &linkErr)
}

// IsNetworkCause reports whether err comes from the network stack: DNS
// failures, refused or reset connections, URL transport errors and timeouts.
func IsNetworkCause(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, context.DeadlineExceeded)
}

// FromExec converts an os/exec failure into a ToolInvocationError carrying
// the exit code and captured stderr.
func FromExec(tool string, args []string, stderr string, err error) error {
	if err == nil {
		return nil
	}
	te := &ToolInvocationError{
		Tool:   tool,
		Args:   args,
		Stderr: stderr,
		Err:    err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		te.ExitCode = exitErr.ExitCode()
	}
	return te
}

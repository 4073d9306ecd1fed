// SPDX-License-Identifier: MPL-2.0

package vcs

import (
	"context"
	"errors"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/extdeps/extdeps/internal/toolerr"
)

// target describes the operation an error came from. fallback is the kind
// assigned when nothing more specific can be recognized.
type target struct {
	op       string
	url      string
	path     string
	ref      string
	fallback toolerr.Kind
}

var (
	refNotFoundMarkers = []string{
		"couldn't find remote ref",
		"remote branch",
		"not our ref",
		"unknown revision",
		"not a valid object name",
		"reference is not a tree",
		"did not match any file(s) known to git",
		"invalid reference",
		"needed a single revision",
		"bad object",
	}

	// "could not read from remote repository" precedes the filesystem
	// markers so an SSH "permission denied (publickey)" counts as network.
	networkMarkers = []string{
		"could not read from remote repository",
		"could not resolve host",
		"unable to access",
		"connection refused",
		"connection timed out",
		"connection reset",
		"operation timed out",
		"authentication failed",
		"repository not found",
		"repository not exported",
		"access denied",
		"does not appear to be a git repository",
		"the remote end hung up",
		"early eof",
		"ssl certificate problem",
		"could not resolve proxy",
	}

	filesystemMarkers = []string{
		"permission denied",
		"no space left on device",
		"read-only file system",
		"not a git repository",
		"already exists and is not an empty directory",
		"could not create",
		"unable to create",
		"unable to write",
		"unable to unlink",
	}
)

// classify maps err onto the toolerr taxonomy. Errors that already carry a
// kind and context cancellations are returned unchanged.
func (t target) classify(err error) error {
	if err == nil {
		return nil
	}
	if toolerr.KindOf(err) != toolerr.KindUnknown ||
		errors.Is(err, context.Canceled) {
		return err
	}

	switch {
	case isGoGitRefNotFound(err):
		return t.refNotFound(err)
	case isGoGitNetwork(err), toolerr.IsNetworkCause(err):
		return t.network(err)
	case errors.Is(err, git.ErrRepositoryNotExists), toolerr.IsFilesystemCause(err):
		return t.filesystem(err)
	}

	switch t.fallback {
	case toolerr.KindNetwork:
		return t.network(err)
	case toolerr.KindRefNotFound:
		return t.refNotFound(err)
	default:
		return t.filesystem(err)
	}
}

// classifyStderr maps a failed git command onto the toolerr taxonomy by
// inspecting its stderr. Unrecognized failures stay ToolInvocationErrors.
func (t target) classifyStderr(stderr string, execErr error) error {
	lower := strings.ToLower(stderr)
	switch {
	case containsAny(lower, refNotFoundMarkers):
		return t.refNotFound(execErr)
	case containsAny(lower, networkMarkers):
		return t.network(execErr)
	case containsAny(lower, filesystemMarkers):
		return t.filesystem(execErr)
	}
	return execErr
}

func (t target) refNotFound(err error) error {
	ref := t.ref
	if ref == "" {
		ref = t.url
	}
	return &toolerr.RefNotFoundError{Op: t.op, Ref: ref, Err: err}
}

func (t target) network(err error) error {
	return &toolerr.NetworkError{Op: t.op, Resource: t.url, Err: err}
}

func (t target) filesystem(err error) error {
	return &toolerr.FilesystemError{Op: t.op, Path: t.path, Err: err}
}

func isGoGitRefNotFound(err error) bool {
	return errors.Is(err, plumbing.ErrReferenceNotFound) ||
		errors.Is(err, plumbing.ErrObjectNotFound) ||
		errors.Is(err, git.NoMatchingRefSpecError{}) ||
		errors.Is(err, transport.ErrEmptyRemoteRepository) ||
		errors.Is(err, errAmbiguousCommit)
}

func isGoGitNetwork(err error) bool {
	return errors.Is(err, transport.ErrRepositoryNotFound) ||
		errors.Is(err, transport.ErrAuthenticationRequired) ||
		errors.Is(err, transport.ErrAuthorizationFailed) ||
		errors.Is(err, transport.ErrInvalidAuthMethod)
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

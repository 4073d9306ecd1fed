// SPDX-License-Identifier: MPL-2.0

package vcs

import (
	"context"
	"errors"
	"fmt"

	"github.com/extdeps/extdeps/pkg/depspec"
	"github.com/extdeps/extdeps/pkg/types"
)

const (
	// BackendGoGit selects the in-process go-git backend.
	BackendGoGit Backend = "gogit"
	// BackendCLI selects the git command-line backend.
	BackendCLI Backend = "cli"

	// RemoteName is the remote every checkout tracks.
	RemoteName = "origin"
)

// ErrInvalidBackend is the sentinel error wrapped by InvalidBackendError.
var ErrInvalidBackend = errors.New("invalid vcs backend")

type (
	// Backend names a Client implementation.
	Backend string

	// InvalidBackendError is returned for an unknown Backend.
	InvalidBackendError struct {
		Value Backend
	}

	// Client is the set of version-control operations used to provision a dependency.
	// dir is always the root of a working copy.
	Client interface {
		// Clone creates a working copy of url at dest. dest must not exist or be empty.
		Clone(ctx context.Context, url depspec.GitURL, dest types.FilesystemPath, opts CloneOptions) error
		// Fetch updates remote-tracking refs of dir from origin. A non-empty
		// branch restricts the fetch to that branch.
		Fetch(ctx context.Context, dir types.FilesystemPath, branch depspec.Branch) error
		// CheckoutCommit force-checks out commit as a detached HEAD, discarding
		// local modifications, and returns the full commit hash.
		CheckoutCommit(ctx context.Context, dir types.FilesystemPath, commit depspec.GitCommit) (depspec.GitCommit, error)
		// HasCommit reports whether commit exists in the local object store.
		HasCommit(ctx context.Context, dir types.FilesystemPath, commit depspec.GitCommit) (bool, error)
		// HeadCommit returns the full hash HEAD points to.
		HeadCommit(ctx context.Context, dir types.FilesystemPath) (depspec.GitCommit, error)
		// RemoteURL returns the first URL of origin.
		RemoteURL(ctx context.Context, dir types.FilesystemPath) (depspec.GitURL, error)
		// SetRemoteURL points origin at url.
		SetRemoteURL(ctx context.Context, dir types.FilesystemPath, url depspec.GitURL) error
	}

	// CloneOptions tune Clone.
	CloneOptions struct {
		// Branch is checked out after cloning when set; otherwise the remote HEAD.
		Branch depspec.Branch
		// Depth limits history for a shallow clone; 0 clones everything.
		Depth int
	}

	// Options configure New.
	Options struct {
		Backend Backend
		// GitBinary is the git executable used by the CLI backend.
		GitBinary string
	}
)

// String returns the string representation of the Backend.
func (b Backend) String() string { return string(b) }

// Validate returns nil if b names a known backend.
func (b Backend) Validate() error {
	switch b {
	case BackendGoGit, BackendCLI:
		return nil
	default:
		return &InvalidBackendError{Value: b}
	}
}

// Error implements the error interface.
func (e *InvalidBackendError) Error() string {
	return fmt.Sprintf("invalid vcs backend %q (expected gogit or cli)", e.Value)
}

// Unwrap returns ErrInvalidBackend so callers can use errors.Is.
func (e *InvalidBackendError) Unwrap() error { return ErrInvalidBackend }

// New returns the Client selected by opts.Backend. An empty backend selects GoGit.
func New(opts Options) (Client, error) {
	switch opts.Backend {
	case "", BackendGoGit:
		return NewGoGit(), nil
	case BackendCLI:
		return NewCLI(opts.GitBinary), nil
	default:
		return nil, &InvalidBackendError{Value: opts.Backend}
	}
}

// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/extdeps/extdeps/internal/toolerr"
	"github.com/extdeps/extdeps/internal/vcs"
	"github.com/extdeps/extdeps/pkg/depspec"
	"github.com/extdeps/extdeps/pkg/types"
)

const (
	// ActionCloned means the target did not exist and was cloned.
	ActionCloned Action = "cloned"
	// ActionFetched means the commit was missing locally and had to be fetched.
	ActionFetched Action = "fetched"
	// ActionSwitched means the commit was already present locally but HEAD moved to it.
	ActionSwitched Action = "switched"
	// ActionUnchanged means HEAD already pointed at the commit.
	ActionUnchanged Action = "unchanged"

	stagingMarker = ".extdeps-staging-"
)

// ErrNotACheckout is returned when the target exists, is not empty and is
// not a git working copy.
var ErrNotACheckout = errors.New("target exists and is not a git checkout")

type (
	// Action describes what EnsureCheckedOut had to do.
	Action string

	// Result describes a provisioned dependency.
	Result struct {
		Name       depspec.DependencyName `json:"name" yaml:"name"`
		TargetPath types.FilesystemPath   `json:"target_path" yaml:"target_path"`
		// Commit is the full hash HEAD points to after provisioning.
		Commit depspec.GitCommit `json:"commit" yaml:"commit"`
		Action Action            `json:"action" yaml:"action"`
	}

	// Error names the dependency a provisioning failure belongs to. Err is
	// classified with the toolerr taxonomy whenever the cause is known.
	Error struct {
		Name depspec.DependencyName
		Err  error
	}

	// Provisioner checks dependencies out at their pinned commits.
	Provisioner struct {
		client vcs.Client
		cfg    Config
	}

	targetState int
)

const (
	targetMissing targetState = iota
	targetEmpty
	targetCheckout
)

// String returns the string representation of the Action.
func (a Action) String() string { return string(a) }

// Changed reports whether the working tree moved to a different commit.
func (a Action) Changed() bool { return a != ActionUnchanged }

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("failed to provision dependency %s: %v", e.Name, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// New creates a Provisioner that uses client for all git operations.
func New(client vcs.Client, opts ...Option) *Provisioner {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	return &Provisioner{client: client, cfg: cfg}
}

// EnsureCheckedOut makes desc.TargetPath a working copy of desc.GitURL with
// HEAD detached at desc.Commit. It is idempotent: once the commit is present
// locally, repeated calls perform no network access.
//
// Every failure is returned as an *Error naming the dependency.
func (p *Provisioner) EnsureCheckedOut(ctx context.Context, desc depspec.Descriptor) (*Result, error) {
	if err := desc.Validate(); err != nil {
		return nil, &Error{Name: desc.Name, Err: err}
	}
	// A trailing separator would make the target its own parent.
	desc.TargetPath = types.FilesystemPath(filepath.Clean(string(desc.TargetPath)))

	state, err := inspectTarget(desc.TargetPath)
	if err != nil {
		return nil, &Error{Name: desc.Name, Err: err}
	}

	var res *Result
	switch state {
	case targetCheckout:
		res, err = p.update(ctx, desc)
	default:
		res, err = p.cloneFresh(ctx, desc, state == targetEmpty)
	}
	if err != nil {
		return nil, &Error{Name: desc.Name, Err: err}
	}

	slog.Info("dependency ready",
		"name", res.Name, "commit", res.Commit.Short(), "action", res.Action, "path", res.TargetPath)
	return res, nil
}

// cloneFresh clones into a sibling staging directory and renames it onto
// the target once the pinned commit is checked out.
func (p *Provisioner) cloneFresh(ctx context.Context, desc depspec.Descriptor, replaceEmpty bool) (res *Result, err error) {
	target := string(desc.TargetPath)
	parent := filepath.Dir(target)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, toolerr.Filesystem("create directory", parent, err)
	}

	staging := types.FilesystemPath(filepath.Join(parent, "."+filepath.Base(target)+stagingMarker+p.cfg.StagingSuffix()))
	defer func() {
		if err == nil {
			return
		}
		if rmErr := os.RemoveAll(string(staging)); rmErr != nil {
			slog.Warn("failed to remove staging directory", "path", staging, "error", rmErr)
		}
	}()

	slog.Debug("cloning into staging directory", "name", desc.Name, "url", desc.GitURL, "staging", staging)
	if err := p.client.Clone(ctx, desc.GitURL, staging, vcs.CloneOptions{Branch: desc.Branch, Depth: p.cfg.CloneDepth}); err != nil {
		return nil, err
	}

	// A branch-limited or shallow clone may not contain the commit yet.
	if _, err := p.fetchIfMissing(ctx, staging, desc); err != nil {
		return nil, err
	}

	full, err := p.client.CheckoutCommit(ctx, staging, desc.Commit)
	if err != nil {
		return nil, err
	}

	if replaceEmpty {
		if err := os.Remove(target); err != nil {
			return nil, toolerr.Filesystem("remove empty directory", target, err)
		}
	}
	if err := os.Rename(string(staging), target); err != nil {
		return nil, toolerr.Filesystem("move checkout into place at", target, err)
	}

	return &Result{Name: desc.Name, TargetPath: desc.TargetPath, Commit: full, Action: ActionCloned}, nil
}

// update moves an existing checkout to the pinned commit. The working tree
// is not touched unless the commit resolves.
func (p *Provisioner) update(ctx context.Context, desc depspec.Descriptor) (*Result, error) {
	dir := desc.TargetPath

	if err := p.syncRemoteURL(ctx, dir, desc.GitURL); err != nil {
		return nil, err
	}

	// An unborn HEAD (no commits yet) is not an error here.
	before, err := p.client.HeadCommit(ctx, dir)
	if err != nil && !errors.Is(err, toolerr.ErrRefNotFound) {
		return nil, err
	}

	fetched, err := p.fetchIfMissing(ctx, dir, desc)
	if err != nil {
		return nil, err
	}

	full, err := p.client.CheckoutCommit(ctx, dir, desc.Commit)
	if err != nil {
		return nil, err
	}

	action := ActionUnchanged
	switch {
	case fetched:
		action = ActionFetched
	case before != full:
		action = ActionSwitched
	}
	return &Result{Name: desc.Name, TargetPath: dir, Commit: full, Action: action}, nil
}

// fetchIfMissing fetches only when the commit is absent. The branch hint is
// tried first; if the commit is still missing all refs are fetched.
func (p *Provisioner) fetchIfMissing(ctx context.Context, dir types.FilesystemPath, desc depspec.Descriptor) (fetched bool, err error) {
	has, err := p.client.HasCommit(ctx, dir, desc.Commit)
	if err != nil || has {
		return false, err
	}

	slog.Debug("commit not present locally, fetching", "name", desc.Name, "commit", desc.Commit, "branch", desc.Branch)
	if err := p.client.Fetch(ctx, dir, desc.Branch); err != nil {
		return false, err
	}
	if desc.Branch == "" {
		return true, nil
	}

	has, err = p.client.HasCommit(ctx, dir, desc.Commit)
	if err != nil || has {
		return true, err
	}
	slog.Debug("commit not on hinted branch, fetching all refs", "name", desc.Name, "branch", desc.Branch)
	return true, p.client.Fetch(ctx, dir, "")
}

func (p *Provisioner) syncRemoteURL(ctx context.Context, dir types.FilesystemPath, want depspec.GitURL) error {
	current, err := p.client.RemoteURL(ctx, dir)
	if err == nil && current == want {
		return nil
	}
	slog.Info("updating origin URL", "path", dir, "from", current, "to", want)
	return p.client.SetRemoteURL(ctx, dir, want)
}

// inspectTarget classifies the target path without modifying it.
func inspectTarget(path types.FilesystemPath) (targetState, error) {
	p := string(path)
	info, err := os.Stat(p)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return targetMissing, nil
	case err != nil:
		return 0, toolerr.Filesystem("inspect", p, err)
	case !info.IsDir():
		return 0, &toolerr.FilesystemError{Op: "inspect", Path: p, Err: ErrNotACheckout}
	}

	if _, err := os.Stat(filepath.Join(p, ".git")); err == nil {
		return targetCheckout, nil
	}

	entries, err := os.ReadDir(p)
	if err != nil {
		return 0, toolerr.Filesystem("read", p, err)
	}
	if len(entries) == 0 {
		return targetEmpty, nil
	}
	return 0, &toolerr.FilesystemError{Op: "inspect", Path: p, Err: ErrNotACheckout}
}

// IsStagingDir reports whether name is a staging directory left behind by
// an interrupted clone.
func IsStagingDir(name string) bool {
	return strings.HasPrefix(name, ".") && strings.Contains(name, stagingMarker)
}

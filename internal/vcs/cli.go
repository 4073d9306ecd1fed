// SPDX-License-Identifier: MPL-2.0

package vcs

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/extdeps/extdeps/internal/toolerr"
	"github.com/extdeps/extdeps/pkg/depspec"
	"github.com/extdeps/extdeps/pkg/types"
)

// DefaultGitBinary is the executable used when CLI.Binary is empty.
const DefaultGitBinary = "git"

// CLI is a Client that runs the git binary.
type CLI struct {
	// Binary is the git executable name or path.
	Binary string
}

// NewCLI creates a git CLI client. An empty binary selects "git" from PATH.
func NewCLI(binary string) *CLI {
	if binary == "" {
		binary = DefaultGitBinary
	}
	return &CLI{Binary: binary}
}

// Clone implements Client. A positive opts.Depth makes a shallow clone of
// all branches; Fetch deepens it when the pinned commit is missing.
func (c *CLI) Clone(ctx context.Context, url depspec.GitURL, dest types.FilesystemPath, opts CloneOptions) error {
	t := target{op: "clone", url: string(url), path: string(dest), ref: string(opts.Branch)}

	if err := os.MkdirAll(filepath.Dir(string(dest)), 0o755); err != nil {
		return toolerr.Filesystem("create parent directory of", string(dest), err)
	}

	args := []string{"clone", "--no-checkout", "--origin", RemoteName}
	if opts.Branch != "" {
		args = append(args, "--branch", string(opts.Branch))
	}
	if opts.Depth > 0 {
		args = append(args, "--depth", strconv.Itoa(opts.Depth), "--no-single-branch")
	}
	args = append(args, "--", string(url), string(dest))

	_, err := c.run(ctx, "", t, args...)
	return err
}

// Fetch implements Client.
func (c *CLI) Fetch(ctx context.Context, dir types.FilesystemPath, branch depspec.Branch) error {
	url, err := c.RemoteURL(ctx, dir)
	if err != nil {
		return err
	}
	t := target{op: "fetch", url: string(url), path: string(dir), ref: string(branch)}

	args := []string{"fetch", "--force", "--tags"}
	if isShallow(dir) {
		args = append(args, "--unshallow")
	}
	args = append(args, RemoteName)
	if branch != "" {
		args = append(args, string(branchRefSpec(branch)))
	}

	_, err = c.run(ctx, dir, t, args...)
	return err
}

// CheckoutCommit implements Client.
func (c *CLI) CheckoutCommit(ctx context.Context, dir types.FilesystemPath, commit depspec.GitCommit) (depspec.GitCommit, error) {
	t := target{op: "checkout", path: string(dir), ref: string(commit)}

	full, found, err := c.revParse(ctx, dir, commit)
	if err != nil {
		return "", err
	}
	if !found {
		return "", t.refNotFound(errors.New("commit not present after fetch"))
	}

	if _, err := c.run(ctx, dir, t, "-c", "advice.detachedHead=false", "checkout", "--force", "--detach", string(full)); err != nil {
		return "", err
	}
	return full, nil
}

// HasCommit implements Client.
func (c *CLI) HasCommit(ctx context.Context, dir types.FilesystemPath, commit depspec.GitCommit) (bool, error) {
	_, found, err := c.revParse(ctx, dir, commit)
	return found, err
}

// HeadCommit implements Client.
func (c *CLI) HeadCommit(ctx context.Context, dir types.FilesystemPath) (depspec.GitCommit, error) {
	t := target{op: "resolve HEAD", path: string(dir), ref: "HEAD"}
	out, err := c.run(ctx, dir, t, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return depspec.GitCommit(out), nil
}

// RemoteURL implements Client.
func (c *CLI) RemoteURL(ctx context.Context, dir types.FilesystemPath) (depspec.GitURL, error) {
	t := target{op: "look up remote " + RemoteName + " in", path: string(dir)}
	out, err := c.run(ctx, dir, t, "remote", "get-url", RemoteName)
	if err != nil {
		return "", err
	}
	return depspec.GitURL(out), nil
}

// SetRemoteURL implements Client. The remote is created if it is missing.
func (c *CLI) SetRemoteURL(ctx context.Context, dir types.FilesystemPath, url depspec.GitURL) error {
	t := target{op: "set remote URL", url: string(url), path: string(dir)}
	if _, err := c.RemoteURL(ctx, dir); err != nil {
		_, err = c.run(ctx, dir, t, "remote", "add", RemoteName, string(url))
		return err
	}
	_, err := c.run(ctx, dir, t, "remote", "set-url", RemoteName, string(url))
	return err
}

// revParse resolves commit to a full hash. found is false when the commit
// is not in the object store.
func (c *CLI) revParse(ctx context.Context, dir types.FilesystemPath, commit depspec.GitCommit) (full depspec.GitCommit, found bool, err error) {
	t := target{op: "look up commit", path: string(dir), ref: string(commit)}
	out, err := c.run(ctx, dir, t, "rev-parse", "--verify", "--quiet", string(commit)+"^{commit}")
	if err != nil {
		// --verify --quiet exits 1 without output for a missing object.
		var te *toolerr.ToolInvocationError
		if errors.As(err, &te) && te.ExitCode == 1 {
			return "", false, nil
		}
		if errors.Is(err, toolerr.ErrRefNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return depspec.GitCommit(out), true, nil
}

// run executes git with args in dir and returns trimmed stdout. Prompts are
// disabled so a missing credential fails instead of blocking.
func (c *CLI) run(ctx context.Context, dir types.FilesystemPath, t target, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, c.Binary, args...)
	cmd.Dir = string(dir)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "LC_ALL=C")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("running git", "binary", c.Binary, "args", args, "dir", dir)
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		execErr := toolerr.FromExec(c.Binary, args, stderr.String(), err)
		return "", t.classifyStderr(stderr.String(), execErr)
	}
	return strings.TrimSpace(stdout.String()), nil
}

func isShallow(dir types.FilesystemPath) bool {
	_, err := os.Stat(filepath.Join(string(dir), ".git", "shallow"))
	return err == nil
}

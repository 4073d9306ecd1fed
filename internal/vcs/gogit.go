// SPDX-License-Identifier: MPL-2.0

package vcs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/extdeps/extdeps/internal/toolerr"
	"github.com/extdeps/extdeps/pkg/depspec"
	"github.com/extdeps/extdeps/pkg/types"
)

// errAmbiguousCommit is returned when an abbreviated hash matches several commits.
var errAmbiguousCommit = errors.New("ambiguous abbreviated commit")

// GoGit is the in-process Client backed by go-git.
type GoGit struct {
	auth authResolver
}

// NewGoGit creates a go-git client that discovers credentials from the
// environment and ~/.ssh on each remote operation.
func NewGoGit() *GoGit {
	return &GoGit{auth: defaultAuthResolver()}
}

// Clone implements Client. go-git cannot deepen a shallow repository later,
// so opts.Depth is ignored and the full history is cloned.
func (g *GoGit) Clone(ctx context.Context, url depspec.GitURL, dest types.FilesystemPath, opts CloneOptions) error {
	t := target{op: "clone", url: string(url), path: string(dest), ref: string(opts.Branch), fallback: toolerr.KindNetwork}

	if err := os.MkdirAll(filepath.Dir(string(dest)), 0o755); err != nil {
		return toolerr.Filesystem("create parent directory of", string(dest), err)
	}

	cloneOpts := &git.CloneOptions{
		URL:        string(url),
		RemoteName: RemoteName,
		Auth:       g.auth.authFor(url),
		NoCheckout: true,
		Tags:       git.AllTags,
	}
	if opts.Branch != "" {
		cloneOpts.ReferenceName = plumbing.NewBranchReferenceName(string(opts.Branch))
	}

	slog.Debug("cloning repository", "url", url, "dest", dest, "branch", opts.Branch)
	if _, err := git.PlainCloneContext(ctx, string(dest), false, cloneOpts); err != nil {
		return t.classify(err)
	}
	return nil
}

// Fetch implements Client.
func (g *GoGit) Fetch(ctx context.Context, dir types.FilesystemPath, branch depspec.Branch) error {
	repo, err := g.open(dir)
	if err != nil {
		return err
	}
	url, err := g.remoteURL(repo, dir)
	if err != nil {
		return err
	}

	t := target{op: "fetch", url: string(url), path: string(dir), ref: string(branch), fallback: toolerr.KindNetwork}
	fetchOpts := &git.FetchOptions{
		RemoteName: RemoteName,
		Auth:       g.auth.authFor(url),
		Tags:       git.AllTags,
		Force:      true,
	}
	if branch != "" {
		fetchOpts.RefSpecs = []config.RefSpec{branchRefSpec(branch)}
	}

	slog.Debug("fetching", "dir", dir, "url", url, "branch", branch)
	err = repo.FetchContext(ctx, fetchOpts)
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return t.classify(err)
	}
	return nil
}

// CheckoutCommit implements Client.
func (g *GoGit) CheckoutCommit(ctx context.Context, dir types.FilesystemPath, commit depspec.GitCommit) (depspec.GitCommit, error) {
	t := target{op: "checkout", path: string(dir), ref: string(commit), fallback: toolerr.KindFilesystem}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	repo, err := g.open(dir)
	if err != nil {
		return "", err
	}
	hash, err := resolveCommit(repo, commit)
	if err != nil {
		return "", t.classify(err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", t.classify(err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Hash: hash, Force: true}); err != nil {
		return "", t.classify(err)
	}
	return depspec.GitCommit(hash.String()), nil
}

// HasCommit implements Client.
func (g *GoGit) HasCommit(_ context.Context, dir types.FilesystemPath, commit depspec.GitCommit) (bool, error) {
	repo, err := g.open(dir)
	if err != nil {
		return false, err
	}
	if _, err := resolveCommit(repo, commit); err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return false, nil
		}
		t := target{op: "look up commit", path: string(dir), ref: string(commit), fallback: toolerr.KindFilesystem}
		return false, t.classify(err)
	}
	return true, nil
}

// HeadCommit implements Client.
func (g *GoGit) HeadCommit(_ context.Context, dir types.FilesystemPath) (depspec.GitCommit, error) {
	repo, err := g.open(dir)
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		t := target{op: "resolve HEAD", path: string(dir), ref: "HEAD", fallback: toolerr.KindFilesystem}
		return "", t.classify(err)
	}
	return depspec.GitCommit(head.Hash().String()), nil
}

// RemoteURL implements Client.
func (g *GoGit) RemoteURL(_ context.Context, dir types.FilesystemPath) (depspec.GitURL, error) {
	repo, err := g.open(dir)
	if err != nil {
		return "", err
	}
	return g.remoteURL(repo, dir)
}

// SetRemoteURL implements Client. The remote is created if it is missing.
func (g *GoGit) SetRemoteURL(_ context.Context, dir types.FilesystemPath, url depspec.GitURL) error {
	repo, err := g.open(dir)
	if err != nil {
		return err
	}
	cfg, err := repo.Config()
	if err != nil {
		return toolerr.Filesystem("read git config in", string(dir), err)
	}
	remote, ok := cfg.Remotes[RemoteName]
	if !ok {
		remote = &config.RemoteConfig{
			Name:  RemoteName,
			Fetch: []config.RefSpec{config.RefSpec(fmt.Sprintf(config.DefaultFetchRefSpec, RemoteName))},
		}
		cfg.Remotes[RemoteName] = remote
	}
	remote.URLs = []string{string(url)}
	if err := repo.Storer.SetConfig(cfg); err != nil {
		return toolerr.Filesystem("write git config in", string(dir), err)
	}
	return nil
}

func (g *GoGit) open(dir types.FilesystemPath) (*git.Repository, error) {
	repo, err := git.PlainOpen(string(dir))
	if err != nil {
		return nil, toolerr.Filesystem("open repository", string(dir), err)
	}
	return repo, nil
}

func (g *GoGit) remoteURL(repo *git.Repository, dir types.FilesystemPath) (depspec.GitURL, error) {
	remote, err := repo.Remote(RemoteName)
	if err != nil {
		return "", toolerr.Filesystem("look up remote "+RemoteName+" in", string(dir), err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", &toolerr.FilesystemError{Op: "remote " + RemoteName + " has no URL in", Path: string(dir)}
	}
	return depspec.GitURL(urls[0]), nil
}

// resolveCommit expands commit to a full hash present in the object store.
// Abbreviated hashes are matched by prefix against every local commit.
func resolveCommit(repo *git.Repository, commit depspec.GitCommit) (plumbing.Hash, error) {
	if commit.IsFull() {
		hash := plumbing.NewHash(string(commit))
		if _, err := repo.CommitObject(hash); err != nil {
			return plumbing.ZeroHash, err
		}
		return hash, nil
	}

	iter, err := repo.CommitObjects()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	defer iter.Close()

	var matches []plumbing.Hash
	err = iter.ForEach(func(c *object.Commit) error {
		if strings.HasPrefix(c.Hash.String(), string(commit)) {
			matches = append(matches, c.Hash)
		}
		return nil
	})
	if err != nil {
		return plumbing.ZeroHash, err
	}

	switch len(matches) {
	case 0:
		return plumbing.ZeroHash, plumbing.ErrObjectNotFound
	case 1:
		return matches[0], nil
	default:
		return plumbing.ZeroHash, fmt.Errorf("%w: %s matches %d commits", errAmbiguousCommit, commit, len(matches))
	}
}

func branchRefSpec(branch depspec.Branch) config.RefSpec {
	return config.RefSpec(fmt.Sprintf("+refs/heads/%[1]s:refs/remotes/%[2]s/%[1]s", branch, RemoteName))
}

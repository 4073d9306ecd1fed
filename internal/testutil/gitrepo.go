// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GitRepo is a local non-bare repository used as a clone source in tests.
// Its Dir is an absolute path, which both vcs backends accept as a URL.
type GitRepo struct {
	Dir  string
	repo *git.Repository
	when time.Time
}

// NewGitRepo initializes an empty repository in a fresh temporary directory.
func NewGitRepo(t testing.TB) *GitRepo {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "upstream")
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("failed to init repository: %v", err)
	}
	return &GitRepo{
		Dir:  dir,
		repo: repo,
		when: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// OpenGitRepo wraps an existing working copy, such as a clone made by the
// code under test.
func OpenGitRepo(t testing.TB, dir string) *GitRepo {
	t.Helper()
	repo, err := git.PlainOpen(dir)
	if err != nil {
		t.Fatalf("failed to open repository %s: %v", dir, err)
	}
	return &GitRepo{
		Dir:  dir,
		repo: repo,
		when: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Commit writes files (path -> content) to the worktree, stages them and
// commits on the current branch. It returns the full commit hash.
func (r *GitRepo) Commit(t testing.TB, message string, files map[string]string) string {
	t.Helper()
	wt, err := r.repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}
	for name, content := range files {
		path := filepath.Join(r.Dir, name)
		MustMkdirAll(t, filepath.Dir(path), 0o755)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
		if _, err := wt.Add(name); err != nil {
			t.Fatalf("failed to stage %s: %v", name, err)
		}
	}

	r.when = r.when.Add(time.Minute)
	hash, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: "extdeps test", Email: "test@extdeps.invalid", When: r.when},
	})
	if err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
	return hash.String()
}

// Branch creates branch at HEAD and switches the worktree to it.
func (r *GitRepo) Branch(t testing.TB, name string) {
	t.Helper()
	r.checkout(t, name, true)
}

// Switch moves the worktree to an existing branch.
func (r *GitRepo) Switch(t testing.TB, name string) {
	t.Helper()
	r.checkout(t, name, false)
}

// DefaultBranch returns the short name of the branch the repository was initialized with.
func (r *GitRepo) DefaultBranch() string {
	return plumbing.Master.Short()
}

func (r *GitRepo) checkout(t testing.TB, name string, create bool) {
	t.Helper()
	wt, err := r.repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(name),
		Create: create,
	}); err != nil {
		t.Fatalf("failed to check out branch %s: %v", name, err)
	}
}

// HeadCommit returns the full hash HEAD of the working copy at dir points to.
func HeadCommit(t testing.TB, dir string) string {
	t.Helper()
	repo, err := git.PlainOpen(dir)
	if err != nil {
		t.Fatalf("failed to open repository %s: %v", dir, err)
	}
	head, err := repo.Head()
	if err != nil {
		t.Fatalf("failed to resolve HEAD in %s: %v", dir, err)
	}
	return head.Hash().String()
}

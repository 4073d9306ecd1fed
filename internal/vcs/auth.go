// SPDX-License-Identifier: MPL-2.0

package vcs

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"github.com/extdeps/extdeps/pkg/depspec"
)

type (
	// tokenSource maps an environment variable to the HTTP basic-auth user
	// the hosting service expects alongside the token.
	tokenSource struct {
		envVar   string
		username string
	}

	// authResolver picks credentials per URL. Lookups are injectable for tests.
	authResolver struct {
		getenv  func(string) string
		homeDir func() (string, error)
	}
)

var tokenSources = []tokenSource{
	{envVar: "GITHUB_TOKEN", username: "x-access-token"},
	{envVar: "GITLAB_TOKEN", username: "gitlab-ci-token"},
	{envVar: "GIT_TOKEN", username: "git"},
}

func defaultAuthResolver() authResolver {
	return authResolver{getenv: os.Getenv, homeDir: os.UserHomeDir}
}

// authFor returns the credentials for url, or nil for anonymous access.
// SSH URLs use the ssh-agent when SSH_AUTH_SOCK is set and otherwise the
// first readable key in ~/.ssh. HTTP(S) URLs use the first token found in
// GITHUB_TOKEN, GITLAB_TOKEN or GIT_TOKEN.
func (r authResolver) authFor(url depspec.GitURL) transport.AuthMethod {
	switch {
	case url.IsSSH():
		return r.sshAuth()
	case strings.HasPrefix(string(url), "https://"), strings.HasPrefix(string(url), "http://"):
		return r.httpAuth()
	default:
		return nil
	}
}

func (r authResolver) sshAuth() transport.AuthMethod {
	if r.getenv("SSH_AUTH_SOCK") != "" {
		auth, err := ssh.NewSSHAgentAuth("git")
		if err == nil {
			return auth
		}
		slog.Debug("ssh-agent unavailable, falling back to key files", "error", err)
	}

	home, err := r.homeDir()
	if err != nil {
		return nil
	}
	for _, name := range []string{"id_ed25519", "id_rsa", "id_ecdsa"} {
		keyPath := filepath.Join(home, ".ssh", name)
		if _, err := os.Stat(keyPath); err != nil {
			continue
		}
		auth, err := ssh.NewPublicKeysFromFile("git", keyPath, "")
		if err != nil {
			slog.Debug("skipping unusable ssh key", "path", keyPath, "error", err)
			continue
		}
		return auth
	}
	return nil
}

func (r authResolver) httpAuth() transport.AuthMethod {
	for _, src := range tokenSources {
		if token := r.getenv(src.envVar); token != "" {
			return &http.BasicAuth{Username: src.username, Password: token}
		}
	}
	return nil
}

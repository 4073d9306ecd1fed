// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"log/slog"

	"github.com/extdeps/extdeps/internal/shell"
)

// RunHook runs a post_checkout script inside the checkout described by res.
// The script sees EXTDEPS_DEP_NAME, EXTDEPS_DEP_COMMIT and EXTDEPS_DEP_PATH.
// An empty script is a no-op.
func (p *Provisioner) RunHook(ctx context.Context, res *Result, script string) error {
	if script == "" {
		return nil
	}

	slog.Debug("running post_checkout hook", "name", res.Name, "path", res.TargetPath)
	err := shell.Run(ctx, script, shell.Options{
		Name: "post_checkout",
		Dir:  string(res.TargetPath),
		Env: []string{
			"EXTDEPS_DEP_NAME=" + string(res.Name),
			"EXTDEPS_DEP_COMMIT=" + string(res.Commit),
			"EXTDEPS_DEP_PATH=" + string(res.TargetPath),
		},
		Stdout: p.cfg.HookStdout,
		Stderr: p.cfg.HookStderr,
	})
	if err != nil {
		return &Error{Name: res.Name, Err: err}
	}
	return nil
}

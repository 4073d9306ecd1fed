// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/extdeps/extdeps/internal/issue"
	"github.com/extdeps/extdeps/internal/provision"
	"github.com/extdeps/extdeps/pkg/depspec"
	"github.com/extdeps/extdeps/pkg/types"

	"github.com/spf13/cobra"
)

// newCheckoutCommand creates the `extdeps checkout` command.
func newCheckoutCommand(app *App) *cobra.Command {
	var (
		branch string
		path   string
	)

	cmd := &cobra.Command{
		Use:   "checkout <name> <git-url> <commit>",
		Short: "Check out a single repository at a commit without a manifest",
		Long: `Ensure a repository is checked out at a pinned commit. The checkout goes to
--path, or to <external_libs>/<name> when --path is not given. Running it
again with the same commit does nothing; a different commit moves the
existing checkout.`,
		Example: `  extdeps checkout util_dmx https://github.com/Silverlan/util_dmx.git 377524efcadcfe67a060b5e029191f975e676376`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := app.withTimeout(cmd.Context())
			defer cancel()

			cfg, err := app.loadConfig(ctx)
			if err != nil {
				return classifyExit(err)
			}

			dep := depspec.Dependency{
				Name:   depspec.DependencyName(args[0]),
				GitURL: depspec.GitURL(args[1]),
				Commit: depspec.GitCommit(args[2]),
				Branch: depspec.Branch(branch),
				Path:   path,
			}
			desc, err := dep.Descriptor(cfg.Locations.Locations())
			if err != nil {
				return usageError(err)
			}

			tc, err := app.Toolchain(cfg, app.stdout, app.stderr)
			if err != nil {
				return usageError(err)
			}
			res, err := provision.New(tc.VCS, app.provisionOptions(cfg)...).EnsureCheckedOut(ctx, desc)
			if err != nil {
				return explainProvisionError(err)
			}

			if handled, err := writeStructured(app.stdout, cfg.UI.Output, res); handled {
				return err
			}
			fmt.Fprintf(app.stdout, "%s %s at %s in %s\n",
				actionStyles[res.Action.String()].Render(res.Action.String()),
				CmdStyle.Render(string(res.Name)),
				res.Commit.Short(),
				SubtitleStyle.Render(string(res.TargetPath)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&branch, "branch", "b", "", "branch to fetch the commit from")
	cmd.Flags().StringVarP(&path, "path", "p", "", "checkout directory (absolute, or relative to external_libs)")
	return cmd
}

// checkoutTarget is shared with status to describe where a dependency lives.
func checkoutTarget(dep depspec.Dependency, locs depspec.Locations) (types.FilesystemPath, error) {
	target, err := dep.TargetPath(locs)
	if err != nil {
		return "", issue.Classify(err, "resolve checkout path for "+string(dep.Name), "")
	}
	return target, nil
}

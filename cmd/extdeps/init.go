// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/extdeps/extdeps/internal/issue"
	"github.com/extdeps/extdeps/pkg/depspec"

	"github.com/spf13/cobra"
)

// newInitCommand creates the `extdeps init` command.
func newInitCommand(app *App) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter extdeps.cue manifest",
		Long: `Create a starter extdeps.cue manifest in the current directory
(or at the --manifest path). The starter declares one example dependency
and the three location defines most CMake projects need.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(app, force)
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing manifest")
	return cmd
}

func runInit(app *App, force bool) error {
	path := app.manifestPath()

	if _, err := os.Stat(path); err == nil && !force {
		return usageError(issue.NewErrorContext().
			WithOperation("create manifest").
			WithResource(path).
			WithSuggestion("Use --force to overwrite it").
			Wrap(errors.New("file already exists")).
			BuildError())
	}

	if err := os.WriteFile(path, []byte(depspec.SkeletonManifest), 0o644); err != nil {
		return issue.Wrap(err, "create manifest", path)
	}

	fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("Created"), CmdStyle.Render(path))
	fmt.Fprintln(app.stdout, SubtitleStyle.Render("Edit the dependencies, then run 'extdeps provision'."))
	return nil
}

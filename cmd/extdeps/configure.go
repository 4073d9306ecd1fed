// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"path/filepath"

	"github.com/extdeps/extdeps/internal/issue"
	"github.com/extdeps/extdeps/internal/pipeline"

	"github.com/spf13/cobra"
)

// newConfigureCommand creates the `extdeps configure` command.
func newConfigureCommand(app *App) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Run the generator without touching dependency checkouts",
		Long: `Build the -D flags and targets from the manifest and run the generator
once. Dependencies are not cloned or fetched, so this is useful after
'extdeps provision --no-generate' or when only defines changed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := app.withTimeout(cmd.Context())
			defer cancel()

			cfg, err := app.loadConfig(ctx)
			if err != nil {
				return classifyExit(err)
			}
			if dryRun {
				cfg.Generator.DryRun = true
			}
			m, err := app.loadManifest()
			if err != nil {
				return classifyExit(err)
			}
			buildCfg, err := pipeline.Configure(m, cfg.Locations.Locations())
			if err != nil {
				return classifyExit(issue.Classify(err, "build generator configuration", app.manifestPath()))
			}
			tc, err := app.Toolchain(cfg, app.stdout, app.stderr)
			if err != nil {
				return usageError(err)
			}

			manifestDir, err := filepath.Abs(filepath.Dir(app.manifestPath()))
			if err != nil {
				return err
			}
			inv := pipeline.Invocation(m, buildCfg, manifestDir)
			return issue.Classify(tc.Generator.InvokeGenerator(ctx, inv), "invoke generator", string(inv.BuildDir))
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the generator commands instead of running them")
	return cmd
}

// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/extdeps/extdeps/internal/config"
	"github.com/extdeps/extdeps/internal/issue"
	"github.com/extdeps/extdeps/internal/pipeline"
	"github.com/extdeps/extdeps/internal/provision"
	"github.com/extdeps/extdeps/pkg/depspec"

	"github.com/spf13/cobra"
)

type (
	provisionFlags struct {
		noGenerate bool
		noHooks    bool
		noLock     bool
		dryRun     bool
	}

	// provisionOutput is the json/yaml shape of a provision run.
	provisionOutput struct {
		Dependencies []*provision.Result      `json:"dependencies" yaml:"dependencies"`
		Flags        []string                 `json:"flags" yaml:"flags"`
		Targets      []string                 `json:"targets" yaml:"targets"`
		Generated    bool                     `json:"generated" yaml:"generated"`
		Pruned       []depspec.DependencyName `json:"pruned,omitempty" yaml:"pruned,omitempty"`
	}
)

// newProvisionCommand creates the `extdeps provision` command.
func newProvisionCommand(app *App) *cobra.Command {
	var flags provisionFlags

	cmd := &cobra.Command{
		Use:   "provision [name...]",
		Short: "Check out dependencies at their pinned commits and run the generator",
		Long: `Check out every dependency in the manifest at its pinned commit, in
manifest order, then run the generator once with the accumulated -D flags
and targets. The first failure stops the run.

Naming dependencies provisions only those and skips the generator.
Results are recorded in extdeps.lock.toml next to the manifest.`,
		ValidArgsFunction: completeDependencyNames(app),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProvision(cmd, app, args, flags)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&flags.noGenerate, "no-generate", false, "do not run the generator")
	f.BoolVar(&flags.noHooks, "no-hooks", false, "do not run post_checkout hooks")
	f.BoolVar(&flags.noLock, "no-lock", false, "do not read or write the lock file")
	f.BoolVar(&flags.dryRun, "dry-run", false, "print the generator commands instead of running them")
	return cmd
}

func runProvision(cmd *cobra.Command, app *App, args []string, flags provisionFlags) error {
	ctx, cancel := app.withTimeout(cmd.Context())
	defer cancel()
	return provisionOnce(ctx, app, args, flags)
}

// provisionOnce loads configuration and manifest afresh and runs the pipeline.
func provisionOnce(ctx context.Context, app *App, args []string, flags provisionFlags) error {

	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return classifyExit(err)
	}
	if flags.dryRun {
		cfg.Generator.DryRun = true
	}
	m, err := app.loadManifest()
	if err != nil {
		return classifyExit(err)
	}
	tc, err := app.Toolchain(cfg, app.stdout, app.stderr)
	if err != nil {
		return usageError(err)
	}

	manifestDir, err := filepath.Abs(filepath.Dir(app.manifestPath()))
	if err != nil {
		return err
	}
	opts := pipeline.Options{
		Only:         dependencyNames(args),
		SkipGenerate: flags.noGenerate,
		SkipHooks:    flags.noHooks,
		BaseDir:      manifestDir,
		Provision:    app.provisionOptions(cfg),
	}
	if !flags.noLock {
		opts.LockPath = filepath.Join(manifestDir, provision.LockFileName)
	}

	report, runErr := pipeline.Run(ctx, tc, m, cfg.Locations.Locations(), opts)
	if report != nil {
		if err := printProvisionReport(app.stdout, cfg.UI.Output, report); err != nil {
			return err
		}
	}
	return classifyExit(explainProvisionError(runErr))
}

// explainProvisionError attaches suggestions to a pipeline failure.
func explainProvisionError(err error) error {
	if err == nil {
		return nil
	}
	var perr *provision.Error
	if errors.As(err, &perr) {
		return issue.Classify(perr.Err, "provision dependency "+string(perr.Name), "")
	}
	return issue.Classify(err, "provision dependencies", "")
}

func printProvisionReport(w io.Writer, format config.OutputFormat, report *pipeline.Report) error {
	out := provisionOutput{
		Dependencies: report.Results,
		Flags:        report.Config.Flags(),
		Targets:      report.Config.Targets(),
		Generated:    report.Generated,
		Pruned:       report.Pruned,
	}
	if out.Dependencies == nil {
		out.Dependencies = []*provision.Result{}
	}
	if handled, err := writeStructured(w, format, out); handled {
		return err
	}

	for _, res := range report.Results {
		style, ok := actionStyles[res.Action.String()]
		if !ok {
			style = SubtitleStyle
		}
		fmt.Fprintf(w, "%-10s %s %s %s\n",
			style.Render(res.Action.String()),
			CmdStyle.Render(string(res.Name)),
			res.Commit.Short(),
			SubtitleStyle.Render(string(res.TargetPath)))
	}
	for _, name := range report.Pruned {
		fmt.Fprintf(w, "%-10s %s\n", WarningStyle.Render("unlocked"), name)
	}
	if report.Generated {
		fmt.Fprintln(w, SuccessStyle.Render("Generator finished"))
	}
	return nil
}

func dependencyNames(args []string) []depspec.DependencyName {
	if len(args) == 0 {
		return nil
	}
	names := make([]depspec.DependencyName, len(args))
	for i, a := range args {
		names[i] = depspec.DependencyName(a)
	}
	return names
}

// completeDependencyNames offers manifest dependency names for completion.
func completeDependencyNames(app *App) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		m, err := app.loadManifest()
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		var names []string
		for _, dep := range m.Dependencies {
			names = append(names, string(dep.Name))
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	}
}

// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strconv"

	"github.com/extdeps/extdeps/internal/config"
	"github.com/extdeps/extdeps/internal/issue"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `extdeps config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage extdeps configuration",
		Long: `Manage extdeps configuration.

Configuration is stored in:
  - Linux: ~/.config/extdeps/config.cue
  - macOS: ~/Library/Application Support/extdeps/config.cue
  - Windows: %APPDATA%\extdeps\config.cue

A project-local extdeps.config.cue next to the manifest is used when no
user configuration exists. EXTDEPS_* variables and EXTERNAL_LIBS_DIR,
EXTERNAL_LIBS_BIN_DIR and THIRD_PARTY_LIBS_DIR override file values.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var asCUE bool
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd, app, asCUE)
		},
	}
	showCmd.Flags().BoolVar(&asCUE, "cue", false, "print the configuration as CUE")

	cfgCmd.AddCommand(showCmd, &cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, created, err := config.CreateDefaultConfig("")
			if err != nil {
				return issue.Wrap(err, "create configuration file", "")
			}
			if !created {
				fmt.Fprintf(app.stdout, "%s %s\n", WarningStyle.Render("Config already exists:"), path)
				return nil
			}
			fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("Created"), CmdStyle.Render(path))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(cmd *cobra.Command, app *App, asCUE bool) error {
	cfg, err := app.loadConfig(cmd.Context())
	if err != nil {
		if guide := issue.Get(issue.ConfigLoadFailedId); guide != nil {
			if rendered, renderErr := guide.Render("auto"); renderErr == nil {
				fmt.Fprint(app.stderr, rendered)
			}
		}
		return classifyExit(err)
	}

	if asCUE {
		fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
		return nil
	}
	if handled, err := writeStructured(app.stdout, cfg.UI.Output, cfg); handled {
		return err
	}

	w := app.stdout
	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	if cfg.SourcePath != "" {
		printKV(w, "config file", cfg.SourcePath)
	} else {
		printKV(w, "config file", SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(w)
	printKV(w, "git.backend", cfg.Git.Backend.String())
	printKV(w, "git.binary", cfg.Git.Binary.String())
	printKV(w, "git.depth", strconv.Itoa(cfg.Git.Depth))
	printKV(w, "generator.binary", cfg.Generator.Binary.String())
	printKV(w, "generator.runtime", cfg.Generator.Runtime.String())
	printKV(w, "generator.dry_run", strconv.FormatBool(cfg.Generator.DryRun))
	printKV(w, "external_libs", orNone(cfg.Locations.ExternalLibs))
	printKV(w, "external_libs_bin", orNone(cfg.Locations.ExternalLibsBin))
	printKV(w, "third_party_libs", orNone(cfg.Locations.ThirdPartyLibs))
	printKV(w, "ui.color_scheme", cfg.UI.ColorScheme.String())
	printKV(w, "ui.verbose", strconv.FormatBool(cfg.UI.Verbose))
	printKV(w, "ui.output", cfg.UI.Output.String())
	return nil
}

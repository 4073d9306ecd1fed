// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for extdeps.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/extdeps/extdeps/internal/logging"
	"github.com/extdeps/extdeps/pkg/types"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "extdeps",
		Short: "Provision pinned git dependencies and configure the build",
		Long: TitleStyle.Render("extdeps") + SubtitleStyle.Render(" - pinned external dependencies for CMake builds") + `

extdeps checks out each dependency listed in extdeps.cue at its pinned
commit, collects the -D flags and extra targets the dependencies need,
and runs the build-system generator once with all of them.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Create a manifest:           extdeps init
  2. Export the build locations:  export EXTERNAL_LIBS_DIR=$PWD/external_libs
  3. Provision and configure:     extdeps provision

` + SubtitleStyle.Render("Examples:") + `
  extdeps provision               Check out everything and run cmake
  extdeps provision util_dmx      Check out one dependency only
  extdeps flags                   Print the accumulated -D flags
  extdeps status                  Compare checkouts with the manifest`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.Setup(app.stderr, logging.Options{Verbose: app.flags.verbose, Prefix: "extdeps"})
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable verbose output")
	pf.StringVar(&app.flags.config, "config", "", "config file (default is $XDG_CONFIG_HOME/extdeps/config.cue)")
	pf.StringVarP(&app.flags.manifest, "manifest", "m", "", "manifest file (default is ./extdeps.cue)")
	pf.StringVarP(&app.flags.output, "output", "o", "", "output format: text, json or yaml")
	pf.DurationVar(&app.flags.timeout, "timeout", 0, "abort after this long (0 disables)")

	rootCmd.AddCommand(
		newInitCommand(app),
		newProvisionCommand(app),
		newWatchCommand(app),
		newCheckoutCommand(app),
		newConfigureCommand(app),
		newFlagsCommand(app),
		newStatusCommand(app),
		newListCommand(app),
		newConfigCommand(app),
		newCompletionCommand(),
	)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits with the command's status.
// This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	rootCmd := NewRootCommand(app)

	// fang overrides rootCmd.Version, so pass it through fang.WithVersion.
	err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, _ fang.Styles, err error) {
			fmt.Fprintln(w, formatErrorForDisplay(err, app.flags.verbose))
		}),
	)
	os.Exit(int(exitCodeFor(err)))
}

// exitCodeFor maps an error to the process exit status.
func exitCodeFor(err error) types.ExitCode {
	if err == nil {
		return types.ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Code.Validate() == nil && !exitErr.Code.IsSuccess() {
		return exitErr.Code
	}
	return types.ExitFailure
}

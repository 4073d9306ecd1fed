// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/extdeps/extdeps/internal/issue"
	"github.com/extdeps/extdeps/internal/pipeline"
	"github.com/extdeps/extdeps/internal/shell"

	"github.com/spf13/cobra"
)

// flagsOutput is the json/yaml shape of `extdeps flags`.
type flagsOutput struct {
	Flags   []string `json:"flags" yaml:"flags"`
	Targets []string `json:"targets" yaml:"targets"`
}

// newFlagsCommand creates the `extdeps flags` command.
func newFlagsCommand(app *App) *cobra.Command {
	var shellQuoted bool

	cmd := &cobra.Command{
		Use:   "flags",
		Short: "Print the accumulated generator flags and targets",
		Long: `Print the -D flags and extra targets the manifest contributes, in the
order they are passed to the generator. Nothing is cloned or run.

With --shell the flags are printed on one line, quoted for a POSIX shell:

  cmake -S . -B build $(extdeps flags --shell)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return classifyExit(err)
			}
			m, err := app.loadManifest()
			if err != nil {
				return classifyExit(err)
			}
			buildCfg, err := pipeline.Configure(m, cfg.Locations.Locations())
			if err != nil {
				return classifyExit(issue.Classify(err, "build generator configuration", app.manifestPath()))
			}

			out := flagsOutput{Flags: buildCfg.Flags(), Targets: buildCfg.Targets()}
			if shellQuoted {
				fmt.Fprintln(app.stdout, shell.Quote(out.Flags))
				return nil
			}
			if handled, err := writeStructured(app.stdout, cfg.UI.Output, out); handled {
				return err
			}
			for _, f := range out.Flags {
				fmt.Fprintln(app.stdout, f)
			}
			if len(out.Targets) > 0 {
				fmt.Fprintf(app.stdout, "%s %s\n", SubtitleStyle.Render("targets:"), strings.Join(out.Targets, " "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&shellQuoted, "shell", false, "print flags on one shell-quoted line")
	return cmd
}

// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/extdeps/extdeps/pkg/depspec"
	"github.com/extdeps/extdeps/pkg/types"

	"github.com/spf13/cobra"
)

// listEntry is the json/yaml shape of one `extdeps list` row.
type listEntry struct {
	Name    depspec.DependencyName `json:"name" yaml:"name"`
	GitURL  depspec.GitURL         `json:"git_url" yaml:"git_url"`
	Commit  depspec.GitCommit      `json:"commit" yaml:"commit"`
	Branch  depspec.Branch         `json:"branch,omitempty" yaml:"branch,omitempty"`
	Path    types.FilesystemPath   `json:"path,omitempty" yaml:"path,omitempty"`
	Targets []string               `json:"targets,omitempty" yaml:"targets,omitempty"`
}

// newListCommand creates the `extdeps list` command.
func newListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the dependencies declared in the manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return classifyExit(err)
			}
			m, err := app.loadManifest()
			if err != nil {
				return classifyExit(err)
			}

			locs := cfg.Locations.Locations()
			entries := make([]listEntry, 0, len(m.Dependencies))
			for _, dep := range m.Dependencies {
				entry := listEntry{
					Name:    dep.Name,
					GitURL:  dep.GitURL,
					Commit:  dep.Commit,
					Branch:  dep.Branch,
					Targets: dep.Targets,
				}
				// The path is informational; an unset location is not an error here.
				if target, err := dep.TargetPath(locs); err == nil {
					entry.Path = target
				}
				entries = append(entries, entry)
			}

			if handled, err := writeStructured(app.stdout, cfg.UI.Output, entries); handled {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(app.stdout, SubtitleStyle.Render("No dependencies declared."))
				return nil
			}
			for _, e := range entries {
				ref := e.Commit.Short()
				if e.Branch != "" {
					ref += " (" + string(e.Branch) + ")"
				}
				fmt.Fprintf(app.stdout, "%s %s %s\n", CmdStyle.Render(string(e.Name)), ref, SubtitleStyle.Render(string(e.GitURL)))
				if e.Path != "" {
					printKV(app.stdout, "  path", string(e.Path))
				}
				if len(e.Targets) > 0 {
					printKV(app.stdout, "  targets", strings.Join(e.Targets, ", "))
				}
			}
			return nil
		},
	}
}

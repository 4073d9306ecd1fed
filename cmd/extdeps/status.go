// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/extdeps/extdeps/internal/provision"
	"github.com/extdeps/extdeps/internal/vcs"
	"github.com/extdeps/extdeps/pkg/depspec"
	"github.com/extdeps/extdeps/pkg/types"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

const (
	stateOK          checkoutState = "ok"
	stateMissing     checkoutState = "missing"
	stateDrift       checkoutState = "drift"
	stateNotCheckout checkoutState = "not-a-checkout"
)

type (
	// checkoutState summarizes one dependency's checkout.
	checkoutState string

	// statusEntry is one row of `extdeps status`.
	statusEntry struct {
		Name   depspec.DependencyName `json:"name" yaml:"name"`
		Path   types.FilesystemPath   `json:"path" yaml:"path"`
		Pinned depspec.GitCommit      `json:"pinned" yaml:"pinned"`
		Head   depspec.GitCommit      `json:"head,omitempty" yaml:"head,omitempty"`
		Locked depspec.GitCommit      `json:"locked,omitempty" yaml:"locked,omitempty"`
		State  checkoutState          `json:"state" yaml:"state"`
	}

	// statusOutput is the json/yaml shape of `extdeps status`.
	statusOutput struct {
		Dependencies []statusEntry `json:"dependencies" yaml:"dependencies"`
		// Staging lists leftover staging directories from interrupted clones.
		Staging []string `json:"staging,omitempty" yaml:"staging,omitempty"`
	}
)

// newStatusCommand creates the `extdeps status` command.
func newStatusCommand(app *App) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Compare dependency checkouts with the manifest and lock file",
		Long: `Show, for every dependency, where it is checked out, the pinned commit,
the commit HEAD points to and the commit recorded in the lock file.

With --check the command exits with status 1 when any checkout is missing
or not at its pinned commit, which suits CI gates.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := app.withTimeout(cmd.Context())
			defer cancel()

			cfg, err := app.loadConfig(ctx)
			if err != nil {
				return classifyExit(err)
			}
			m, err := app.loadManifest()
			if err != nil {
				return classifyExit(err)
			}
			tc, err := app.Toolchain(cfg, app.stdout, app.stderr)
			if err != nil {
				return usageError(err)
			}
			lock, err := provision.LoadLockFile(filepath.Join(filepath.Dir(app.manifestPath()), provision.LockFileName))
			if err != nil {
				return err
			}

			out, err := collectStatus(ctx, tc.VCS, m, cfg.Locations.Locations(), lock)
			if err != nil {
				return classifyExit(err)
			}
			if handled, err := writeStructured(app.stdout, cfg.UI.Output, out); !handled {
				printStatus(app.stdout, out)
			} else if err != nil {
				return err
			}

			if check && slices.ContainsFunc(out.Dependencies, func(e statusEntry) bool { return e.State != stateOK }) {
				return &ExitError{Code: types.ExitFailure, Err: errors.New("dependencies are not at their pinned commits")}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "exit with status 1 unless every checkout is at its pinned commit")
	return cmd
}

func collectStatus(ctx context.Context, client vcs.Client, m *depspec.Manifest, locs depspec.Locations, lock *provision.LockFile) (statusOutput, error) {
	out := statusOutput{Dependencies: make([]statusEntry, 0, len(m.Dependencies))}
	parents := map[string]bool{}

	for _, dep := range m.Dependencies {
		target, err := checkoutTarget(dep, locs)
		if err != nil {
			return statusOutput{}, err
		}
		parents[filepath.Dir(string(target))] = true

		entry := statusEntry{Name: dep.Name, Path: target, Pinned: dep.Commit}
		if locked, ok := lock.Lookup(dep.Name); ok {
			entry.Locked = locked.Commit
		}
		entry.State, entry.Head = inspectCheckout(ctx, client, target, dep.Commit)
		out.Dependencies = append(out.Dependencies, entry)
	}

	for dir := range parents {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() && provision.IsStagingDir(e.Name()) {
				out.Staging = append(out.Staging, filepath.Join(dir, e.Name()))
			}
		}
	}
	slices.Sort(out.Staging)
	return out, nil
}

func inspectCheckout(ctx context.Context, client vcs.Client, target types.FilesystemPath, pinned depspec.GitCommit) (checkoutState, depspec.GitCommit) {
	if _, err := os.Stat(string(target)); errors.Is(err, os.ErrNotExist) {
		return stateMissing, ""
	}
	head, err := client.HeadCommit(ctx, target)
	if err != nil {
		return stateNotCheckout, ""
	}
	if !head.Matches(pinned) {
		return stateDrift, head
	}
	return stateOK, head
}

func printStatus(w io.Writer, out statusOutput) {
	styles := map[checkoutState]lipgloss.Style{
		stateOK:          SuccessStyle,
		stateMissing:     WarningStyle,
		stateDrift:       WarningStyle,
		stateNotCheckout: ErrorStyle,
	}
	for _, e := range out.Dependencies {
		fmt.Fprintf(w, "%s %s\n", styles[e.State].Render(fmt.Sprintf("%-15s", e.State)), CmdStyle.Render(string(e.Name)))
		printKV(w, "  path", string(e.Path))
		printKV(w, "  pinned", e.Pinned.Short())
		printKV(w, "  head", orNone(e.Head.Short()))
		printKV(w, "  locked", orNone(e.Locked.Short()))
	}
	for _, dir := range out.Staging {
		fmt.Fprintf(w, "%s %s\n", WarningStyle.Render("leftover staging directory:"), dir)
	}
}

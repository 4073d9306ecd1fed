// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/extdeps/extdeps/internal/config"
	"github.com/extdeps/extdeps/internal/watch"

	"github.com/spf13/cobra"
)

// newWatchCommand creates the `extdeps watch` command.
func newWatchCommand(app *App) *cobra.Command {
	var (
		flags    provisionFlags
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Provision again whenever the manifest or local config changes",
		Long: `Run 'extdeps provision' once, then again every time the manifest or the
project-local extdeps.config.cue next to it is saved. Bumping a pinned
commit in the manifest moves the checkout and re-runs the generator.

A failed run is reported and the command keeps watching. Stop it with Ctrl+C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), app, flags, debounce)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&flags.noGenerate, "no-generate", false, "do not run the generator")
	f.BoolVar(&flags.noHooks, "no-hooks", false, "do not run post_checkout hooks")
	f.BoolVar(&flags.noLock, "no-lock", false, "do not read or write the lock file")
	f.DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before a change triggers a run")
	return cmd
}

func runWatch(ctx context.Context, app *App, flags provisionFlags, debounce time.Duration) error {
	manifest := app.manifestPath()

	// Config errors are fatal before the first run, not inside the loop.
	if _, err := app.loadConfig(ctx); err != nil {
		return classifyExit(err)
	}

	run := func(ctx context.Context) {
		runCtx, cancel := app.withTimeout(ctx)
		defer cancel()
		if err := provisionOnce(runCtx, app, nil, flags); err != nil {
			fmt.Fprintln(app.stderr, formatErrorForDisplay(err, app.flags.verbose))
		}
	}

	w, err := watch.New(watch.Config{
		Dir:      filepath.Dir(manifest),
		Patterns: []string{filepath.Base(manifest), config.LocalConfigFileName},
		Debounce: debounce,
		Stderr:   app.stderr,
		OnChange: func(ctx context.Context, changed []string) error {
			fmt.Fprintf(app.stdout, "%s %s\n", SubtitleStyle.Render("changed:"), strings.Join(changed, ", "))
			run(ctx)
			return nil
		},
	})
	if err != nil {
		return err
	}

	run(ctx)
	fmt.Fprintf(app.stdout, "%s %s\n", SubtitleStyle.Render("watching"), w.Dir())
	return w.Run(ctx)
}

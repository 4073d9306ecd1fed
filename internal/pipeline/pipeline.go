// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/extdeps/extdeps/internal/generator"
	"github.com/extdeps/extdeps/internal/provision"
	"github.com/extdeps/extdeps/internal/vcs"
	"github.com/extdeps/extdeps/pkg/buildconf"
	"github.com/extdeps/extdeps/pkg/depspec"
	"github.com/extdeps/extdeps/pkg/types"
)

type (
	// Toolchain bundles the external tools a run needs.
	Toolchain struct {
		VCS       vcs.Client
		Generator generator.Generator
	}

	// Options control a Run.
	Options struct {
		// Only restricts provisioning to the named dependencies. The
		// generator is not invoked for a partial run.
		Only []depspec.DependencyName
		// SkipGenerate disables the generator invocation.
		SkipGenerate bool
		// SkipHooks disables post_checkout hooks.
		SkipHooks bool
		// BaseDir resolves relative generator directories; usually the
		// manifest's directory.
		BaseDir string
		// LockPath is where the lock file is written; empty disables it.
		LockPath string
		// Provision configures the provisioner.
		Provision []provision.Option
		// Now returns the current time for lock timestamps.
		Now func() time.Time
	}

	// Report summarizes a Run.
	Report struct {
		Results []*provision.Result
		// Config is the accumulated generator configuration.
		Config buildconf.Config
		// Generated is true when the generator ran.
		Generated bool
		// Pruned lists lock entries removed because they left the manifest.
		Pruned []depspec.DependencyName
	}
)

// Run provisions the manifest's dependencies in order and then invokes the
// generator once. The first failure aborts the run; dependencies provisioned
// before it stay checked out and are recorded in the lock file.
func Run(ctx context.Context, tc Toolchain, m *depspec.Manifest, locs depspec.Locations, opts Options) (report *Report, err error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	deps, err := m.Select(opts.Only...)
	if err != nil {
		return nil, err
	}
	cfg, err := Configure(m, locs)
	if err != nil {
		return nil, err
	}

	var lock *provision.LockFile
	if opts.LockPath != "" {
		if lock, err = provision.LoadLockFile(opts.LockPath); err != nil {
			return nil, err
		}
	}

	report = &Report{Config: cfg}
	defer func() {
		if lock == nil {
			return
		}
		if len(opts.Only) == 0 && err == nil {
			report.Pruned = lock.Prune(dependencyNames(m))
		}
		if saveErr := lock.Save(opts.LockPath, now()); saveErr != nil && err == nil {
			err = saveErr
		}
	}()

	p := provision.New(tc.VCS, opts.Provision...)
	for _, dep := range deps {
		desc, err := dep.Descriptor(locs)
		if err != nil {
			return report, &provision.Error{Name: dep.Name, Err: err}
		}
		res, err := p.EnsureCheckedOut(ctx, desc)
		if err != nil {
			return report, err
		}
		if !opts.SkipHooks && res.Action.Changed() {
			if err := p.RunHook(ctx, res, dep.PostCheckout); err != nil {
				return report, err
			}
		}
		report.Results = append(report.Results, res)
		if lock != nil {
			lock.Record(desc, res, now())
		}
	}

	if opts.SkipGenerate || len(opts.Only) > 0 || tc.Generator == nil {
		return report, nil
	}

	inv := Invocation(m, cfg, opts.BaseDir)
	slog.Info("invoking generator", "source", inv.SourceDir, "build", inv.BuildDir,
		"flags", len(inv.Flags), "targets", len(inv.Targets))
	if err := tc.Generator.InvokeGenerator(ctx, inv); err != nil {
		return report, fmt.Errorf("generator failed: %w", err)
	}
	report.Generated = true
	return report, nil
}

// Invocation builds the generator invocation for m from an accumulated
// configuration. Relative directories are resolved against baseDir.
func Invocation(m *depspec.Manifest, cfg buildconf.Config, baseDir string) generator.Invocation {
	gs := m.GeneratorOrDefault()
	return generator.Invocation{
		SourceDir:    resolveDir(baseDir, gs.SourceDir),
		BuildDir:     resolveDir(baseDir, gs.BuildDir),
		Flags:        cfg.Flags(),
		Targets:      cfg.Targets(),
		Args:         gs.Args,
		GenerateOnly: gs.GenerateOnly,
	}
}

func resolveDir(base, dir string) types.FilesystemPath {
	if base == "" || filepath.IsAbs(dir) {
		return types.FilesystemPath(dir)
	}
	return types.FilesystemPath(filepath.Join(base, dir))
}

func dependencyNames(m *depspec.Manifest) []depspec.DependencyName {
	names := make([]depspec.DependencyName, 0, len(m.Dependencies))
	for _, d := range m.Dependencies {
		names = append(names, d.Name)
	}
	return names
}

// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/extdeps/extdeps/internal/config"
	"github.com/extdeps/extdeps/internal/generator"
	"github.com/extdeps/extdeps/internal/pipeline"
	"github.com/extdeps/extdeps/internal/provision"
	"github.com/extdeps/extdeps/internal/vcs"
	"github.com/extdeps/extdeps/pkg/depspec"
	"github.com/extdeps/extdeps/pkg/types"
)

type (
	// App wires CLI services and shared dependencies. It is the composition root
	// for the CLI layer; every Cobra handler receives an App reference.
	App struct {
		Config    ConfigProvider
		Toolchain ToolchainFactory
		stdout    io.Writer
		stderr    io.Writer
		flags     globalFlags
	}

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Config    ConfigProvider
		Toolchain ToolchainFactory
		Stdout    io.Writer
		Stderr    io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// ToolchainFactory builds the git client and generator for a configuration.
	ToolchainFactory func(cfg *config.Config, stdout, stderr io.Writer) (pipeline.Toolchain, error)

	// globalFlags are the persistent root flags.
	globalFlags struct {
		verbose  bool
		config   string
		manifest string
		output   string
		timeout  time.Duration
	}
)

// NewApp creates an App, filling nil dependencies with production defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config:    deps.Config,
		Toolchain: deps.Toolchain,
		stdout:    deps.Stdout,
		stderr:    deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.Toolchain == nil {
		app.Toolchain = DefaultToolchain
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

// DefaultToolchain builds the configured git backend and a CMake generator.
func DefaultToolchain(cfg *config.Config, stdout, stderr io.Writer) (pipeline.Toolchain, error) {
	client, err := vcs.New(vcs.Options{
		Backend:   vcs.Backend(cfg.Git.Backend),
		GitBinary: string(cfg.Git.Binary),
	})
	if err != nil {
		return pipeline.Toolchain{}, err
	}
	rt := generator.Runtime(cfg.Generator.Runtime)
	if err := rt.Validate(); err != nil {
		return pipeline.Toolchain{}, err
	}
	gen := generator.NewCMake(
		generator.WithBinary(string(cfg.Generator.Binary)),
		generator.WithRuntime(rt),
		generator.WithDryRun(cfg.Generator.DryRun),
		generator.WithOutput(stdout, stderr),
	)
	return pipeline.Toolchain{VCS: client, Generator: gen}, nil
}

// loadConfig loads configuration honoring --config and applies flag overrides.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	baseDir := filepath.Dir(a.manifestPath())
	cfg, err := a.Config.Load(ctx, config.LoadOptions{
		ConfigFilePath: types.FilesystemPath(a.flags.config),
		BaseDir:        types.FilesystemPath(baseDir),
	})
	if err != nil {
		return nil, err
	}
	if a.flags.verbose {
		cfg.UI.Verbose = true
	}
	if a.flags.output != "" {
		cfg.UI.Output = config.OutputFormat(a.flags.output)
		if valid, errs := cfg.UI.Output.IsValid(); !valid {
			return nil, usageError(errs[0])
		}
	}
	return cfg, nil
}

// manifestPath returns the --manifest path, defaulting to ./extdeps.cue.
func (a *App) manifestPath() string {
	if a.flags.manifest != "" {
		return a.flags.manifest
	}
	return depspec.ManifestFileName
}

// loadManifest reads the manifest named by --manifest.
func (a *App) loadManifest() (*depspec.Manifest, error) {
	return depspec.LoadManifest(a.manifestPath())
}

// provisionOptions maps configuration onto provisioner options.
func (a *App) provisionOptions(cfg *config.Config) []provision.Option {
	return []provision.Option{
		provision.WithCloneDepth(cfg.Git.Depth),
		provision.WithHookOutput(a.stdout, a.stderr),
	}
}

// withTimeout bounds ctx by --timeout when set.
func (a *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.flags.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.flags.timeout)
}

// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/extdeps/extdeps/internal/issue"
	"github.com/extdeps/extdeps/pkg/cueutil"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "extdeps"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// LocalConfigFileName is the project-local config file looked up in the
	// base directory when no user config exists.
	LocalConfigFileName = "extdeps.config.cue"
	// EnvPrefix prefixes automatic environment overrides, e.g. EXTDEPS_GIT_BACKEND.
	EnvPrefix = "EXTDEPS"
)

//go:embed config_schema.cue
var configSchema string

// locationEnv maps location keys to the environment variables build scripts
// already export for them.
var locationEnv = map[string]string{
	"locations.external_libs":     "EXTERNAL_LIBS_DIR",
	"locations.external_libs_bin": "EXTERNAL_LIBS_BIN_DIR",
	"locations.third_party_libs":  "THIRD_PARTY_LIBS_DIR",
}

// ConfigDir returns the extdeps configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range locationEnv {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	path, err := resolveConfigFile(opts)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("Run 'extdeps config show' to see the effective configuration").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.SourcePath = path

	// Environment overrides bypass the CUE schema, so validate the merged result.
	if valid, errs := cfg.IsValid(); !valid {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(path).
			WithSuggestion("Check EXTDEPS_* environment variables for typos").
			Wrap(errs[0]).
			BuildError()
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, defaults *Config) {
	v.SetDefault("git.backend", defaults.Git.Backend)
	v.SetDefault("git.binary", defaults.Git.Binary)
	v.SetDefault("git.depth", defaults.Git.Depth)
	v.SetDefault("generator.binary", defaults.Generator.Binary)
	v.SetDefault("generator.runtime", defaults.Generator.Runtime)
	v.SetDefault("generator.dry_run", defaults.Generator.DryRun)
	v.SetDefault("locations.external_libs", defaults.Locations.ExternalLibs)
	v.SetDefault("locations.external_libs_bin", defaults.Locations.ExternalLibsBin)
	v.SetDefault("locations.third_party_libs", defaults.Locations.ThirdPartyLibs)
	v.SetDefault("ui.color_scheme", defaults.UI.ColorScheme)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)
	v.SetDefault("ui.output", defaults.UI.Output)
}

// resolveConfigFile picks the file to load: the explicit path, then the user
// config directory, then the project-local file. No file is not an error.
func resolveConfigFile(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		path := string(opts.ConfigFilePath)
		if !fileExists(path) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Run 'extdeps config init' to create a default configuration").
				Wrap(fmt.Errorf("config file not found: %s", path)).
				BuildError()
		}
		return path, nil
	}

	cfgDir, err := configDirWithOverride(string(opts.ConfigDirPath))
	if err != nil {
		return "", err
	}
	if userPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt); fileExists(userPath) {
		return userPath, nil
	}

	if localPath := filepath.Join(string(opts.BaseDir), LocalConfigFileName); fileExists(localPath) {
		return localPath, nil
	}
	return "", nil
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
//
// This uses manual CUE parsing instead of cueutil.Decode because the
// config decodes to a map for Viper and all fields are optional.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return cueutil.FormatError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return cueutil.FormatError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, path)
	}

	// Merge preserves defaults and env overrides.
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes the default config file into dir (the user
// config directory when empty) unless one exists. It returns the file path
// and whether it was created.
func CreateDefaultConfig(dir string) (path string, created bool, err error) {
	cfgDir, err := configDirWithOverride(dir)
	if err != nil {
		return "", false, err
	}

	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create config directory: %w", err)
	}

	path = filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	}

	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", false, fmt.Errorf("failed to write config file: %w", err)
	}
	return path, true, nil
}

// GenerateCUE generates a CUE representation of the configuration.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// extdeps configuration file\n")
	sb.WriteString("// Environment variables (EXTDEPS_*, EXTERNAL_LIBS_DIR, ...) override these values.\n\n")

	sb.WriteString("git: {\n")
	fmt.Fprintf(&sb, "\tbackend: %q\n", cfg.Git.Backend)
	fmt.Fprintf(&sb, "\tbinary:  %q\n", cfg.Git.Binary)
	fmt.Fprintf(&sb, "\tdepth:   %d\n", cfg.Git.Depth)
	sb.WriteString("}\n")

	sb.WriteString("\ngenerator: {\n")
	fmt.Fprintf(&sb, "\tbinary:  %q\n", cfg.Generator.Binary)
	fmt.Fprintf(&sb, "\truntime: %q\n", cfg.Generator.Runtime)
	fmt.Fprintf(&sb, "\tdry_run: %v\n", cfg.Generator.DryRun)
	sb.WriteString("}\n")

	loc := cfg.Locations
	if loc.ExternalLibs != "" || loc.ExternalLibsBin != "" || loc.ThirdPartyLibs != "" {
		sb.WriteString("\nlocations: {\n")
		if loc.ExternalLibs != "" {
			fmt.Fprintf(&sb, "\texternal_libs: %q\n", loc.ExternalLibs)
		}
		if loc.ExternalLibsBin != "" {
			fmt.Fprintf(&sb, "\texternal_libs_bin: %q\n", loc.ExternalLibsBin)
		}
		if loc.ThirdPartyLibs != "" {
			fmt.Fprintf(&sb, "\tthird_party_libs: %q\n", loc.ThirdPartyLibs)
		}
		sb.WriteString("}\n")
	}

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	fmt.Fprintf(&sb, "\tverbose:      %v\n", cfg.UI.Verbose)
	fmt.Fprintf(&sb, "\toutput:       %q\n", cfg.UI.Output)
	sb.WriteString("}\n")

	return sb.String()
}

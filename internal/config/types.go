// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/extdeps/extdeps/pkg/depspec"
	"github.com/extdeps/extdeps/pkg/types"
)

const (
	// GitBackendGoGit runs git operations in-process.
	// Defined locally to avoid coupling config to internal/vcs.
	GitBackendGoGit GitBackend = "gogit"
	// GitBackendCLI shells out to the git binary.
	GitBackendCLI GitBackend = "cli"

	// RuntimeNative runs the generator as a child process.
	RuntimeNative GeneratorRuntime = "native"
	// RuntimeVirtual runs the generator command line through the embedded shell.
	RuntimeVirtual GeneratorRuntime = "virtual"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// OutputText is human-readable output.
	OutputText OutputFormat = "text"
	// OutputJSON is indented JSON.
	OutputJSON OutputFormat = "json"
	// OutputYAML is YAML.
	OutputYAML OutputFormat = "yaml"
)

var (
	// ErrInvalidGitBackend is returned when a GitBackend value is not recognized.
	ErrInvalidGitBackend = errors.New("invalid git backend")
	// ErrInvalidGeneratorRuntime is returned when a GeneratorRuntime value is not recognized.
	ErrInvalidGeneratorRuntime = errors.New("invalid generator runtime")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidOutputFormat is returned when an OutputFormat value is not recognized.
	ErrInvalidOutputFormat = errors.New("invalid output format")
	// ErrInvalidBinaryFilePath is returned when a BinaryFilePath value is whitespace-only.
	ErrInvalidBinaryFilePath = errors.New("invalid binary file path")
	// ErrInvalidCloneDepth is returned for a negative clone depth.
	ErrInvalidCloneDepth = errors.New("invalid clone depth")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// GitBackend selects the git implementation.
	GitBackend string

	// GeneratorRuntime selects how the generator is executed.
	GeneratorRuntime string

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// OutputFormat selects how list-style commands print results.
	OutputFormat string

	// BinaryFilePath is a path to, or name of, an executable.
	// The zero value means "use the default binary".
	BinaryFilePath string

	// InvalidValueError is returned when an enumerated config value is not
	// recognized. It unwraps to the sentinel of the offending type.
	InvalidValueError struct {
		Field    string
		Value    string
		Allowed  []string
		sentinel error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// Git configures repository access.
		Git GitConfig `json:"git" yaml:"git" mapstructure:"git"`
		// Generator configures the build-system generator.
		Generator GeneratorConfig `json:"generator" yaml:"generator" mapstructure:"generator"`
		// Locations are the build locations substituted into defines.
		Locations LocationsConfig `json:"locations" yaml:"locations" mapstructure:"locations"`
		// UI configures the user interface.
		UI UIConfig `json:"ui" yaml:"ui" mapstructure:"ui"`

		// SourcePath is the config file the values were read from, if any.
		SourcePath string `json:"-" yaml:"-" mapstructure:"-"`
	}

	// GitConfig configures repository access.
	GitConfig struct {
		Backend GitBackend     `json:"backend" yaml:"backend" mapstructure:"backend"`
		Binary  BinaryFilePath `json:"binary" yaml:"binary" mapstructure:"binary"`
		// Depth is the shallow clone depth for the cli backend; 0 means full history.
		Depth int `json:"depth" yaml:"depth" mapstructure:"depth"`
	}

	// GeneratorConfig configures the build-system generator.
	GeneratorConfig struct {
		Binary  BinaryFilePath   `json:"binary" yaml:"binary" mapstructure:"binary"`
		Runtime GeneratorRuntime `json:"runtime" yaml:"runtime" mapstructure:"runtime"`
		// DryRun prints the generator command lines instead of running them.
		DryRun bool `json:"dry_run" yaml:"dry_run" mapstructure:"dry_run"`
	}

	// LocationsConfig holds the build locations. Empty values stay unset.
	LocationsConfig struct {
		ExternalLibs    string `json:"external_libs" yaml:"external_libs" mapstructure:"external_libs"`
		ExternalLibsBin string `json:"external_libs_bin" yaml:"external_libs_bin" mapstructure:"external_libs_bin"`
		ThirdPartyLibs  string `json:"third_party_libs" yaml:"third_party_libs" mapstructure:"third_party_libs"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		ColorScheme ColorScheme  `json:"color_scheme" yaml:"color_scheme" mapstructure:"color_scheme"`
		Verbose     bool         `json:"verbose" yaml:"verbose" mapstructure:"verbose"`
		Output      OutputFormat `json:"output" yaml:"output" mapstructure:"output"`
	}
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Git: GitConfig{
			Backend: GitBackendGoGit,
			Binary:  "git",
		},
		Generator: GeneratorConfig{
			Binary:  "cmake",
			Runtime: RuntimeNative,
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Output:      OutputText,
		},
	}
}

// Locations converts the configured locations for manifest resolution.
func (c LocationsConfig) Locations() depspec.Locations {
	return depspec.Locations{
		ExternalLibs:    types.FilesystemPath(c.ExternalLibs),
		ExternalLibsBin: types.FilesystemPath(c.ExternalLibsBin),
		ThirdPartyLibs:  types.FilesystemPath(c.ThirdPartyLibs),
	}
}

// String returns the string representation of the GitBackend.
func (b GitBackend) String() string { return string(b) }

// IsValid returns whether the GitBackend is one of the defined backends.
func (b GitBackend) IsValid() (bool, []error) {
	return oneOf("git.backend", string(b), ErrInvalidGitBackend, GitBackendGoGit, GitBackendCLI)
}

// String returns the string representation of the GeneratorRuntime.
func (r GeneratorRuntime) String() string { return string(r) }

// IsValid returns whether the GeneratorRuntime is one of the defined runtimes.
func (r GeneratorRuntime) IsValid() (bool, []error) {
	return oneOf("generator.runtime", string(r), ErrInvalidGeneratorRuntime, RuntimeNative, RuntimeVirtual)
}

// String returns the string representation of the ColorScheme.
func (c ColorScheme) String() string { return string(c) }

// IsValid returns whether the ColorScheme is one of the defined schemes.
func (c ColorScheme) IsValid() (bool, []error) {
	return oneOf("ui.color_scheme", string(c), ErrInvalidColorScheme, ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight)
}

// String returns the string representation of the OutputFormat.
func (f OutputFormat) String() string { return string(f) }

// IsValid returns whether the OutputFormat is one of the defined formats.
func (f OutputFormat) IsValid() (bool, []error) {
	return oneOf("ui.output", string(f), ErrInvalidOutputFormat, OutputText, OutputJSON, OutputYAML)
}

// String returns the string representation of the BinaryFilePath.
func (p BinaryFilePath) String() string { return string(p) }

// IsValid returns whether the BinaryFilePath is valid.
// The zero value is valid; non-zero values must not be whitespace-only.
func (p BinaryFilePath) IsValid() (bool, []error) {
	if p != "" && strings.TrimSpace(string(p)) == "" {
		return false, []error{fmt.Errorf("%w %q: non-empty value must not be whitespace-only", ErrInvalidBinaryFilePath, p)}
	}
	return true, nil
}

// IsValid returns whether the Config has valid fields.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	collect := func(valid bool, fieldErrs []error) {
		if !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	collect(c.Git.Backend.IsValid())
	collect(c.Git.Binary.IsValid())
	if c.Git.Depth < 0 {
		errs = append(errs, fmt.Errorf("%w: git.depth must be >= 0, got %d", ErrInvalidCloneDepth, c.Git.Depth))
	}
	collect(c.Generator.Binary.IsValid())
	collect(c.Generator.Runtime.IsValid())
	collect(c.UI.ColorScheme.IsValid())
	collect(c.UI.Output.IsValid())

	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig and the field errors for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// Error implements the error interface for InvalidValueError.
func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid %s %q (expected one of: %s)", e.Field, e.Value, strings.Join(e.Allowed, ", "))
}

// Unwrap returns the type-specific sentinel.
func (e *InvalidValueError) Unwrap() error { return e.sentinel }

func oneOf[T ~string](field, value string, sentinel error, allowed ...T) (bool, []error) {
	names := make([]string, len(allowed))
	for i, a := range allowed {
		if string(a) == value {
			return true, nil
		}
		names[i] = string(a)
	}
	return false, []error{&InvalidValueError{Field: field, Value: value, Allowed: names, sentinel: sentinel}}
}

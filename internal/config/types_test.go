// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"
)

func TestConfig_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mutate   func(*Config)
		sentinel error
	}{
		{"defaults", func(*Config) {}, nil},
		{"cli backend", func(c *Config) { c.Git.Backend = GitBackendCLI }, nil},
		{"bad backend", func(c *Config) { c.Git.Backend = "svn" }, ErrInvalidGitBackend},
		{"empty backend", func(c *Config) { c.Git.Backend = "" }, ErrInvalidGitBackend},
		{"negative depth", func(c *Config) { c.Git.Depth = -2 }, ErrInvalidCloneDepth},
		{"blank git binary", func(c *Config) { c.Git.Binary = " " }, ErrInvalidBinaryFilePath},
		{"empty generator binary", func(c *Config) { c.Generator.Binary = "" }, nil},
		{"bad runtime", func(c *Config) { c.Generator.Runtime = "container" }, ErrInvalidGeneratorRuntime},
		{"bad color scheme", func(c *Config) { c.UI.ColorScheme = "neon" }, ErrInvalidColorScheme},
		{"bad output", func(c *Config) { c.UI.Output = "xml" }, ErrInvalidOutputFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(cfg)
			valid, errs := cfg.IsValid()

			if tt.sentinel == nil {
				if !valid {
					t.Errorf("IsValid() = false, %v; want valid", errs)
				}
				return
			}
			if valid || len(errs) != 1 {
				t.Fatalf("IsValid() = %v, %v; want one error", valid, errs)
			}
			if !errors.Is(errs[0], ErrInvalidConfig) || !errors.Is(errs[0], tt.sentinel) {
				t.Errorf("error %v does not match ErrInvalidConfig and %v", errs[0], tt.sentinel)
			}
		})
	}
}

func TestInvalidConfigError_CollectsAll(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Git.Backend = "svn"
	cfg.UI.Output = "xml"

	_, errs := cfg.IsValid()
	var ice *InvalidConfigError
	if len(errs) != 1 || !errors.As(errs[0], &ice) {
		t.Fatalf("IsValid() errs = %v, want one *InvalidConfigError", errs)
	}
	if len(ice.FieldErrors) != 2 {
		t.Errorf("FieldErrors = %v, want 2", ice.FieldErrors)
	}

	var ive *InvalidValueError
	if !errors.As(ice.FieldErrors[0], &ive) || ive.Field != "git.backend" {
		t.Errorf("first field error = %v, want git.backend", ice.FieldErrors[0])
	}
}

func TestLocationsConfig_Locations(t *testing.T) {
	t.Parallel()

	locs := LocationsConfig{ExternalLibs: "/a", ThirdPartyLibs: "/c"}.Locations()
	if locs.ExternalLibs != "/a" || locs.ExternalLibsBin != "" || locs.ThirdPartyLibs != "/c" {
		t.Errorf("Locations() = %+v", locs)
	}
}

// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/extdeps/extdeps/internal/issue"
	"github.com/extdeps/extdeps/pkg/types"
)

// isolateEnv clears every variable that can override config values.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, env := range locationEnv {
		t.Setenv(env, "")
	}
	for _, env := range []string{
		"EXTDEPS_GIT_BACKEND", "EXTDEPS_GIT_BINARY", "EXTDEPS_GIT_DEPTH",
		"EXTDEPS_GENERATOR_BINARY", "EXTDEPS_GENERATOR_RUNTIME", "EXTDEPS_GENERATOR_DRY_RUN",
		"EXTDEPS_LOCATIONS_EXTERNAL_LIBS", "EXTDEPS_LOCATIONS_EXTERNAL_LIBS_BIN", "EXTDEPS_LOCATIONS_THIRD_PARTY_LIBS",
		"EXTDEPS_UI_COLOR_SCHEME", "EXTDEPS_UI_VERBOSE", "EXTDEPS_UI_OUTPUT",
	} {
		t.Setenv(env, "")
	}
}

func isolatedOptions(t *testing.T) LoadOptions {
	t.Helper()
	return LoadOptions{
		ConfigDirPath: types.FilesystemPath(t.TempDir()),
		BaseDir:       types.FilesystemPath(t.TempDir()),
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolateEnv(t)

	cfg, err := NewProvider().Load(context.Background(), isolatedOptions(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := DefaultConfig()
	if cfg.Git != want.Git || cfg.Generator != want.Generator || cfg.UI != want.UI || cfg.Locations != want.Locations {
		t.Errorf("Load() = %+v, want defaults %+v", cfg, want)
	}
	if cfg.SourcePath != "" {
		t.Errorf("SourcePath = %q, want empty", cfg.SourcePath)
	}
}

func TestLoad_UserConfigFile(t *testing.T) {
	isolateEnv(t)

	opts := isolatedOptions(t)
	path := filepath.Join(string(opts.ConfigDirPath), "config.cue")
	writeFile(t, path, `
git: {
	backend: "cli"
	depth:   1
}
generator: runtime: "virtual"
locations: external_libs: "/opt/external"
ui: output: "yaml"
`)

	cfg, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SourcePath != path {
		t.Errorf("SourcePath = %q, want %q", cfg.SourcePath, path)
	}
	if cfg.Git.Backend != GitBackendCLI || cfg.Git.Depth != 1 {
		t.Errorf("Git = %+v", cfg.Git)
	}
	// Unset keys keep their defaults.
	if cfg.Git.Binary != "git" || cfg.Generator.Binary != "cmake" {
		t.Errorf("defaults lost: git.binary=%q generator.binary=%q", cfg.Git.Binary, cfg.Generator.Binary)
	}
	if cfg.Generator.Runtime != RuntimeVirtual {
		t.Errorf("Generator.Runtime = %q", cfg.Generator.Runtime)
	}
	if cfg.Locations.ExternalLibs != "/opt/external" {
		t.Errorf("Locations.ExternalLibs = %q", cfg.Locations.ExternalLibs)
	}
	if cfg.UI.Output != OutputYAML {
		t.Errorf("UI.Output = %q", cfg.UI.Output)
	}
}

func TestLoad_LocalConfigFile(t *testing.T) {
	isolateEnv(t)

	opts := isolatedOptions(t)
	path := filepath.Join(string(opts.BaseDir), LocalConfigFileName)
	writeFile(t, path, `generator: binary: "/usr/local/bin/cmake"`)

	cfg, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SourcePath != path || cfg.Generator.Binary != "/usr/local/bin/cmake" {
		t.Errorf("Load() = %+v from %q", cfg.Generator, cfg.SourcePath)
	}
}

func TestLoad_UserConfigWinsOverLocal(t *testing.T) {
	isolateEnv(t)

	opts := isolatedOptions(t)
	userPath := filepath.Join(string(opts.ConfigDirPath), "config.cue")
	writeFile(t, userPath, `git: backend: "cli"`)
	writeFile(t, filepath.Join(string(opts.BaseDir), LocalConfigFileName), `git: backend: "gogit"`)

	cfg, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SourcePath != userPath || cfg.Git.Backend != GitBackendCLI {
		t.Errorf("Load() used %q (backend %q), want user config", cfg.SourcePath, cfg.Git.Backend)
	}
}

func TestLoad_ExplicitFile(t *testing.T) {
	isolateEnv(t)

	opts := isolatedOptions(t)
	explicit := filepath.Join(t.TempDir(), "ci.cue")
	writeFile(t, explicit, `ui: verbose: true`)
	writeFile(t, filepath.Join(string(opts.ConfigDirPath), "config.cue"), `ui: verbose: false`)
	opts.ConfigFilePath = types.FilesystemPath(explicit)

	cfg, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.UI.Verbose {
		t.Error("explicit config file was not used")
	}
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	isolateEnv(t)

	opts := isolatedOptions(t)
	opts.ConfigFilePath = types.FilesystemPath(filepath.Join(t.TempDir(), "missing.cue"))

	_, err := NewProvider().Load(context.Background(), opts)
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("Load() error = %v, want *issue.ActionableError", err)
	}
	if !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("error = %q", err)
	}
}

func TestLoad_SchemaErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown backend", `git: backend: "svn"`},
		{"negative depth", `git: depth: -1`},
		{"unknown runtime", `generator: runtime: "container"`},
		{"unknown field", `bogus: true`},
		{"unknown output", `ui: output: "xml"`},
		{"blank binary", `generator: binary: "  "`},
		{"syntax", `git: {`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)

			opts := isolatedOptions(t)
			writeFile(t, filepath.Join(string(opts.ConfigDirPath), "config.cue"), tt.content)

			_, err := NewProvider().Load(context.Background(), opts)
			if err == nil {
				t.Fatal("Load() error = nil, want schema error")
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) || ae.Operation != "load configuration" {
				t.Errorf("Load() error = %v, want load configuration ActionableError", err)
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolateEnv(t)

	opts := isolatedOptions(t)
	writeFile(t, filepath.Join(string(opts.ConfigDirPath), "config.cue"), `
git: backend: "gogit"
locations: external_libs: "/from/file"
`)
	t.Setenv("EXTDEPS_GIT_BACKEND", "cli")
	t.Setenv("EXTDEPS_GIT_DEPTH", "5")
	t.Setenv("EXTERNAL_LIBS_DIR", "/from/env")
	t.Setenv("EXTERNAL_LIBS_BIN_DIR", "/from/env/bin")
	t.Setenv("EXTDEPS_LOCATIONS_THIRD_PARTY_LIBS", "/third")

	cfg, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Git.Backend != GitBackendCLI || cfg.Git.Depth != 5 {
		t.Errorf("Git = %+v, want env overrides", cfg.Git)
	}
	want := LocationsConfig{ExternalLibs: "/from/env", ExternalLibsBin: "/from/env/bin", ThirdPartyLibs: "/third"}
	if cfg.Locations != want {
		t.Errorf("Locations = %+v, want %+v", cfg.Locations, want)
	}
}

func TestLoad_InvalidEnvOverride(t *testing.T) {
	isolateEnv(t)
	t.Setenv("EXTDEPS_GENERATOR_RUNTIME", "container")

	_, err := NewProvider().Load(context.Background(), isolatedOptions(t))
	if !errors.Is(err, ErrInvalidConfig) || !errors.Is(err, ErrInvalidGeneratorRuntime) {
		t.Errorf("Load() error = %v, want ErrInvalidConfig wrapping ErrInvalidGeneratorRuntime", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewProvider().Load(ctx, LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	isolateEnv(t)

	dir := filepath.Join(t.TempDir(), "extdeps")
	path, created, err := CreateDefaultConfig(dir)
	if err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}
	if !created || path != filepath.Join(dir, "config.cue") {
		t.Errorf("CreateDefaultConfig() = %q, %v", path, created)
	}

	// The generated file must load back to the defaults.
	cfg, err := NewProvider().Load(context.Background(), LoadOptions{
		ConfigDirPath: types.FilesystemPath(dir),
		BaseDir:       types.FilesystemPath(t.TempDir()),
	})
	if err != nil {
		t.Fatalf("Load() of generated config error = %v", err)
	}
	if cfg.SourcePath != path || cfg.Git != DefaultConfig().Git || cfg.UI != DefaultConfig().UI {
		t.Errorf("round trip = %+v", cfg)
	}

	writeFile(t, path, `git: backend: "cli"`)
	if _, created, err := CreateDefaultConfig(dir); err != nil || created {
		t.Errorf("second CreateDefaultConfig() = created %v, err %v; want existing file kept", created, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `git: backend: "cli"` {
		t.Error("existing config was overwritten")
	}
}

func TestGenerateCUE_Locations(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if strings.Contains(GenerateCUE(cfg), "locations") {
		t.Error("GenerateCUE() wrote an empty locations block")
	}

	cfg.Locations.ThirdPartyLibs = "/third"
	out := GenerateCUE(cfg)
	if !strings.Contains(out, `third_party_libs: "/third"`) || strings.Contains(out, "external_libs:") {
		t.Errorf("GenerateCUE() = %s", out)
	}
}

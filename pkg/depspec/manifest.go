// SPDX-License-Identifier: MPL-2.0

package depspec

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/extdeps/extdeps/pkg/cueutil"
	"github.com/extdeps/extdeps/pkg/types"
)

// ManifestFileName is the default manifest file name.
const ManifestFileName = "extdeps.cue"

//go:embed manifest_schema.cue
var manifestSchema []byte

var (
	// ErrInvalidManifest is the sentinel error wrapped by InvalidManifestError.
	ErrInvalidManifest = errors.New("invalid manifest")
	// ErrManifestNotFound is returned when no manifest exists at the requested path.
	ErrManifestNotFound = errors.New("manifest not found")
	// ErrDependencyNotFound is returned when a name does not match any manifest dependency.
	ErrDependencyNotFound = errors.New("dependency not found")
)

type (
	// Manifest is the decoded extdeps.cue file.
	Manifest struct {
		Dependencies []Dependency   `json:"dependencies"`
		Defines      []Define       `json:"defines"`
		Targets      []string       `json:"targets"`
		Generator    *GeneratorSpec `json:"generator,omitempty"`

		// FilePath is the file the manifest was loaded from; empty for in-memory manifests.
		FilePath string `json:"-"`
	}

	// Dependency is one manifest entry.
	Dependency struct {
		Name   DependencyName `json:"name"`
		GitURL GitURL         `json:"git_url"`
		Commit GitCommit      `json:"commit"`
		Branch Branch         `json:"branch,omitempty"`
		// Path is the checkout directory. Relative paths are joined to the
		// external_libs location; empty means external_libs/<name>.
		Path         string   `json:"path,omitempty"`
		Defines      []Define `json:"defines,omitempty"`
		Targets      []string `json:"targets,omitempty"`
		PostCheckout string   `json:"post_checkout,omitempty"`
	}

	// Define is a "-D<KEY>=<VALUE>" generator flag whose value is either a
	// literal or a location substituted verbatim.
	Define struct {
		Key      string       `json:"key"`
		Value    string       `json:"value,omitempty"`
		Location LocationName `json:"location,omitempty"`
	}

	// GeneratorSpec configures the build-system generator invocation.
	GeneratorSpec struct {
		SourceDir    string   `json:"source_dir"`
		BuildDir     string   `json:"build_dir"`
		GenerateOnly bool     `json:"generate_only"`
		Args         []string `json:"args"`
	}

	// InvalidManifestError collects semantic errors that the schema cannot express.
	InvalidManifestError struct {
		FilePath string
		Problems []error
	}
)

// DefaultGeneratorSpec returns the generator settings used when the manifest has none.
func DefaultGeneratorSpec() GeneratorSpec {
	return GeneratorSpec{SourceDir: ".", BuildDir: "build"}
}

// ParseManifest decodes and validates manifest data. filename is used in error messages.
func ParseManifest(data []byte, filename string) (*Manifest, error) {
	m, err := cueutil.Decode[Manifest](manifestSchema, data, "#Manifest", cueutil.WithFilename(filename))
	if err != nil {
		return nil, err
	}
	m.FilePath = filename
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadManifest reads and parses the manifest at path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, path)
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return ParseManifest(data, path)
}

// Validate checks the rules the schema cannot express: unique names,
// unique checkout paths, and defines carrying exactly one of value or location.
func (m *Manifest) Validate() error {
	var problems []error

	seenNames := make(map[DependencyName]struct{}, len(m.Dependencies))
	seenPaths := make(map[string]DependencyName, len(m.Dependencies))
	for _, dep := range m.Dependencies {
		if _, ok := seenNames[dep.Name]; ok {
			problems = append(problems, fmt.Errorf("duplicate dependency name %q", dep.Name))
		}
		seenNames[dep.Name] = struct{}{}

		key := filepath.Clean(dep.pathKey())
		if other, ok := seenPaths[key]; ok {
			problems = append(problems, fmt.Errorf("dependencies %q and %q share checkout path %q", other, dep.Name, key))
		} else {
			seenPaths[key] = dep.Name
		}

		for _, d := range dep.Defines {
			if err := d.Validate(); err != nil {
				problems = append(problems, fmt.Errorf("dependency %q: %w", dep.Name, err))
			}
		}
	}

	for _, d := range m.Defines {
		if err := d.Validate(); err != nil {
			problems = append(problems, err)
		}
		if d.Location == LocationDependency {
			problems = append(problems, fmt.Errorf("define %q: location \"dependency\" is only valid inside a dependency", d.Key))
		}
	}

	if len(problems) > 0 {
		return &InvalidManifestError{FilePath: m.FilePath, Problems: problems}
	}
	return nil
}

// Dependency returns the manifest entry called name.
func (m *Manifest) Dependency(name DependencyName) (Dependency, error) {
	for _, dep := range m.Dependencies {
		if dep.Name == name {
			return dep, nil
		}
	}
	return Dependency{}, fmt.Errorf("%w: %q", ErrDependencyNotFound, name)
}

// Select returns the named dependencies in manifest order, or all of them
// when names is empty.
func (m *Manifest) Select(names ...DependencyName) ([]Dependency, error) {
	if len(names) == 0 {
		return m.Dependencies, nil
	}
	wanted := make(map[DependencyName]bool, len(names))
	for _, n := range names {
		if _, err := m.Dependency(n); err != nil {
			return nil, err
		}
		wanted[n] = true
	}
	selected := make([]Dependency, 0, len(names))
	for _, dep := range m.Dependencies {
		if wanted[dep.Name] {
			selected = append(selected, dep)
		}
	}
	return selected, nil
}

// GeneratorOrDefault returns the manifest's generator settings or the defaults.
func (m *Manifest) GeneratorOrDefault() GeneratorSpec {
	if m.Generator == nil {
		return DefaultGeneratorSpec()
	}
	return *m.Generator
}

// Descriptor resolves the dependency against the build locations.
func (d Dependency) Descriptor(locs Locations) (Descriptor, error) {
	target, err := d.TargetPath(locs)
	if err != nil {
		return Descriptor{}, err
	}
	desc := Descriptor{
		Name:       d.Name,
		TargetPath: target,
		GitURL:     d.GitURL,
		Commit:     d.Commit,
		Branch:     d.Branch,
	}
	if err := desc.Validate(); err != nil {
		return Descriptor{}, err
	}
	return desc, nil
}

// TargetPath returns the checkout directory for the dependency.
func (d Dependency) TargetPath(locs Locations) (types.FilesystemPath, error) {
	if p := types.FilesystemPath(d.Path); p != "" && p.IsAbs() {
		return types.FilesystemPath(filepath.Clean(d.Path)), nil
	}
	base, err := locs.Lookup(LocationExternalLibs)
	if err != nil {
		return "", fmt.Errorf("dependency %q: %w", d.Name, err)
	}
	if d.Path != "" {
		return base.Join(d.Path), nil
	}
	return base.Join(string(d.Name)), nil
}

func (d Dependency) pathKey() string {
	if d.Path != "" {
		return d.Path
	}
	return string(d.Name)
}

// Validate returns nil if the define has a key and exactly one of value or location.
func (d Define) Validate() error {
	if strings.TrimSpace(d.Key) == "" {
		return errors.New("define has an empty key")
	}
	if d.Location != "" {
		if err := d.Location.Validate(); err != nil {
			return fmt.Errorf("define %q: %w", d.Key, err)
		}
		if d.Value != "" {
			return fmt.Errorf("define %q: set either value or location, not both", d.Key)
		}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidManifestError) Error() string {
	msgs := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		msgs = append(msgs, p.Error())
	}
	name := e.FilePath
	if name == "" {
		name = "manifest"
	}
	return fmt.Sprintf("%s: %s", name, strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidManifest so callers can use errors.Is.
func (e *InvalidManifestError) Unwrap() error { return ErrInvalidManifest }

// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"fmt"

	"github.com/extdeps/extdeps/pkg/buildconf"
	"github.com/extdeps/extdeps/pkg/depspec"
	"github.com/extdeps/extdeps/pkg/types"
)

// Configure builds the generator configuration for m without touching the
// network or the filesystem. Project-level defines and targets come first,
// followed by each dependency's in manifest order.
func Configure(m *depspec.Manifest, locs depspec.Locations) (buildconf.Config, error) {
	cfg, err := fragment(buildconf.New(), m.Defines, m.Targets, locs, "")
	if err != nil {
		return buildconf.Config{}, fmt.Errorf("project: %w", err)
	}

	for _, dep := range m.Dependencies {
		target, err := dep.TargetPath(locs)
		if err != nil {
			return buildconf.Config{}, err
		}
		cfg, err = fragment(cfg, dep.Defines, dep.Targets, locs, target)
		if err != nil {
			return buildconf.Config{}, fmt.Errorf("dependency %s: %w", dep.Name, err)
		}
	}
	return cfg, nil
}

// fragment appends defines and targets to cfg. depPath is substituted for
// the "dependency" location; it is empty at project level.
func fragment(cfg buildconf.Config, defines []depspec.Define, targets []string, locs depspec.Locations, depPath types.FilesystemPath) (buildconf.Config, error) {
	for _, d := range defines {
		value, err := defineValue(d, locs, depPath)
		if err != nil {
			return buildconf.Config{}, err
		}
		if cfg, err = cfg.Define(d.Key, value); err != nil {
			return buildconf.Config{}, err
		}
	}
	if len(targets) == 0 {
		return cfg, nil
	}
	return cfg.AppendTargets(targets...)
}

func defineValue(d depspec.Define, locs depspec.Locations, depPath types.FilesystemPath) (string, error) {
	switch d.Location {
	case "":
		return d.Value, nil
	case depspec.LocationDependency:
		if depPath == "" {
			return "", fmt.Errorf("define %s: location %q is only valid inside a dependency", d.Key, d.Location)
		}
		return string(depPath), nil
	default:
		p, err := locs.Lookup(d.Location)
		if err != nil {
			return "", fmt.Errorf("define %s: %w", d.Key, err)
		}
		return string(p), nil
	}
}

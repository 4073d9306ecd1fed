// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/extdeps/extdeps/pkg/depspec"
	"github.com/extdeps/extdeps/pkg/types"
)

const (
	// LockFileName is the lock file written next to the manifest.
	LockFileName = "extdeps.lock.toml"

	// LockFileVersion is the current lock file format version.
	LockFileVersion = 1
)

// ErrUnsupportedLockVersion is returned when a lock file is newer than this binary understands.
var ErrUnsupportedLockVersion = errors.New("unsupported lock file version")

type (
	// LockFile records the provisioned state of every dependency.
	LockFile struct {
		Version      int                `toml:"version"`
		Generated    time.Time          `toml:"generated"`
		Dependencies []LockedDependency `toml:"dependency"`
	}

	// LockedDependency is one [[dependency]] table in the lock file.
	LockedDependency struct {
		Name          depspec.DependencyName `toml:"name" json:"name" yaml:"name"`
		GitURL        depspec.GitURL         `toml:"git_url" json:"git_url" yaml:"git_url"`
		Branch        depspec.Branch         `toml:"branch,omitempty" json:"branch,omitempty" yaml:"branch,omitempty"`
		Commit        depspec.GitCommit      `toml:"commit" json:"commit" yaml:"commit"`
		Path          types.FilesystemPath   `toml:"path" json:"path" yaml:"path"`
		ProvisionedAt time.Time              `toml:"provisioned_at" json:"provisioned_at" yaml:"provisioned_at"`
	}
)

// NewLockFile creates an empty lock file.
func NewLockFile() *LockFile {
	return &LockFile{Version: LockFileVersion}
}

// LoadLockFile reads the lock file at path. A missing file yields an empty lock.
func LoadLockFile(path string) (*LockFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewLockFile(), nil
		}
		return nil, fmt.Errorf("failed to read lock file: %w", err)
	}

	var lock LockFile
	if err := toml.Unmarshal(data, &lock); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return nil, fmt.Errorf("%s:%d:%d: %w", path, row, col, err)
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if lock.Version > LockFileVersion {
		return nil, fmt.Errorf("%w: %s has version %d, this build reads up to %d",
			ErrUnsupportedLockVersion, path, lock.Version, LockFileVersion)
	}
	if lock.Version == 0 {
		lock.Version = LockFileVersion
	}
	return &lock, nil
}

// Save writes the lock file atomically using a temp file and rename.
func (l *LockFile) Save(path string, now time.Time) error {
	l.Generated = now.UTC().Truncate(time.Second)
	data, err := toml.Marshal(l)
	if err != nil {
		return fmt.Errorf("failed to encode lock file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	header := "# Generated by extdeps. Do not edit.\n\n"
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, append([]byte(header), data...), 0o644); err != nil {
		return fmt.Errorf("failed to write lock file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath) // Best-effort cleanup of temp file
		return fmt.Errorf("failed to rename lock file: %w", err)
	}
	return nil
}

// Record stores the outcome of provisioning desc, replacing any previous
// entry with the same name. Entries stay sorted by name.
func (l *LockFile) Record(desc depspec.Descriptor, res *Result, at time.Time) {
	entry := LockedDependency{
		Name:          desc.Name,
		GitURL:        desc.GitURL,
		Branch:        desc.Branch,
		Commit:        res.Commit,
		Path:          res.TargetPath,
		ProvisionedAt: at.UTC().Truncate(time.Second),
	}

	if i := l.index(desc.Name); i >= 0 {
		// Keep the original timestamp when nothing changed.
		prev := l.Dependencies[i]
		if !res.Action.Changed() && prev.Commit == entry.Commit && prev.GitURL == entry.GitURL {
			entry.ProvisionedAt = prev.ProvisionedAt
		}
		l.Dependencies[i] = entry
		return
	}

	l.Dependencies = append(l.Dependencies, entry)
	slices.SortFunc(l.Dependencies, func(a, b LockedDependency) int {
		return strings.Compare(string(a.Name), string(b.Name))
	})
}

// Lookup returns the entry for name.
func (l *LockFile) Lookup(name depspec.DependencyName) (LockedDependency, bool) {
	if i := l.index(name); i >= 0 {
		return l.Dependencies[i], true
	}
	return LockedDependency{}, false
}

// Prune drops entries whose names are not in keep and returns the removed names.
func (l *LockFile) Prune(keep []depspec.DependencyName) []depspec.DependencyName {
	var removed []depspec.DependencyName
	l.Dependencies = slices.DeleteFunc(l.Dependencies, func(d LockedDependency) bool {
		if slices.Contains(keep, d.Name) {
			return false
		}
		removed = append(removed, d.Name)
		return true
	})
	return removed
}

func (l *LockFile) index(name depspec.DependencyName) int {
	return slices.IndexFunc(l.Dependencies, func(d LockedDependency) bool { return d.Name == name })
}

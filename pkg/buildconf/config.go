// SPDX-License-Identifier: MPL-2.0

package buildconf

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrEmptyValue is returned when an empty flag or target is appended.
	ErrEmptyValue = errors.New("empty value")
	// ErrInvalidDefineKey is returned by Define for an empty key or one containing '='.
	ErrInvalidDefineKey = errors.New("invalid define key")
)

// Config is an ordered collection of generator flags and additional build
// targets. The zero value is an empty, usable Config.
//
// Flags keep insertion order because generators apply later definitions
// over earlier ones. Targets keep insertion order and are not deduplicated;
// see Targets for the deduplicated view used when building.
type Config struct {
	flags   []string
	targets []string
}

// New returns an empty Config.
func New() Config { return Config{} }

// AppendFlags returns a copy of c with flags appended in the given order.
// Every flag must be non-empty; on error c is returned unchanged.
func (c Config) AppendFlags(flags ...string) (Config, error) {
	if err := checkNonEmpty("flag", flags); err != nil {
		return c, err
	}
	return Config{flags: appendCopy(c.flags, flags), targets: c.targets}, nil
}

// AppendTargets returns a copy of c with targets appended in the given order.
func (c Config) AppendTargets(targets ...string) (Config, error) {
	if err := checkNonEmpty("target", targets); err != nil {
		return c, err
	}
	return Config{flags: c.flags, targets: appendCopy(c.targets, targets)}, nil
}

// Define appends "-D<key>=<value>". value is substituted verbatim; paths
// containing spaces are passed as a single argument by the generator runner.
func (c Config) Define(key, value string) (Config, error) {
	if key == "" || strings.ContainsAny(key, "= \t\n") {
		return c, fmt.Errorf("%w: %q", ErrInvalidDefineKey, key)
	}
	return c.AppendFlags(FormatDefine(key, value))
}

// Merge returns a Config holding c's entries followed by other's.
func (c Config) Merge(other Config) Config {
	return Config{
		flags:   appendCopy(c.flags, other.flags),
		targets: appendCopy(c.targets, other.targets),
	}
}

// Flags returns the accumulated flags in insertion order. The returned slice
// is a copy.
func (c Config) Flags() []string { return slices.Clone(c.flags) }

// AllTargets returns every appended target in insertion order, duplicates included.
func (c Config) AllTargets() []string { return slices.Clone(c.targets) }

// Targets returns the appended targets in first-seen order with duplicates removed.
func (c Config) Targets() []string {
	seen := make(map[string]struct{}, len(c.targets))
	out := make([]string, 0, len(c.targets))
	for _, t := range c.targets {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Len returns the number of flags and targets.
func (c Config) Len() (flags, targets int) { return len(c.flags), len(c.targets) }

// IsEmpty reports whether no flags or targets have been appended.
func (c Config) IsEmpty() bool { return len(c.flags) == 0 && len(c.targets) == 0 }

// FormatDefine renders a generator cache-variable definition.
func FormatDefine(key, value string) string {
	return "-D" + key + "=" + value
}

// ParseDefine splits a "-DKEY=VALUE" flag. ok is false for any other flag.
func ParseDefine(flag string) (key, value string, ok bool) {
	rest, found := strings.CutPrefix(flag, "-D")
	if !found {
		return "", "", false
	}
	key, value, ok = strings.Cut(rest, "=")
	if !ok || key == "" {
		return "", "", false
	}
	return key, value, true
}

func checkNonEmpty(kind string, values []string) error {
	for i, v := range values {
		if v == "" {
			return fmt.Errorf("%w: %s at position %d", ErrEmptyValue, kind, i)
		}
	}
	return nil
}

// appendCopy never shares a backing array with base, so two Configs derived
// from the same parent cannot overwrite each other's entries.
func appendCopy(base, extra []string) []string {
	if len(base)+len(extra) == 0 {
		return nil
	}
	out := make([]string, 0, len(base)+len(extra))
	out = append(out, base...)
	return append(out, extra...)
}

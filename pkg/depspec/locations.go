// SPDX-License-Identifier: MPL-2.0

package depspec

import (
	"errors"
	"fmt"

	"github.com/extdeps/extdeps/pkg/types"
)

const (
	// LocationExternalLibs is where external library sources are checked out.
	LocationExternalLibs LocationName = "external_libs"
	// LocationExternalLibsBin is where external library binaries are placed.
	LocationExternalLibsBin LocationName = "external_libs_bin"
	// LocationThirdPartyLibs is where third-party libraries live.
	LocationThirdPartyLibs LocationName = "third_party_libs"
	// LocationDependency refers to the target path of the dependency that declares the define.
	LocationDependency LocationName = "dependency"
)

var (
	// ErrInvalidLocationName is the sentinel error wrapped by InvalidLocationNameError.
	ErrInvalidLocationName = errors.New("invalid location name")
	// ErrLocationNotSet is returned when a referenced location has no value.
	ErrLocationNotSet = errors.New("location not set")
)

type (
	// LocationName names one of the path-like values supplied by the
	// surrounding build process.
	LocationName string

	// InvalidLocationNameError is returned for an unknown LocationName.
	InvalidLocationNameError struct {
		Value LocationName
	}

	// Locations holds the build-process paths substituted verbatim into
	// generator flags. Zero fields are unset.
	Locations struct {
		ExternalLibs    types.FilesystemPath `json:"external_libs" yaml:"external_libs"`
		ExternalLibsBin types.FilesystemPath `json:"external_libs_bin" yaml:"external_libs_bin"`
		ThirdPartyLibs  types.FilesystemPath `json:"third_party_libs" yaml:"third_party_libs"`
	}
)

// String returns the string representation of the LocationName.
func (n LocationName) String() string { return string(n) }

// Validate returns nil if n is a known location name.
func (n LocationName) Validate() error {
	switch n {
	case LocationExternalLibs, LocationExternalLibsBin, LocationThirdPartyLibs, LocationDependency:
		return nil
	default:
		return &InvalidLocationNameError{Value: n}
	}
}

// Error implements the error interface.
func (e *InvalidLocationNameError) Error() string {
	return fmt.Sprintf("invalid location %q (expected external_libs, external_libs_bin, third_party_libs or dependency)", e.Value)
}

// Unwrap returns ErrInvalidLocationName so callers can use errors.Is.
func (e *InvalidLocationNameError) Unwrap() error { return ErrInvalidLocationName }

// Lookup returns the value of a build-process location. LocationDependency
// is not a build-process location and always fails here.
func (l Locations) Lookup(name LocationName) (types.FilesystemPath, error) {
	var p types.FilesystemPath
	switch name {
	case LocationExternalLibs:
		p = l.ExternalLibs
	case LocationExternalLibsBin:
		p = l.ExternalLibsBin
	case LocationThirdPartyLibs:
		p = l.ThirdPartyLibs
	default:
		return "", &InvalidLocationNameError{Value: name}
	}
	if p == "" {
		return "", fmt.Errorf("%w: %s", ErrLocationNotSet, name)
	}
	return p, nil
}

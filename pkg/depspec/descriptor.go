// SPDX-License-Identifier: MPL-2.0

package depspec

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/extdeps/extdeps/pkg/types"
)

var (
	// ErrInvalidDependencyName is the sentinel error wrapped by InvalidDependencyNameError.
	ErrInvalidDependencyName = errors.New("invalid dependency name")
	// ErrInvalidGitURL is the sentinel error wrapped by InvalidGitURLError.
	ErrInvalidGitURL = errors.New("invalid git URL")
	// ErrInvalidGitCommit is the sentinel error wrapped by InvalidGitCommitError.
	ErrInvalidGitCommit = errors.New("invalid git commit")
	// ErrInvalidBranch is the sentinel error wrapped by InvalidBranchError.
	ErrInvalidBranch = errors.New("invalid branch")
	// ErrInvalidDescriptor is the sentinel error wrapped by InvalidDescriptorError.
	ErrInvalidDescriptor = errors.New("invalid dependency descriptor")

	dependencyNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)
	// gitCommitPattern accepts abbreviated (>= 4) and full 40-character lowercase hex SHAs.
	gitCommitPattern = regexp.MustCompile(`^[0-9a-f]{4,40}$`)
)

type (
	// DependencyName is the logical identifier of a dependency ("util_dmx").
	DependencyName string

	// InvalidDependencyNameError is returned when a DependencyName is empty
	// or contains characters other than letters, digits, '_', '.' and '-'.
	InvalidDependencyNameError struct {
		Value DependencyName
	}

	// GitURL is a repository location: https://, http://, git://, ssh://,
	// file://, scp-style git@host:path, or an absolute local path.
	GitURL string

	// InvalidGitURLError is returned when a GitURL has no supported form.
	InvalidGitURLError struct {
		Value GitURL
	}

	// GitCommit is a lowercase hexadecimal commit SHA. Abbreviated hashes
	// (4 to 39 characters) are accepted and expanded during checkout.
	GitCommit string

	// InvalidGitCommitError is returned when a GitCommit is not 4-40 lowercase hex characters.
	InvalidGitCommitError struct {
		Value GitCommit
	}

	// Branch is an optional branch name used as a fetch hint.
	Branch string

	// InvalidBranchError is returned when a Branch is not a valid ref short name.
	InvalidBranchError struct {
		Value  Branch
		Reason string
	}

	// Descriptor identifies one external dependency and its pinned version.
	Descriptor struct {
		Name       DependencyName
		TargetPath types.FilesystemPath
		GitURL     GitURL
		Commit     GitCommit
		// Branch is optional; empty means the remote's default refs.
		Branch Branch
	}

	// InvalidDescriptorError collects the field errors of a Descriptor.
	InvalidDescriptorError struct {
		Name        DependencyName
		FieldErrors []error
	}
)

// String returns the string representation of the DependencyName.
func (n DependencyName) String() string { return string(n) }

// Validate returns nil if the name is a valid dependency identifier.
func (n DependencyName) Validate() error {
	if !dependencyNamePattern.MatchString(string(n)) {
		return &InvalidDependencyNameError{Value: n}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidDependencyNameError) Error() string {
	return fmt.Sprintf("invalid dependency name %q (letters, digits, '_', '.' and '-' only)", e.Value)
}

// Unwrap returns ErrInvalidDependencyName so callers can use errors.Is.
func (e *InvalidDependencyNameError) Unwrap() error { return ErrInvalidDependencyName }

// String returns the string representation of the GitURL.
func (u GitURL) String() string { return string(u) }

// Validate returns nil if the URL has a supported form.
func (u GitURL) Validate() error {
	s := string(u)
	if strings.TrimSpace(s) != s || s == "" {
		return &InvalidGitURLError{Value: u}
	}
	for _, prefix := range []string{"https://", "http://", "git://", "ssh://", "file://", "git@"} {
		if strings.HasPrefix(s, prefix) && len(s) > len(prefix) {
			return nil
		}
	}
	if filepath.IsAbs(s) {
		return nil
	}
	return &InvalidGitURLError{Value: u}
}

// IsSSH reports whether the URL is reached over SSH.
func (u GitURL) IsSSH() bool {
	s := string(u)
	return strings.HasPrefix(s, "git@") || strings.HasPrefix(s, "ssh://")
}

// Error implements the error interface.
func (e *InvalidGitURLError) Error() string {
	return fmt.Sprintf("invalid git URL %q (must start with https://, http://, git://, ssh://, file://, git@, or be an absolute path)", e.Value)
}

// Unwrap returns ErrInvalidGitURL so callers can use errors.Is.
func (e *InvalidGitURLError) Unwrap() error { return ErrInvalidGitURL }

// String returns the string representation of the GitCommit.
func (c GitCommit) String() string { return string(c) }

// Validate returns nil if the commit is 4-40 lowercase hex characters.
func (c GitCommit) Validate() error {
	if !gitCommitPattern.MatchString(string(c)) {
		return &InvalidGitCommitError{Value: c}
	}
	return nil
}

// IsFull reports whether the commit is a full 40-character SHA.
func (c GitCommit) IsFull() bool { return len(c) == 40 }

// Short returns the first 12 characters of the commit for display.
func (c GitCommit) Short() string {
	if len(c) > 12 {
		return string(c[:12])
	}
	return string(c)
}

// Matches reports whether other names the same commit, allowing either side
// to be abbreviated.
func (c GitCommit) Matches(other GitCommit) bool {
	if c == "" || other == "" {
		return false
	}
	return strings.HasPrefix(string(c), string(other)) || strings.HasPrefix(string(other), string(c))
}

// Error implements the error interface.
func (e *InvalidGitCommitError) Error() string {
	return fmt.Sprintf("invalid git commit %q (must be 4-40 lowercase hex characters)", e.Value)
}

// Unwrap returns ErrInvalidGitCommit so callers can use errors.Is.
func (e *InvalidGitCommitError) Unwrap() error { return ErrInvalidGitCommit }

// String returns the string representation of the Branch.
func (b Branch) String() string { return string(b) }

// Validate returns nil for the empty branch or a valid ref short name.
func (b Branch) Validate() error {
	s := string(b)
	switch {
	case s == "":
		return nil
	case strings.ContainsAny(s, " \t\n~^:?*[\\"):
		return &InvalidBranchError{Value: b, Reason: "contains a forbidden character"}
	case strings.HasPrefix(s, "-"), strings.HasPrefix(s, "/"), strings.HasSuffix(s, "/"):
		return &InvalidBranchError{Value: b, Reason: "must not start with '-' or start/end with '/'"}
	case strings.Contains(s, ".."), strings.Contains(s, "@{"), strings.HasSuffix(s, ".lock"):
		return &InvalidBranchError{Value: b, Reason: "contains a reserved sequence"}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidBranchError) Error() string {
	return fmt.Sprintf("invalid branch %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidBranch so callers can use errors.Is.
func (e *InvalidBranchError) Unwrap() error { return ErrInvalidBranch }

// Validate checks every field and returns an InvalidDescriptorError listing all failures.
func (d Descriptor) Validate() error {
	var errs []error
	if err := d.Name.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := d.TargetPath.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := d.GitURL.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := d.Commit.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := d.Branch.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return &InvalidDescriptorError{Name: d.Name, FieldErrors: errs}
	}
	return nil
}

// String renders the descriptor as "name (url@commit)".
func (d Descriptor) String() string {
	s := fmt.Sprintf("%s (%s@%s", d.Name, d.GitURL, d.Commit.Short())
	if d.Branch != "" {
		s += ", branch " + string(d.Branch)
	}
	return s + ")"
}

// Error implements the error interface.
func (e *InvalidDescriptorError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, err := range e.FieldErrors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("invalid dependency %q: %s", e.Name, strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidDescriptor followed by the field errors.
func (e *InvalidDescriptorError) Unwrap() []error {
	return append([]error{ErrInvalidDescriptor}, e.FieldErrors...)
}

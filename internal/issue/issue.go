// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"os"
	"os/exec"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/extdeps/extdeps/internal/toolerr"
	"github.com/extdeps/extdeps/pkg/depspec"
)

type Id int

const (
	ManifestNotFoundId Id = iota + 1
	ManifestParseErrorId
	DependencyNotFoundId
	NetworkFailureId
	RefNotFoundId
	FilesystemFailureId
	ToolInvocationFailedId
	ToolNotFoundId
	ConfigLoadFailedId
	LocationNotSetId
	PermissionDeniedId
)

const docBase = "https://github.com/extdeps/extdeps/blob/main/docs/"

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // must never be empty
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n## See also\n"
		for _, link := range i.docLinks {
			extraMd += "\n- <" + string(link) + ">"
		}
		for _, link := range i.extLinks {
			extraMd += "\n- <" + string(link) + ">"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	manifestNotFoundIssue = &Issue{
		id:       ManifestNotFoundId,
		docLinks: []HttpLink{docBase + "manifest.md"},
		mdMsg: `
# No extdeps.cue found!

extdeps reads the dependency list from an extdeps.cue manifest.

## Things you can try:
- Create a starter manifest in the project root:
~~~
$ extdeps init
~~~

- Or point at an existing one:
~~~
$ extdeps --manifest path/to/extdeps.cue provision
~~~`,
	}

	manifestParseErrorIssue = &Issue{
		id:       ManifestParseErrorId,
		docLinks: []HttpLink{docBase + "manifest.md"},
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
		mdMsg: `
# Failed to parse extdeps.cue!

The manifest contains invalid CUE or does not match the schema.

## Common issues:
- A commit that is not 7 to 40 hex characters
- Two dependencies with the same name or checkout path
- A define with both ` + "`value`" + ` and ` + "`location`" + `
- The ` + "`dependency`" + ` location used outside a dependency

## Example dependency:
~~~cue
dependencies: [{
	name:    "util_dmx"
	git_url: "https://github.com/Silverlan/util_dmx.git"
	commit:  "377524efcadcfe67a060b5e029191f975e676376"
	targets: ["pr_dmx"]
}]
~~~`,
	}

	dependencyNotFoundIssue = &Issue{
		id:       DependencyNotFoundId,
		docLinks: []HttpLink{docBase + "manifest.md"},
		mdMsg: `
# Dependency not found!

The name you passed is not declared in the manifest.

## Things you can try:
- List the declared dependencies:
~~~
$ extdeps list
~~~`,
	}

	networkFailureIssue = &Issue{
		id:       NetworkFailureId,
		docLinks: []HttpLink{docBase + "authentication.md"},
		mdMsg: `
# Could not reach the remote repository!

A clone or fetch failed before any commit could be checked.

## Things you can try:
- Check the ` + "`git_url`" + ` in extdeps.cue
- For private HTTPS remotes export ` + "`GITHUB_TOKEN`" + `, ` + "`GITLAB_TOKEN`" + ` or ` + "`GIT_TOKEN`" + `
- For SSH remotes make sure ` + "`ssh-agent`" + ` holds your key
- Retry with a longer timeout:
~~~
$ extdeps --timeout 10m provision
~~~`,
	}

	refNotFoundIssue = &Issue{
		id:       RefNotFoundId,
		docLinks: []HttpLink{docBase + "manifest.md"},
		mdMsg: `
# Commit or branch not found!

The remote was reachable but does not have the pinned commit or branch.

## Things you can try:
- Verify the commit exists upstream:
~~~
$ git ls-remote <git_url>
~~~

- If the commit only lives on a branch, set ` + "`branch`" + ` for that dependency
- Check that the commit was not removed by a force push`,
	}

	filesystemFailureIssue = &Issue{
		id:       FilesystemFailureId,
		docLinks: []HttpLink{docBase + "locations.md"},
		mdMsg: `
# Filesystem error!

A checkout directory could not be created, read or replaced.

## Things you can try:
- Make sure ` + "`EXTERNAL_LIBS_DIR`" + ` points to a writable directory
- Remove a stray non-git directory at the checkout path
- Check free disk space`,
	}

	toolInvocationFailedIssue = &Issue{
		id:       ToolInvocationFailedId,
		docLinks: []HttpLink{docBase + "generator.md"},
		mdMsg: `
# External tool failed!

git, the generator, or a post_checkout hook exited with an error.

## Things you can try:
- Read the tool output printed above
- Print the generator command without running it:
~~~
$ extdeps provision --dry-run
~~~

- Re-run with ` + "`--verbose`" + ` for the full error chain`,
	}

	toolNotFoundIssue = &Issue{
		id:       ToolNotFoundId,
		docLinks: []HttpLink{docBase + "configuration.md"},
		extLinks: []HttpLink{"https://cmake.org/download/", "https://git-scm.com/downloads"},
		mdMsg: `
# Tool not found!

A required executable is not on your PATH.

## Things you can try:
- Install cmake or git
- Point extdeps at the binary in your config:
~~~cue
generator: binary: "/opt/cmake/bin/cmake"
git: binary: "/usr/local/bin/git"
~~~

- Use the built-in git implementation:
~~~cue
git: backend: "gogit"
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id:       ConfigLoadFailedId,
		docLinks: []HttpLink{docBase + "configuration.md"},
		mdMsg: `
# Failed to load configuration!

## Things you can try:
- Show the effective configuration:
~~~
$ extdeps config show
~~~

- Write a fresh default file:
~~~
$ extdeps config init
~~~`,
	}

	locationNotSetIssue = &Issue{
		id:       LocationNotSetId,
		docLinks: []HttpLink{docBase + "locations.md"},
		mdMsg: `
# Build location not set!

A dependency or define refers to a location that has no value.

## Things you can try:
- Export the matching variable:
~~~
$ export EXTERNAL_LIBS_DIR=$PWD/external_libs
$ export EXTERNAL_LIBS_BIN_DIR=$PWD/external_libs/bin
$ export THIRD_PARTY_LIBS_DIR=$PWD/third_party
~~~

- Or set ` + "`locations`" + ` in your config file`,
	}

	permissionDeniedIssue = &Issue{
		id:       PermissionDeniedId,
		docLinks: []HttpLink{docBase + "locations.md"},
		mdMsg: `
# Permission denied!

## Things you can try:
- Check ownership of the external libraries directory
- Run extdeps from a directory you own`,
	}

	issues = map[Id]*Issue{
		manifestNotFoundIssue.Id():     manifestNotFoundIssue,
		manifestParseErrorIssue.Id():   manifestParseErrorIssue,
		dependencyNotFoundIssue.Id():   dependencyNotFoundIssue,
		networkFailureIssue.Id():       networkFailureIssue,
		refNotFoundIssue.Id():          refNotFoundIssue,
		filesystemFailureIssue.Id():    filesystemFailureIssue,
		toolInvocationFailedIssue.Id(): toolInvocationFailedIssue,
		toolNotFoundIssue.Id():         toolNotFoundIssue,
		configLoadFailedIssue.Id():     configLoadFailedIssue,
		locationNotSetIssue.Id():       locationNotSetIssue,
		permissionDeniedIssue.Id():     permissionDeniedIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}

// ForError picks the catalog entry that best explains err, or nil.
func ForError(err error) *Issue {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, depspec.ErrManifestNotFound):
		return Get(ManifestNotFoundId)
	case errors.Is(err, depspec.ErrInvalidManifest):
		return Get(ManifestParseErrorId)
	case errors.Is(err, depspec.ErrDependencyNotFound):
		return Get(DependencyNotFoundId)
	case errors.Is(err, depspec.ErrLocationNotSet):
		return Get(LocationNotSetId)
	case errors.Is(err, exec.ErrNotFound):
		return Get(ToolNotFoundId)
	case errors.Is(err, os.ErrPermission):
		return Get(PermissionDeniedId)
	}

	switch toolerr.KindOf(err) {
	case toolerr.KindRefNotFound:
		return Get(RefNotFoundId)
	case toolerr.KindNetwork:
		return Get(NetworkFailureId)
	case toolerr.KindFilesystem:
		return Get(FilesystemFailureId)
	case toolerr.KindToolInvocation:
		return Get(ToolInvocationFailedId)
	default:
		return nil
	}
}

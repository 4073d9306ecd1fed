// SPDX-License-Identifier: MPL-2.0

package depspec

// SkeletonManifest is written by "extdeps init". It parses as a valid manifest.
const SkeletonManifest = `// extdeps manifest: external dependencies pinned to exact commits.

dependencies: [
	{
		name:    "util_dmx"
		git_url: "https://github.com/Silverlan/util_dmx.git"
		commit:  "377524efcadcfe67a060b5e029191f975e676376"
		targets: ["pr_dmx"]
	},
]

defines: [
	{key: "PME_EXTERNAL_LIB_LOCATION", location:     "external_libs"},
	{key: "PME_EXTERNAL_LIB_BIN_LOCATION", location: "external_libs_bin"},
	{key: "PME_THIRD_PARTY_LIB_LOCATION", location:  "third_party_libs"},
]

generator: {
	source_dir: "."
	build_dir:  "build"
}
`

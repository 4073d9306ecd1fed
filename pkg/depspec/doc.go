// SPDX-License-Identifier: MPL-2.0

// Package depspec describes pinned external dependencies.
//
// A project lists its dependencies in an "extdeps.cue" manifest:
//
//	dependencies: [{
//		name:    "util_dmx"
//		git_url: "https://github.com/Silverlan/util_dmx.git"
//		commit:  "377524efcadcfe67a060b5e029191f975e676376"
//		targets: ["pr_dmx"]
//	}]
//
//	defines: [
//		{key: "PME_EXTERNAL_LIB_LOCATION", location: "external_libs"},
//		{key: "PME_EXTERNAL_LIB_BIN_LOCATION", location: "external_libs_bin"},
//		{key: "PME_THIRD_PARTY_LIB_LOCATION", location: "third_party_libs"},
//	]
//
// Each manifest entry resolves, against the build Locations, into a
// Descriptor: the exact record the provisioner needs to check the
// dependency out.
package depspec

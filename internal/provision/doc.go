// SPDX-License-Identifier: MPL-2.0

// Package provision makes sure external dependencies are checked out at
// their pinned commits.
//
// The main entry point is Provisioner.EnsureCheckedOut:
//
//	p := provision.New(vcs.NewGoGit())
//	res, err := p.EnsureCheckedOut(ctx, depspec.Descriptor{
//		Name:       "util_dmx",
//		TargetPath: "external_libs/util_dmx",
//		GitURL:     "https://github.com/Silverlan/util_dmx.git",
//		Commit:     "377524efcadcfe67a060b5e029191f975e676376",
//	})
//
// A fresh checkout is cloned into a hidden staging directory next to the
// target and renamed into place only after the pinned commit is checked out,
// so a failed clone never leaves a partial tree behind. An existing checkout
// is fetched only when the pinned commit is missing locally, which makes
// repeated runs free of network access.
//
// LockFile records what was provisioned (extdeps.lock.toml).
package provision

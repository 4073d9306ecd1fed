// SPDX-License-Identifier: MPL-2.0

// Package vcs provides the version-control operations the provisioner needs:
// clone, fetch, detached checkout of a pinned commit, and a few queries.
//
// Two backends implement Client. GoGit runs in-process on go-git and needs no
// git installation. CLI shells out to the git binary and honors the user's
// git configuration (credential helpers, proxies, insteadOf rewrites).
//
// Every error returned by a Client is classified with the toolerr taxonomy,
// so callers can branch on toolerr.ErrNetwork, toolerr.ErrRefNotFound,
// toolerr.ErrFilesystem and toolerr.ErrToolInvocation.
package vcs

// SPDX-License-Identifier: MPL-2.0

// Package testutil provides test fixtures shared across packages: local git
// repositories to clone from (NewGitRepo), a controllable clock (FakeClock),
// a limiter for container-backed tests (ContainerSemaphore) and a few Must*
// helpers that fail the test instead of returning errors.
package testutil

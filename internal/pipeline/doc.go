// SPDX-License-Identifier: MPL-2.0

// Package pipeline runs the provisioning step of a build: every manifest
// dependency is checked out in order, its generator flags and build targets
// are accumulated, the lock file is updated, and the generator is invoked
// once with the merged configuration.
package pipeline

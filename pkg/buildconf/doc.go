// SPDX-License-Identifier: MPL-2.0

// Package buildconf accumulates the generator flags and additional build
// targets contributed by external dependencies.
//
// A Config is an immutable value: AppendFlags, AppendTargets and Merge return
// a new Config and never mutate the receiver, so a Config can be shared
// between goroutines and handed to several provisioning steps that each
// extend it.
//
//	cfg := buildconf.New()
//	cfg, _ = cfg.AppendFlags("-DPME_EXTERNAL_LIB_LOCATION=/src/external_libs")
//	cfg, _ = cfg.AppendTargets("pr_dmx")
//	cfg.Flags()   // [-DPME_EXTERNAL_LIB_LOCATION=/src/external_libs]
//	cfg.Targets() // [pr_dmx]
package buildconf

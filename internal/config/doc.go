// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/extdeps/config.cue (or the XDG equivalent on Linux,
// ~/Library/Application Support/extdeps/config.cue on macOS, %APPDATA%\extdeps\config.cue
// on Windows), falling back to a project-local extdeps.config.cue. It selects the git
// backend, the generator binary and runtime, the build locations and UI settings.
//
// Files are validated against an embedded CUE schema (config_schema.cue). Environment
// variables override file values: EXTDEPS_<SECTION>_<KEY> for every key, plus
// EXTERNAL_LIBS_DIR, EXTERNAL_LIBS_BIN_DIR and THIRD_PARTY_LIBS_DIR for the locations.
package config

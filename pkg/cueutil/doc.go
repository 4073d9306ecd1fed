// SPDX-License-Identifier: MPL-2.0

// Package cueutil decodes CUE documents against an embedded schema.
//
//	//go:embed manifest_schema.cue
//	var schema []byte
//
//	m, err := cueutil.Decode[Manifest](schema, data, "#Manifest", cueutil.WithFilename("extdeps.cue"))
//
// Errors name the file and the path of the offending field, for example
// "extdeps.cue: dependencies[0].commit: invalid value".
package cueutil

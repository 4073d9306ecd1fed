// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// DefaultMaxFileSize bounds the input accepted by Decode unless
// WithMaxFileSize says otherwise.
const DefaultMaxFileSize int64 = 5 * 1024 * 1024

type (
	decodeOptions struct {
		maxFileSize int64
		filename    string
	}

	// Option configures Decode.
	Option func(*decodeOptions)
)

// WithMaxFileSize sets the maximum accepted input size in bytes.
func WithMaxFileSize(size int64) Option {
	return func(o *decodeOptions) { o.maxFileSize = size }
}

// WithFilename sets the file name reported in errors.
func WithFilename(name string) Option {
	return func(o *decodeOptions) { o.filename = name }
}

// Decode unifies data with the definition at def in schema, requires every
// field to be concrete and decodes the result into a T. Schema problems are
// reported as internal errors; data problems are formatted by FormatError.
func Decode[T any](schema, data []byte, def string, opts ...Option) (*T, error) {
	o := decodeOptions{maxFileSize: DefaultMaxFileSize, filename: "<input>"}
	for _, opt := range opts {
		opt(&o)
	}

	if err := CheckFileSize(data, o.maxFileSize, o.filename); err != nil {
		return nil, err
	}

	ctx := cuecontext.New()
	root := ctx.CompileBytes(schema).LookupPath(cue.ParsePath(def))
	if err := root.Err(); err != nil {
		return nil, fmt.Errorf("internal error: schema definition %s: %w", def, err)
	}

	user := ctx.CompileBytes(data, cue.Filename(o.filename))
	if err := user.Err(); err != nil {
		return nil, FormatError(err, o.filename)
	}

	unified := root.Unify(user)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, FormatError(err, o.filename)
	}

	var out T
	if err := unified.Decode(&out); err != nil {
		return nil, FormatError(err, o.filename)
	}
	return &out, nil
}

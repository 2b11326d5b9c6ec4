// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// Decode validates data against the definition named by def inside schema and
// decodes the unified value into a T. Since JSON is a subset of CUE, data may be
// either a JSON document (istrap.json) or a CUE file (config.cue).
//
//	//go:embed descriptor_schema.cue
//	var descriptorSchema []byte
//
//	d, err := cueutil.Decode[descriptorFile](descriptorSchema, "#Descriptor", data,
//	    cueutil.WithFilename(path))
func Decode[T any](schema []byte, def string, data []byte, opts ...Option) (*T, error) {
	unified, options, err := unify(schema, def, data, opts)
	if err != nil {
		return nil, err
	}

	var out T
	if err := unified.Decode(&out); err != nil {
		return nil, FormatError(err, options.filename)
	}
	return &out, nil
}

// DecodeMap is Decode for callers that merge the result into a generic
// key/value store such as viper.
func DecodeMap(schema []byte, def string, data []byte, opts ...Option) (map[string]any, error) {
	unified, options, err := unify(schema, def, data, opts)
	if err != nil {
		return nil, err
	}

	var out map[string]any
	if err := unified.Decode(&out); err != nil {
		return nil, FormatError(err, options.filename)
	}
	return out, nil
}

func unify(schema []byte, def string, data []byte, opts []Option) (cue.Value, decodeOptions, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	if err := CheckFileSize(data, options.maxFileSize, options.filename); err != nil {
		return cue.Value{}, options, err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileBytes(schema)
	if schemaValue.Err() != nil {
		return cue.Value{}, options, fmt.Errorf("internal error: compiling schema: %w", schemaValue.Err())
	}
	root := schemaValue.LookupPath(cue.ParsePath(def))
	if root.Err() != nil {
		return cue.Value{}, options, fmt.Errorf("internal error: schema definition %s: %w", def, root.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(options.filename))
	if userValue.Err() != nil {
		return cue.Value{}, options, FormatError(userValue.Err(), options.filename)
	}

	unified := root.Unify(userValue)
	if err := unified.Validate(cue.Concrete(options.concrete)); err != nil {
		return cue.Value{}, options, FormatError(err, options.filename)
	}
	return unified, options, nil
}

// FormatError flattens a CUE error list into "<file>: <json-path>: <message>"
// lines. Non-CUE errors are wrapped with the file name.
func FormatError(err error, filename string) error {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return fmt.Errorf("%s: %w", filename, err)
	}

	lines := make([]string, 0, len(errs))
	for _, e := range errs {
		path := formatPath(cueerrors.Path(e))
		msg := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(e.Error(), path), ":"))
		if path == "" {
			lines = append(lines, msg)
			continue
		}
		lines = append(lines, path+": "+msg)
	}

	if len(lines) == 1 {
		return fmt.Errorf("%s: %s", filename, lines[0])
	}
	return fmt.Errorf("%s: validation failed:\n  %s", filename, strings.Join(lines, "\n  "))
}

// formatPath renders ["load_paths", "0"] as "load_paths[0]".
func formatPath(path []string) string {
	var sb strings.Builder
	for i, part := range path {
		if i > 0 && isIndex(part) {
			sb.WriteString("[" + part + "]")
			continue
		}
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(part)
	}
	return sb.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// CheckFileSize rejects documents larger than maxSize.
func CheckFileSize(data []byte, maxSize int64, filename string) error {
	if int64(len(data)) > maxSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", filename, len(data), maxSize)
	}
	return nil
}

// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package optimizer

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError reports a malformed or out-of-range request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// UnsupportedFormatError reports an input extension or output format outside
// the supported set.
type UnsupportedFormatError struct {
	Value     string
	Supported []string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format %q (supported: %s)", e.Value, strings.Join(e.Supported, ", "))
}

// InvalidFontError reports an input that fails the shallow signature check or
// has no bytes.
type InvalidFontError struct {
	Path   string
	Reason string
}

func (e *InvalidFontError) Error() string {
	return fmt.Sprintf("invalid font %s: %s", e.Path, e.Reason)
}

// TransformError reports a failure after validation passed: engine errors,
// empty output and I/O errors.
type TransformError struct {
	Path string
	Err  error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("failed to optimize %s: %v", e.Path, e.Err)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

var (
	errEmptyInput  = errors.New("input file is empty")
	errEmptyOutput = errors.New("subsetting engine produced no output")
	errNoChars     = errors.New("requested subsets contain no characters")
)

// isCallerError reports whether err is one of the kinds that are returned
// to the caller unwrapped.
func isCallerError(err error) bool {
	var (
		ve *ValidationError
		ue *UnsupportedFormatError
		ie *InvalidFontError
		te *TransformError
	)
	return errors.As(err, &ve) || errors.As(err, &ue) || errors.As(err, &ie) || errors.As(err, &te)
}

// wrap turns err into a *TransformError unless it already is a recognized
// kind.
func wrap(path string, err error) error {
	if err == nil || isCallerError(err) {
		return err
	}
	return &TransformError{Path: path, Err: err}
}

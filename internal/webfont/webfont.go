// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package webfont converts between raw sfnt fonts and the WOFF and WOFF2 web
// font containers.
package webfont

import (
	"bytes"
	"fmt"

	"github.com/staranto/fontslim/internal/fontfile"
)

// Encode wraps a raw sfnt in the container for f. FormatTTF returns the sfnt
// unchanged.
func Encode(sfnt []byte, f fontfile.Format) ([]byte, error) {
	switch f {
	case fontfile.FormatTTF:
		return sfnt, nil
	case fontfile.FormatWOFF:
		return EncodeWOFF(sfnt)
	case fontfile.FormatWOFF2:
		return EncodeWOFF2(sfnt)
	default:
		return nil, fmt.Errorf("unsupported container format %q", f)
	}
}

// Decode sniffs the container of b and returns the raw sfnt inside. Raw
// TrueType and OpenType data is returned unchanged.
func Decode(b []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(b, []byte("wOFF")):
		return DecodeWOFF(b)
	case bytes.HasPrefix(b, []byte("wOF2")):
		return DecodeWOFF2(b)
	default:
		return b, nil
	}
}

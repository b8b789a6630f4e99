// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fontfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Format is an output container format.
type Format string

const (
	FormatWOFF2 Format = "woff2"
	FormatWOFF  Format = "woff"
	FormatTTF   Format = "ttf"
)

// DefaultFormat is used when a request leaves the format empty.
const DefaultFormat = FormatWOFF2

// OutputFormats lists the supported output formats.
var OutputFormats = []Format{FormatWOFF2, FormatWOFF, FormatTTF}

// InputExts lists the file extensions accepted as optimizer input.
var InputExts = []string{".ttf", ".otf", ".woff", ".woff2"}

// ParseFormat returns the Format named by s, or false if unsupported.
func ParseFormat(s string) (Format, bool) {
	s = strings.ToLower(strings.TrimPrefix(s, "."))
	for _, f := range OutputFormats {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

// Ext returns the file extension for f, including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// CSSFormat returns the value used inside format() of an @font-face src.
func (f Format) CSSFormat() string {
	if f == FormatTTF {
		return "truetype"
	}
	return string(f)
}

// IsInputExt reports whether ext (with dot, any case) is a supported input.
func IsInputExt(ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range InputExts {
		if e == ext {
			return true
		}
	}
	return false
}

var (
	sigTrueType = []byte{0x00, 0x01, 0x00, 0x00}
	sigTrue     = []byte("true")
	sigOTTO     = []byte("OTTO")
	sigWOFF     = []byte("wOFF")
	sigWOFF2    = []byte("wOF2")
)

// signatures maps an input extension to the leading bytes it may start with.
var signatures = map[string][][]byte{
	".ttf":   {sigTrueType, sigTrue},
	".otf":   {sigOTTO, sigTrueType},
	".woff":  {sigWOFF},
	".woff2": {sigWOFF2},
}

// ErrEmptyFile is returned by CheckSignature for zero-byte files.
var ErrEmptyFile = errors.New("file is empty")

// CheckSignature reads the first four bytes of path and verifies they match
// a signature valid for ext.
func CheckSignature(path, ext string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	head := make([]byte, 4) //nolint:mnd
	n, err := io.ReadFull(f, head)
	if n == 0 {
		return ErrEmptyFile
	}
	if err != nil {
		return fmt.Errorf("file too short for a %s font", ext)
	}
	return MatchSignature(head, ext)
}

// MatchSignature verifies that head starts with a signature valid for ext.
func MatchSignature(head []byte, ext string) error {
	sigs, ok := signatures[strings.ToLower(ext)]
	if !ok {
		return fmt.Errorf("no signature known for %s", ext)
	}
	for _, sig := range sigs {
		if bytes.HasPrefix(head, sig) {
			return nil
		}
	}
	return fmt.Errorf("signature %q does not match a %s font", head[:min(len(head), 4)], ext)
}

// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fontfile

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Descriptor is a snapshot of a font file on disk taken when it was read.
type Descriptor struct {
	Path          string `json:"path"`
	Name          string `json:"name"`
	Ext           string `json:"ext"`
	Size          int64  `json:"size"`
	SizeFormatted string `json:"sizeFormatted"`
}

// Describe stats path and returns its Descriptor. The path is made absolute.
func Describe(path string) (Descriptor, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Descriptor{}, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return Descriptor{}, err
	}
	if info.IsDir() {
		return Descriptor{}, fmt.Errorf("%s is a directory", abs)
	}
	return NewDescriptor(abs, info.Size()), nil
}

// NewDescriptor builds a Descriptor from a path and a known byte size.
func NewDescriptor(path string, size int64) Descriptor {
	return Descriptor{
		Path:          path,
		Name:          filepath.Base(path),
		Ext:           strings.ToLower(filepath.Ext(path)),
		Size:          size,
		SizeFormatted: FormatSize(size),
	}
}

// FormatSize renders a byte count for humans, e.g. "2.4 MB".
func FormatSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

// Reduction returns (1 - optimized/original) * 100 with one decimal place.
func Reduction(original, optimized int64) string {
	if original <= 0 {
		return "0.0"
	}
	r := (1 - float64(optimized)/float64(original)) * 100 //nolint:mnd
	return strconv.FormatFloat(r, 'f', 1, 64)
}

// HashBytes returns the hex MD5 of b.
func HashBytes(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}

// ContentHash returns the hex MD5 of the file at path.
func ContentHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package optimizer

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/staranto/fontslim/internal/charset"
	"github.com/staranto/fontslim/internal/fontfile"
)

const (
	MinWeight = 100
	MaxWeight = 900

	DefaultDisplay = "swap"
)

// Displays lists the accepted font-display values.
var Displays = []string{"auto", "block", "swap", "fallback", "optional"}

// Request configures the optimization of a single font.
//
// Zero values mean "default" or "infer": FontWeight 0 and an empty FontStyle
// are inferred from the file name, an empty Format is woff2, an empty
// FontDisplay is swap and nil Subsets selects every built-in subset. An empty
// but non-nil Subsets is rejected.
type Request struct {
	InputPath   string
	OutputDir   string
	FontFamily  string
	FontWeight  int
	FontStyle   string
	FontDisplay string
	Format      fontfile.Format
	Subsets     []string
	Hash        bool
	UseCache    bool
	CacheDir    string
}

// resolved is a validated Request with every default and inference applied.
type resolved struct {
	Request
	absInput string
	ext      string
	family   string
	weight   int
	style    string
	display  string
	format   fontfile.Format
	chars    *charset.Set
}

// validate checks the request fields and then the input file itself. It
// never touches the cache.
func validate(req Request) (*resolved, error) {
	if strings.TrimSpace(req.InputPath) == "" {
		return nil, &ValidationError{Field: "inputPath", Message: "is required"}
	}
	if strings.TrimSpace(req.OutputDir) == "" {
		return nil, &ValidationError{Field: "outputDir", Message: "is required"}
	}

	r := &resolved{Request: req}

	r.format = fontfile.DefaultFormat
	if req.Format != "" {
		f, ok := fontfile.ParseFormat(string(req.Format))
		if !ok {
			return nil, &UnsupportedFormatError{Value: string(req.Format), Supported: formatNames()}
		}
		r.format = f
	}

	if req.FontWeight != 0 && (req.FontWeight < MinWeight || req.FontWeight > MaxWeight) {
		return nil, &ValidationError{Field: "fontWeight", Message: "must be between 100 and 900"}
	}

	switch req.FontStyle {
	case "", fontfile.StyleNormal, fontfile.StyleItalic:
	default:
		return nil, &ValidationError{Field: "fontStyle", Message: `must be "normal" or "italic"`}
	}

	r.display = DefaultDisplay
	if req.FontDisplay != "" {
		if !contains(Displays, req.FontDisplay) {
			return nil, &ValidationError{Field: "fontDisplay", Message: "must be one of " + strings.Join(Displays, ", ")}
		}
		r.display = req.FontDisplay
	}

	subsets := req.Subsets
	if subsets == nil {
		subsets = charset.Names()
	}
	if len(subsets) == 0 {
		return nil, &ValidationError{Field: "subsets", Message: "must not be empty"}
	}
	for _, s := range subsets {
		if !charset.Known(s) {
			return nil, &ValidationError{Field: "subsets", Message: "unknown subset " + s}
		}
	}
	chars, err := charset.Resolve(subsets)
	if err != nil {
		return nil, &ValidationError{Field: "subsets", Message: err.Error()}
	}
	r.chars = chars

	if err := r.checkInput(); err != nil {
		return nil, err
	}

	md := fontfile.ParseFilename(r.absInput)
	r.family = strings.TrimSpace(req.FontFamily)
	if r.family == "" {
		r.family = md.Family
	}
	r.weight = req.FontWeight
	if r.weight == 0 {
		r.weight = md.Weight
	}
	r.style = req.FontStyle
	if r.style == "" {
		r.style = md.Style
	}
	return r, nil
}

// checkInput verifies the input exists, has a supported extension, is not
// empty and starts with a matching signature.
func (r *resolved) checkInput() error {
	abs, err := filepath.Abs(r.InputPath)
	if err != nil {
		return &ValidationError{Field: "inputPath", Message: err.Error()}
	}
	r.absInput = abs
	r.ext = strings.ToLower(filepath.Ext(abs))

	if !fontfile.IsInputExt(r.ext) {
		return &UnsupportedFormatError{Value: r.ext, Supported: fontfile.InputExts}
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &ValidationError{Field: "inputPath", Message: "file does not exist: " + abs}
		}
		return &ValidationError{Field: "inputPath", Message: err.Error()}
	}
	if info.IsDir() {
		return &ValidationError{Field: "inputPath", Message: "is a directory: " + abs}
	}
	if info.Size() == 0 {
		return &InvalidFontError{Path: abs, Reason: fontfile.ErrEmptyFile.Error()}
	}

	if err := fontfile.CheckSignature(abs, r.ext); err != nil {
		return &InvalidFontError{Path: abs, Reason: err.Error()}
	}
	return nil
}

func formatNames() []string {
	names := make([]string, 0, len(fontfile.OutputFormats))
	for _, f := range fontfile.OutputFormats {
		names = append(names, string(f))
	}
	return names
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package optimizer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/staranto/fontslim/internal/fontfile"
)

// fontFace describes one @font-face rule.
type fontFace struct {
	Family       string
	File         string
	Format       fontfile.Format
	Weight       int
	Style        string
	Display      string
	UnicodeRange string
}

func (f fontFace) String() string {
	var b strings.Builder
	b.WriteString("@font-face {\n")
	fmt.Fprintf(&b, "  font-family: '%s';\n", strings.ReplaceAll(f.Family, "'", `\'`))
	fmt.Fprintf(&b, "  src: url('./%s') format('%s');\n", f.File, f.Format.CSSFormat())
	fmt.Fprintf(&b, "  font-weight: %d;\n", f.Weight)
	fmt.Fprintf(&b, "  font-style: %s;\n", f.Style)
	fmt.Fprintf(&b, "  font-display: %s;\n", f.Display)
	if f.UnicodeRange != "" {
		fmt.Fprintf(&b, "  unicode-range: %s;\n", f.UnicodeRange)
	}
	b.WriteString("}\n")
	return b.String()
}

// GenerateAggregateCSS writes one stylesheet containing every result's
// @font-face rule, preceded by a header with the font count and the overall
// reduction computed from byte totals.
func GenerateAggregateCSS(results []fontfile.Result, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil { //nolint:mnd
		return fmt.Errorf("failed to create css directory: %w", err)
	}
	if err := os.WriteFile(outputPath, []byte(AggregateCSS(results)), 0o644); err != nil { //nolint:mnd
		return fmt.Errorf("failed to write css: %w", err)
	}
	return nil
}

// AggregateCSS renders the stylesheet written by GenerateAggregateCSS.
func AggregateCSS(results []fontfile.Result) string {
	var original, optimized int64
	for _, r := range results {
		original += r.Original.Size
		optimized += r.Optimized.Size
	}

	var b strings.Builder
	b.WriteString("/*\n")
	b.WriteString(" * Generated by fontslim\n")
	fmt.Fprintf(&b, " * Fonts: %d\n", len(results))
	fmt.Fprintf(&b, " * Total size: %s -> %s\n", fontfile.FormatSize(original), fontfile.FormatSize(optimized))
	fmt.Fprintf(&b, " * Average reduction: %s%%\n", fontfile.Reduction(original, optimized))
	b.WriteString(" */\n")
	for _, r := range results {
		b.WriteString("\n")
		b.WriteString(r.CSS)
	}
	return b.String()
}

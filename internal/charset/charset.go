// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package charset names the character subsets a font can be reduced to and
// resolves them to code points and CSS unicode-range values.
package charset

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/rangetable"
)

const (
	Arabic      = "arabic"
	Latin       = "latin"
	Digits      = "digits"
	Punctuation = "punctuation"
)

var builtins = map[string]*unicode.RangeTable{
	Arabic: {
		R16: []unicode.Range16{
			{Lo: 0x0600, Hi: 0x06ff, Stride: 1},
			{Lo: 0x0750, Hi: 0x077f, Stride: 1},
			{Lo: 0x08a0, Hi: 0x08ff, Stride: 1},
			{Lo: 0x200c, Hi: 0x200f, Stride: 1}, // ZWNJ, ZWJ, LRM, RLM
			{Lo: 0xfb50, Hi: 0xfdff, Stride: 1},
			{Lo: 0xfe70, Hi: 0xfeff, Stride: 1},
		},
	},
	Latin: {
		R16: []unicode.Range16{
			{Lo: 0x0020, Hi: 0x007e, Stride: 1},
			{Lo: 0x00a0, Hi: 0x00ff, Stride: 1},
		},
		LatinOffset: 2,
	},
	Digits: {
		R16: []unicode.Range16{
			{Lo: 0x0030, Hi: 0x0039, Stride: 1},
			{Lo: 0x0660, Hi: 0x0669, Stride: 1},
			{Lo: 0x06f0, Hi: 0x06f9, Stride: 1},
		},
		LatinOffset: 1,
	},
	Punctuation: {
		R16: []unicode.Range16{
			{Lo: 0x0021, Hi: 0x002f, Stride: 1},
			{Lo: 0x003a, Hi: 0x0040, Stride: 1},
			{Lo: 0x060c, Hi: 0x060c, Stride: 1},
			{Lo: 0x061b, Hi: 0x061b, Stride: 1},
			{Lo: 0x061f, Hi: 0x061f, Stride: 1},
			{Lo: 0x066a, Hi: 0x066d, Stride: 1},
			{Lo: 0x2010, Hi: 0x2027, Stride: 1},
			{Lo: 0x2030, Hi: 0x205e, Stride: 1},
		},
		LatinOffset: 2,
	},
}

// Names returns the built-in subset names in a stable order.
func Names() []string {
	return []string{Arabic, Latin, Digits, Punctuation}
}

// Known reports whether name is a built-in subset.
func Known(name string) bool {
	_, ok := builtins[strings.ToLower(name)]
	return ok
}

// Set is a resolved union of named subsets.
type Set struct {
	names []string
	table *unicode.RangeTable
}

// Resolve merges the named subsets. Unknown names are an error.
func Resolve(names []string) (*Set, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("no subsets requested")
	}
	tables := make([]*unicode.RangeTable, 0, len(names))
	seen := map[string]bool{}
	var resolved []string
	for _, n := range names {
		key := strings.ToLower(n)
		rt, ok := builtins[key]
		if !ok {
			return nil, fmt.Errorf("unknown subset %q (known: %s)", n, strings.Join(Names(), ", "))
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		resolved = append(resolved, key)
		tables = append(tables, rt)
	}
	return &Set{names: resolved, table: rangetable.Merge(tables...)}, nil
}

// Names returns the normalized subset names in request order.
func (s *Set) Names() []string {
	return append([]string(nil), s.names...)
}

// Runes returns every code point in the set in ascending order.
func (s *Set) Runes() []rune {
	var rs []rune
	rangetable.Visit(s.table, func(r rune) {
		rs = append(rs, r)
	})
	return rs
}

// Len returns the number of code points in the set.
func (s *Set) Len() int {
	n := 0
	rangetable.Visit(s.table, func(rune) { n++ })
	return n
}

// UnicodeRange renders the set as a CSS unicode-range value, e.g.
// "U+0600-06FF, U+200C-200F".
func (s *Set) UnicodeRange() string {
	type span struct{ lo, hi rune }
	var spans []span
	rangetable.Visit(s.table, func(r rune) {
		if n := len(spans); n > 0 && spans[n-1].hi == r-1 {
			spans[n-1].hi = r
			return
		}
		spans = append(spans, span{r, r})
	})
	sort.Slice(spans, func(i, j int) bool { return spans[i].lo < spans[j].lo })

	parts := make([]string, 0, len(spans))
	for _, sp := range spans {
		if sp.lo == sp.hi {
			parts = append(parts, fmt.Sprintf("U+%04X", sp.lo))
			continue
		}
		parts = append(parts, fmt.Sprintf("U+%04X-%04X", sp.lo, sp.hi))
	}
	return strings.Join(parts, ", ")
}

// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fontfile

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	StyleNormal = "normal"
	StyleItalic = "italic"

	DefaultWeight = 400
)

type weightName struct {
	keyword string
	weight  int
}

// weightNames is matched in order; longer keywords that contain a shorter one
// ("extrabold" vs "bold") must come first.
var weightNames = []weightName{
	{"thin", 100},
	{"hairline", 100},
	{"extralight", 200},
	{"ultralight", 200},
	{"light", 300},
	{"regular", 400},
	{"normal", 400},
	{"medium", 500},
	{"semibold", 600},
	{"demibold", 600},
	{"extrabold", 800},
	{"ultrabold", 800},
	{"bold", 700},
	{"black", 900},
	{"heavy", 900},
}

var styleKeywords = []string{"italic", "oblique"}

// Metadata is what can be inferred about a font from its file name alone.
type Metadata struct {
	Family string
	Weight int
	Style  string
}

// ParseFilename infers family, weight and style from a font file name such as
// "Vazir-Bold.ttf".
func ParseFilename(name string) Metadata {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	lower := strings.ToLower(base)

	md := Metadata{
		Weight: DefaultWeight,
		Style:  StyleNormal,
	}

	for _, wn := range weightNames {
		if strings.Contains(lower, wn.keyword) {
			md.Weight = wn.weight
			break
		}
	}

	for _, kw := range styleKeywords {
		if strings.Contains(lower, kw) {
			md.Style = StyleItalic
			break
		}
	}

	md.Family = familyFromBase(base)
	return md
}

// familyFromBase drops weight and style tokens from a separator-delimited
// base name and title-cases what is left.
func familyFromBase(base string) string {
	tokens := strings.FieldsFunc(base, func(r rune) bool {
		return r == '-' || r == '_' || r == ' ' || r == '.'
	})

	caser := cases.Title(language.Und, cases.NoLower)
	var kept []string
	for _, tok := range tokens {
		if isKeyword(strings.ToLower(tok)) {
			continue
		}
		kept = append(kept, caser.String(tok))
	}
	if len(kept) == 0 {
		return caser.String(base)
	}
	return strings.Join(kept, " ")
}

func isKeyword(tok string) bool {
	for _, wn := range weightNames {
		if tok == wn.keyword {
			return true
		}
	}
	for _, kw := range styleKeywords {
		if tok == kw {
			return true
		}
	}
	return false
}

// CanonicalName turns a family name into a file-name-safe base, e.g.
// "Vazir Matn" -> "vazir-matn".
func CanonicalName(family string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(family)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case r == ' ' || r == '-' || r == '_':
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "font"
	}
	return out
}

// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package subset

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/apex/log"
	"seehuhn.de/go/sfnt"
	"seehuhn.de/go/sfnt/cmap"
	"seehuhn.de/go/sfnt/glyph"

	"github.com/staranto/fontslim/internal/fontfile"
	"github.com/staranto/fontslim/internal/webfont"
)

// ErrNoGlyphs is returned when a font maps none of the requested characters.
var ErrNoGlyphs = errors.New("font has no glyphs for the requested characters")

// SFNT subsets TrueType and OpenType fonts (optionally wrapped in WOFF or a
// null-transform WOFF2) with seehuhn.de/go/sfnt. Layout tables (GSUB, GPOS,
// GDEF) are dropped and a fresh Unicode BMP cmap is written for the retained
// characters.
type SFNT struct {
	Logger log.Interface
}

// NewSFNT returns an SFNT engine logging through apex/log's default logger.
func NewSFNT() *SFNT {
	return &SFNT{Logger: log.Log}
}

// Subset implements Engine.
func (e *SFNT) Subset(ctx context.Context, font []byte, chars []rune, format fontfile.Format) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := webfont.Decode(font)
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap font container: %w", err)
	}

	orig, err := sfnt.Read(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	lookup, err := orig.CMapTable.GetBest()
	if err != nil {
		return nil, fmt.Errorf("font has no usable cmap: %w", err)
	}

	glyphs, mapping := selectGlyphs(chars, lookup.Lookup)
	if len(glyphs) == 1 {
		return nil, ErrNoGlyphs
	}
	e.logger().Debugf("subsetting %d of %d glyphs for %d characters",
		len(glyphs), orig.NumGlyphs(), len(chars))

	f := orig.Clone()
	f.CMapTable = nil
	f.Gdef = nil
	f.Gsub = nil
	f.Gpos = nil

	sub := f.Subset(glyphs)
	enc := mapping.Encode(0)
	sub.CMapTable = cmap.Table{
		{PlatformID: 0, EncodingID: 3}: enc,
		{PlatformID: 3, EncodingID: 1}: enc,
	}

	var buf bytes.Buffer
	if _, err := sub.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write subset font: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return webfont.Encode(buf.Bytes(), format)
}

func (e *SFNT) logger() log.Interface {
	if e.Logger == nil {
		return log.Log
	}
	return e.Logger
}

// selectGlyphs returns the original glyph IDs to keep, in subset order, and a
// cmap from each retained BMP character to its new glyph ID. Glyph 0
// (.notdef) is always kept first. Characters outside the BMP or without a
// glyph are skipped.
func selectGlyphs(chars []rune, lookup func(rune) glyph.ID) ([]glyph.ID, cmap.Format4) {
	glyphs := []glyph.ID{0}
	newID := map[glyph.ID]glyph.ID{0: 0}
	mapping := cmap.Format4{}

	for _, r := range chars {
		if r < 0 || r > 0xffff {
			continue
		}
		gid := lookup(r)
		if gid == 0 {
			continue
		}
		id, ok := newID[gid]
		if !ok {
			id = glyph.ID(len(glyphs))
			newID[gid] = id
			glyphs = append(glyphs, gid)
		}
		mapping[uint16(r)] = id
	}
	return glyphs, mapping
}

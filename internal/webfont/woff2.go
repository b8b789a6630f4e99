// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package webfont

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
)

const (
	woff2Signature = 0x774F4632 // "wOF2"
	woff2HeaderLen = 48

	arbitraryTagIndex = 63
	nullTransformGlyf = 3
)

// ErrTransformedWOFF2 is returned when decoding a WOFF2 file whose glyf, loca
// or hmtx tables use a non-null transform.
var ErrTransformedWOFF2 = errors.New("transformed WOFF2 tables are not supported")

// knownTags is the WOFF2 known-table list; the index is the flag value.
var knownTags = [...]string{
	"cmap", "head", "hhea", "hmtx", "maxp", "name", "OS/2", "post",
	"cvt ", "fpgm", "glyf", "loca", "prep", "CFF ", "VORG", "EBDT",
	"EBLC", "gasp", "hdmx", "kern", "LTSH", "PCLT", "VDMX", "vhea",
	"vmtx", "BASE", "GDEF", "GPOS", "GSUB", "EBSC", "JSTF", "MATH",
	"CBDT", "CBLC", "COLR", "CPAL", "SVG ", "sbix", "acnt", "avar",
	"bdat", "bloc", "bsln", "cvar", "fdsc", "feat", "fmtx", "fvar",
	"gvar", "hsty", "just", "lcar", "mort", "morx", "opbd", "prop",
	"trak", "Zapf", "Silf", "Glat", "Gloc", "Feat", "Sill",
}

func tagIndex(tag string) int {
	for i, t := range knownTags {
		if t == tag {
			return i
		}
	}
	return arbitraryTagIndex
}

// nullTransform is the transform version meaning "stored as is" for tag.
func nullTransform(tag string) byte {
	if tag == "glyf" || tag == "loca" {
		return nullTransformGlyf
	}
	return 0
}

// EncodeWOFF2 wraps a raw sfnt in a WOFF 2.0 container. Tables are stored
// with null transforms and the concatenated table data is brotli compressed.
func EncodeWOFF2(sfnt []byte) ([]byte, error) {
	flavor, tables, err := parseSFNT(sfnt)
	if err != nil {
		return nil, err
	}

	var dir bytes.Buffer
	var stream bytes.Buffer
	for _, t := range tables {
		idx := tagIndex(t.tag)
		dir.WriteByte(nullTransform(t.tag)<<6 | byte(idx))
		if idx == arbitraryTagIndex {
			dir.WriteString(t.tag)
		}
		dir.Write(appendUIntBase128(nil, uint32(len(t.data))))
		stream.Write(t.data)
	}

	var comp bytes.Buffer
	w := brotli.NewWriterLevel(&comp, brotli.BestCompression)
	if _, err := w.Write(stream.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to compress font data: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress font data: %w", err)
	}

	total := pad4(woff2HeaderLen + dir.Len() + comp.Len())
	out := make([]byte, woff2HeaderLen, total)
	be := binary.BigEndian
	be.PutUint32(out[0:4], woff2Signature)
	be.PutUint32(out[4:8], flavor)
	be.PutUint32(out[8:12], uint32(total))
	be.PutUint16(out[12:14], uint16(len(tables)))
	be.PutUint32(out[16:20], uint32(sfntSize(tables)))
	be.PutUint32(out[20:24], uint32(comp.Len()))
	be.PutUint16(out[24:26], 1)

	out = append(out, dir.Bytes()...)
	out = append(out, comp.Bytes()...)
	out = append(out, make([]byte, total-len(out))...)
	return out, nil
}

// DecodeWOFF2 unwraps a WOFF 2.0 container whose tables all use null
// transforms, as written by EncodeWOFF2.
func DecodeWOFF2(b []byte) ([]byte, error) {
	if len(b) < woff2HeaderLen || binary.BigEndian.Uint32(b[0:4]) != woff2Signature {
		return nil, fmt.Errorf("%w: not a WOFF2 file", ErrMalformed)
	}
	be := binary.BigEndian
	flavor := be.Uint32(b[4:8])
	n := int(be.Uint16(b[12:14]))
	compLen := int(be.Uint32(b[20:24]))

	type dirEntry struct {
		tag    string
		length uint32
	}
	entries := make([]dirEntry, 0, n)
	p := b[woff2HeaderLen:]
	for i := 0; i < n; i++ {
		if len(p) < 1 {
			return nil, fmt.Errorf("%w: WOFF2 directory truncated", ErrMalformed)
		}
		flags := p[0]
		p = p[1:]

		var tag string
		if idx := int(flags & 0x3f); idx == arbitraryTagIndex {
			if len(p) < 4 {
				return nil, fmt.Errorf("%w: WOFF2 directory truncated", ErrMalformed)
			}
			tag = string(p[:4])
			p = p[4:]
		} else {
			tag = knownTags[idx]
		}

		if flags>>6 != nullTransform(tag) {
			return nil, fmt.Errorf("%w: table %q", ErrTransformedWOFF2, tag)
		}

		length, k, err := readUIntBase128(p)
		if err != nil {
			return nil, err
		}
		p = p[k:]
		entries = append(entries, dirEntry{tag: tag, length: length})
	}

	if len(p) < compLen {
		return nil, fmt.Errorf("%w: WOFF2 compressed data truncated", ErrMalformed)
	}
	stream, err := io.ReadAll(brotli.NewReader(bytes.NewReader(p[:compLen])))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	tables := make([]table, 0, n)
	off := 0
	for _, e := range entries {
		end := off + int(e.length)
		if end > len(stream) {
			return nil, fmt.Errorf("%w: WOFF2 table %q out of bounds", ErrMalformed, e.tag)
		}
		data := stream[off:end]
		tables = append(tables, table{tag: e.tag, checksum: checksum(data), data: data})
		off = end
	}
	fixHeadChecksum(tables)
	return buildSFNT(flavor, tables), nil
}

// appendUIntBase128 appends v in the WOFF2 variable-length encoding.
func appendUIntBase128(dst []byte, v uint32) []byte {
	var tmp [5]byte
	i := len(tmp) - 1
	tmp[i] = byte(v & 0x7f)
	for v >>= 7; v != 0; v >>= 7 {
		i--
		tmp[i] = byte(v&0x7f) | 0x80
	}
	return append(dst, tmp[i:]...)
}

func readUIntBase128(p []byte) (uint32, int, error) {
	var v uint32
	for i := 0; i < 5 && i < len(p); i++ {
		c := p[i]
		if i == 0 && c == 0x80 {
			return 0, 0, fmt.Errorf("%w: UIntBase128 leading zero", ErrMalformed)
		}
		if v&0xfe000000 != 0 {
			return 0, 0, fmt.Errorf("%w: UIntBase128 overflow", ErrMalformed)
		}
		v = v<<7 | uint32(c&0x7f)
		if c&0x80 == 0 {
			return v, i + 1, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: UIntBase128 truncated", ErrMalformed)
}

// checksum computes the sfnt table checksum of data.
func checksum(data []byte) uint32 {
	var sum uint32
	for i := 0; i < len(data); i += 4 {
		var word [4]byte
		copy(word[:], data[i:])
		sum += binary.BigEndian.Uint32(word[:])
	}
	return sum
}

// fixHeadChecksum recomputes the head table checksum with checksumAdjustment
// treated as zero, as the sfnt format requires.
func fixHeadChecksum(tables []table) {
	for i, t := range tables {
		if t.tag != "head" || len(t.data) < 12 {
			continue
		}
		data := append([]byte(nil), t.data...)
		binary.BigEndian.PutUint32(data[8:12], 0)
		tables[i].checksum = checksum(data)
	}
}

// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package webfont

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
)

const (
	sfntHeaderLen = 12
	sfntRecordLen = 16
)

// ErrMalformed is wrapped by every parse failure in this package.
var ErrMalformed = errors.New("malformed font data")

// table is one sfnt table with its directory checksum.
type table struct {
	tag      string
	checksum uint32
	data     []byte
}

// parseSFNT splits a raw TrueType/OpenType file into its tables.
func parseSFNT(b []byte) (uint32, []table, error) {
	if len(b) < sfntHeaderLen {
		return 0, nil, fmt.Errorf("%w: sfnt header truncated", ErrMalformed)
	}
	flavor := binary.BigEndian.Uint32(b[0:4])
	n := int(binary.BigEndian.Uint16(b[4:6]))
	if len(b) < sfntHeaderLen+n*sfntRecordLen {
		return 0, nil, fmt.Errorf("%w: sfnt table directory truncated", ErrMalformed)
	}

	tables := make([]table, 0, n)
	for i := 0; i < n; i++ {
		rec := b[sfntHeaderLen+i*sfntRecordLen:]
		off := binary.BigEndian.Uint32(rec[8:12])
		length := binary.BigEndian.Uint32(rec[12:16])
		if uint64(off)+uint64(length) > uint64(len(b)) {
			return 0, nil, fmt.Errorf("%w: table %q out of bounds", ErrMalformed, rec[0:4])
		}
		tables = append(tables, table{
			tag:      string(rec[0:4]),
			checksum: binary.BigEndian.Uint32(rec[4:8]),
			data:     b[off : off+length],
		})
	}
	sortTables(tables)
	return flavor, tables, nil
}

// buildSFNT assembles tables into a raw sfnt file with a sorted directory and
// 4-byte aligned table data.
func buildSFNT(flavor uint32, tables []table) []byte {
	sortTables(tables)
	n := len(tables)

	searchRange, entrySelector := 1, 0
	for searchRange*2 <= n {
		searchRange *= 2
		entrySelector++
	}
	searchRange *= sfntRecordLen

	var buf bytes.Buffer
	buf.Grow(sfntSize(tables))
	hdr := make([]byte, sfntHeaderLen)
	binary.BigEndian.PutUint32(hdr[0:4], flavor)
	binary.BigEndian.PutUint16(hdr[4:6], uint16(n))
	binary.BigEndian.PutUint16(hdr[6:8], uint16(searchRange))
	binary.BigEndian.PutUint16(hdr[8:10], uint16(entrySelector))
	binary.BigEndian.PutUint16(hdr[10:12], uint16(n*sfntRecordLen-searchRange))
	buf.Write(hdr)

	off := uint32(sfntHeaderLen + n*sfntRecordLen)
	rec := make([]byte, sfntRecordLen)
	for _, t := range tables {
		copy(rec[0:4], t.tag)
		binary.BigEndian.PutUint32(rec[4:8], t.checksum)
		binary.BigEndian.PutUint32(rec[8:12], off)
		binary.BigEndian.PutUint32(rec[12:16], uint32(len(t.data)))
		buf.Write(rec)
		off += uint32(pad4(len(t.data)))
	}
	for _, t := range tables {
		buf.Write(t.data)
		buf.Write(make([]byte, pad4(len(t.data))-len(t.data)))
	}
	return buf.Bytes()
}

// sfntSize is the size of the sfnt that buildSFNT would produce.
func sfntSize(tables []table) int {
	size := sfntHeaderLen + len(tables)*sfntRecordLen
	for _, t := range tables {
		size += pad4(len(t.data))
	}
	return size
}

func sortTables(tables []table) {
	sort.Slice(tables, func(i, j int) bool { return tables[i].tag < tables[j].tag })
}

func pad4(n int) int {
	return (n + 3) &^ 3
}

// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package webfont

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

const (
	woffSignature = 0x774F4646 // "wOFF"
	woffHeaderLen = 44
	woffEntryLen  = 20
)

// EncodeWOFF wraps a raw sfnt in a WOFF 1.0 container. Each table is zlib
// compressed unless compression does not make it smaller.
func EncodeWOFF(sfnt []byte) ([]byte, error) {
	flavor, tables, err := parseSFNT(sfnt)
	if err != nil {
		return nil, err
	}

	type stored struct {
		data     []byte
		origLen  int
		checksum uint32
		tag      string
	}
	entries := make([]stored, 0, len(tables))
	for _, t := range tables {
		comp, err := deflate(t.data)
		if err != nil {
			return nil, fmt.Errorf("failed to compress %q: %w", t.tag, err)
		}
		data := t.data
		if len(comp) < len(t.data) {
			data = comp
		}
		entries = append(entries, stored{data: data, origLen: len(t.data), checksum: t.checksum, tag: t.tag})
	}

	total := woffHeaderLen + len(entries)*woffEntryLen
	for _, e := range entries {
		total += pad4(len(e.data))
	}

	out := make([]byte, woffHeaderLen+len(entries)*woffEntryLen, total)
	be := binary.BigEndian
	be.PutUint32(out[0:4], woffSignature)
	be.PutUint32(out[4:8], flavor)
	be.PutUint32(out[8:12], uint32(total))
	be.PutUint16(out[12:14], uint16(len(entries)))
	be.PutUint32(out[16:20], uint32(sfntSize(tables)))
	be.PutUint16(out[20:22], 1)

	off := woffHeaderLen + len(entries)*woffEntryLen
	for i, e := range entries {
		rec := out[woffHeaderLen+i*woffEntryLen:]
		copy(rec[0:4], e.tag)
		be.PutUint32(rec[4:8], uint32(off))
		be.PutUint32(rec[8:12], uint32(len(e.data)))
		be.PutUint32(rec[12:16], uint32(e.origLen))
		be.PutUint32(rec[16:20], e.checksum)
		off += pad4(len(e.data))
	}
	for _, e := range entries {
		out = append(out, e.data...)
		out = append(out, make([]byte, pad4(len(e.data))-len(e.data))...)
	}
	return out, nil
}

// DecodeWOFF unwraps a WOFF 1.0 container back into a raw sfnt.
func DecodeWOFF(b []byte) ([]byte, error) {
	if len(b) < woffHeaderLen || binary.BigEndian.Uint32(b[0:4]) != woffSignature {
		return nil, fmt.Errorf("%w: not a WOFF file", ErrMalformed)
	}
	be := binary.BigEndian
	flavor := be.Uint32(b[4:8])
	n := int(be.Uint16(b[12:14]))
	if len(b) < woffHeaderLen+n*woffEntryLen {
		return nil, fmt.Errorf("%w: WOFF directory truncated", ErrMalformed)
	}

	tables := make([]table, 0, n)
	for i := 0; i < n; i++ {
		rec := b[woffHeaderLen+i*woffEntryLen:]
		off := be.Uint32(rec[4:8])
		compLen := be.Uint32(rec[8:12])
		origLen := be.Uint32(rec[12:16])
		if uint64(off)+uint64(compLen) > uint64(len(b)) || compLen > origLen {
			return nil, fmt.Errorf("%w: WOFF table %q out of bounds", ErrMalformed, rec[0:4])
		}
		data := b[off : off+compLen]
		if compLen < origLen {
			raw, err := inflate(data, int(origLen))
			if err != nil {
				return nil, fmt.Errorf("%w: WOFF table %q: %v", ErrMalformed, rec[0:4], err)
			}
			data = raw
		}
		tables = append(tables, table{
			tag:      string(rec[0:4]),
			checksum: be.Uint32(rec[16:20]),
			data:     data,
		})
	}
	return buildSFNT(flavor, tables), nil
}

func deflate(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(b); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func inflate(b []byte, want int) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	out := make([]byte, 0, want)
	buf := bytes.NewBuffer(out)
	if _, err := io.Copy(buf, io.LimitReader(r, int64(want)+1)); err != nil {
		return nil, err
	}
	if buf.Len() != want {
		return nil, fmt.Errorf("inflated %d bytes, want %d", buf.Len(), want)
	}
	return buf.Bytes(), nil
}

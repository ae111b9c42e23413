// Copyright 2025 The netrace Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package netrace

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/valyala/bytebufferpool"
)

const (
	// magic is the fixed 4-byte value every trace file must open with.
	magic = 0x484A5455

	// benchmarkNameSize is the fixed width of the NUL-padded benchmark field.
	benchmarkNameSize = 30

	// fixedHeaderSize is the size in bytes of everything before the notes
	// blob: magic, version, benchmark name, node count, pad byte, cycles,
	// packets, notes length, region count, and 8 bytes of trailing padding.
	// This is the authoritative layout (see §6 of the design document); the
	// original source's alternate header-size formula, one byte off, is not
	// used anywhere in this port.
	fixedHeaderSize = 72

	// regionRecordSize is the packed size of one Region: three uint64s.
	regionRecordSize = 24

	maxNotesLength  = 8192
	maxRegionCount  = 100
	supportedVersion = float32(1.0)
)

// Region names a seekable prefix of the trace: a byte offset past the end of
// the header, and the cycles/packets it spans.
type Region struct {
	SeekOffset uint64
	Cycles     uint64
	Packets    uint64
}

// Header is the decoded trace-file prelude: fixed fields, a free-form notes
// blob, and the region index.
type Header struct {
	Version     float32
	Benchmark   string
	NodeCount   uint8
	Cycles      uint64
	Packets     uint64
	NotesLength uint32
	Notes       []byte
	Regions     []Region
}

// HeaderSize returns the byte offset of the first packet record: the fixed
// prelude, the notes blob, and the region table.
func (h *Header) HeaderSize() uint64 {
	return fixedHeaderSize + uint64(len(h.Notes)) + uint64(len(h.Regions))*regionRecordSize
}

// Fingerprint is a short, deterministic digest of the header's identifying
// fields, useful for distinguishing traces in logs without printing the
// whole notes blob.
func (h *Header) Fingerprint() uint64 {
	var buf bytes.Buffer
	buf.WriteString(h.Benchmark)
	binary.Write(&buf, binary.LittleEndian, h.Version)
	binary.Write(&buf, binary.LittleEndian, h.NodeCount)
	binary.Write(&buf, binary.LittleEndian, h.Cycles)
	binary.Write(&buf, binary.LittleEndian, h.Packets)
	binary.Write(&buf, binary.LittleEndian, uint32(len(h.Regions)))
	return xxhash.Sum64(buf.Bytes())
}

// isLittleEndianHost probes this process's native byte order. The on-disk
// format is little-endian only; every field is still decoded explicitly via
// binary.LittleEndian regardless of host order, so this probe exists purely
// to produce the right diagnostic (corrupt file vs. unsupported host) on a
// magic mismatch, matching the original implementation's behavior.
func isLittleEndianHost() bool {
	b := []byte{1, 2, 3, 4}
	return binary.NativeEndian.Uint32(b) == binary.LittleEndian.Uint32(b)
}

// decodeHeader reads the fixed prelude, the notes blob, and the region
// table from stream, in that order, validating the magic number, host
// endianness, and version along the way.
func decodeHeader(stream io.Reader) (*Header, error) {
	fixed := bytebufferpool.Get()
	defer bytebufferpool.Put(fixed)
	fixed.Set(make([]byte, fixedHeaderSize))

	if _, err := io.ReadFull(stream, fixed.B); err != nil {
		return nil, raise(ErrIO, err, "failed to read trace file header")
	}

	gotMagic := binary.LittleEndian.Uint32(fixed.B[0:4])
	if gotMagic != magic {
		if !isLittleEndianHost() {
			return nil, raise(ErrFormat, nil, "unsupported architecture: only little-endian hosts are supported")
		}
		return nil, raise(ErrFormat, nil, "invalid trace file: bad magic (got 0x%08x)", gotMagic)
	}

	h := &Header{}
	h.Version = math.Float32frombits(binary.LittleEndian.Uint32(fixed.B[4:8]))
	if h.Version != supportedVersion {
		return nil, raise(ErrFormat, nil, "trace file is unsupported version: %v", h.Version)
	}

	name := fixed.B[8 : 8+benchmarkNameSize]
	if nul := bytes.IndexByte(name, 0); nul >= 0 {
		name = name[:nul]
	}
	h.Benchmark = string(name)
	h.NodeCount = fixed.B[38]
	// fixed.B[39] is the pad byte.
	h.Cycles = binary.LittleEndian.Uint64(fixed.B[40:48])
	h.Packets = binary.LittleEndian.Uint64(fixed.B[48:56])
	h.NotesLength = binary.LittleEndian.Uint32(fixed.B[56:60])
	regionCount := binary.LittleEndian.Uint32(fixed.B[60:64])
	// fixed.B[64:72] is trailing padding.

	if h.NotesLength >= maxNotesLength {
		return nil, raise(ErrFormat, nil, "trace file notes length too large: %d", h.NotesLength)
	}
	if h.NotesLength > 0 {
		h.Notes = make([]byte, h.NotesLength)
		if _, err := io.ReadFull(stream, h.Notes); err != nil {
			return nil, raise(ErrIO, err, "failed to read trace file header notes")
		}
	}

	if regionCount > maxRegionCount {
		return nil, raise(ErrFormat, nil, "trace file region count too large: %d", regionCount)
	}
	if regionCount > 0 {
		raw := bytebufferpool.Get()
		defer bytebufferpool.Put(raw)
		raw.Set(make([]byte, int(regionCount)*regionRecordSize))
		if _, err := io.ReadFull(stream, raw.B); err != nil {
			return nil, raise(ErrIO, err, "failed to read trace file header regions")
		}
		h.Regions = make([]Region, regionCount)
		for i := range h.Regions {
			off := i * regionRecordSize
			h.Regions[i] = Region{
				SeekOffset: binary.LittleEndian.Uint64(raw.B[off : off+8]),
				Cycles:     binary.LittleEndian.Uint64(raw.B[off+8 : off+16]),
				Packets:    binary.LittleEndian.Uint64(raw.B[off+16 : off+24]),
			}
		}
	}

	return h, nil
}

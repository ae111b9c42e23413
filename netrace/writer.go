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
	"encoding/binary"
	"io"
	"math"

	"github.com/valyala/bytebufferpool"
)

// EncodeHeader writes h in the same packed, little-endian layout that
// decodeHeader reads. It is the inverse of decodeHeader and is used by the
// trace generator and by round-trip tests.
func EncodeHeader(w io.Writer, h *Header) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	buf.Set(make([]byte, fixedHeaderSize))

	binary.LittleEndian.PutUint32(buf.B[0:4], magic)
	binary.LittleEndian.PutUint32(buf.B[4:8], math.Float32bits(h.Version))
	name := buf.B[8 : 8+benchmarkNameSize]
	for i := range name {
		name[i] = 0
	}
	copy(name, h.Benchmark)
	buf.B[38] = h.NodeCount
	buf.B[39] = 0
	binary.LittleEndian.PutUint64(buf.B[40:48], h.Cycles)
	binary.LittleEndian.PutUint64(buf.B[48:56], h.Packets)
	binary.LittleEndian.PutUint32(buf.B[56:60], uint32(len(h.Notes)))
	binary.LittleEndian.PutUint32(buf.B[60:64], uint32(len(h.Regions)))
	for i := 64; i < fixedHeaderSize; i++ {
		buf.B[i] = 0
	}

	if _, err := w.Write(buf.B); err != nil {
		return raise(ErrIO, err, "failed to write trace file header")
	}

	if len(h.Notes) > 0 {
		if _, err := w.Write(h.Notes); err != nil {
			return raise(ErrIO, err, "failed to write trace file header notes")
		}
	}

	if len(h.Regions) > 0 {
		raw := bytebufferpool.Get()
		defer bytebufferpool.Put(raw)
		raw.Set(make([]byte, len(h.Regions)*regionRecordSize))
		for i, r := range h.Regions {
			off := i * regionRecordSize
			binary.LittleEndian.PutUint64(raw.B[off:off+8], r.SeekOffset)
			binary.LittleEndian.PutUint64(raw.B[off+8:off+16], r.Cycles)
			binary.LittleEndian.PutUint64(raw.B[off+16:off+24], r.Packets)
		}
		if _, err := w.Write(raw.B); err != nil {
			return raise(ErrIO, err, "failed to write trace file header regions")
		}
	}

	return nil
}

// EncodePacket writes p in the same packed, little-endian layout that
// decodePacket reads.
func EncodePacket(w io.Writer, p *Packet) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	buf.Set(make([]byte, packetRecordSize))

	binary.LittleEndian.PutUint64(buf.B[0:8], p.Cycle)
	binary.LittleEndian.PutUint32(buf.B[8:12], p.ID)
	binary.LittleEndian.PutUint32(buf.B[12:16], p.Addr)
	buf.B[16] = p.Type
	buf.B[17] = p.Src
	buf.B[18] = p.Dst
	buf.B[19] = p.NodeTypes
	buf.B[20] = uint8(len(p.Deps))
	buf.B[21], buf.B[22], buf.B[23] = 0, 0, 0

	if _, err := w.Write(buf.B); err != nil {
		return raise(ErrIO, err, "failed to write packet %d", p.ID)
	}

	if len(p.Deps) > 0 {
		raw := bytebufferpool.Get()
		defer bytebufferpool.Put(raw)
		raw.Set(make([]byte, len(p.Deps)*4))
		for i, d := range p.Deps {
			binary.LittleEndian.PutUint32(raw.B[i*4:i*4+4], d)
		}
		if _, err := w.Write(raw.B); err != nil {
			return raise(ErrIO, err, "failed to write dependency array for packet %d", p.ID)
		}
	}

	return nil
}

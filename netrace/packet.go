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

	"github.com/valyala/bytebufferpool"
)

// packetRecordSize is the packed size of a Packet's fixed fields, excluding
// its trailing dependency-id array.
const packetRecordSize = 24

// Packet is one decoded trace event: a cycle-stamped packet moving between
// two nodes, depending on zero or more packets that must be cleared first.
type Packet struct {
	Cycle     uint64
	ID        uint32
	Addr      uint32
	Type      uint8
	Src       uint8
	Dst       uint8
	NodeTypes uint8
	Deps      []uint32
}

// SrcClass returns the source node's class (the high nibble of NodeTypes).
func (p *Packet) SrcClass() int { return int(p.NodeTypes >> 4) }

// DstClass returns the destination node's class (the low nibble of NodeTypes).
func (p *Packet) DstClass() int { return int(p.NodeTypes & 0x0F) }

// TypeName returns the human-readable name of the packet's type.
func (p *Packet) TypeName() string { return PacketTypeName(p.Type) }

// Size returns the on-wire payload size in bytes that this packet's type
// implies, or -1 for a type with no fixed size.
func (p *Packet) Size() int { return PacketSize(p.Type) }

// decodePacket reads one packet record from stream. A clean end of stream
// (zero bytes read before EOF) returns (nil, nil); a short read partway
// through a record is reported as a format fault, since it means the trace
// file is truncated mid-record.
func decodePacket(stream io.Reader) (*Packet, error) {
	fixed := bytebufferpool.Get()
	defer bytebufferpool.Put(fixed)
	fixed.Set(make([]byte, packetRecordSize))

	n, err := io.ReadFull(stream, fixed.B)
	if err == io.EOF && n == 0 {
		return nil, nil
	}
	if err != nil {
		return nil, raise(ErrFormat, err, "truncated packet record")
	}

	p := &Packet{}
	p.Cycle = binary.LittleEndian.Uint64(fixed.B[0:8])
	p.ID = binary.LittleEndian.Uint32(fixed.B[8:12])
	p.Addr = binary.LittleEndian.Uint32(fixed.B[12:16])
	p.Type = fixed.B[16]
	p.Src = fixed.B[17]
	p.Dst = fixed.B[18]
	p.NodeTypes = fixed.B[19]
	numDeps := fixed.B[20]
	// fixed.B[21:24] is padding.

	if numDeps > 0 {
		raw := bytebufferpool.Get()
		defer bytebufferpool.Put(raw)
		raw.Set(make([]byte, int(numDeps)*4))
		if _, err := io.ReadFull(stream, raw.B); err != nil {
			return nil, raise(ErrFormat, err, "truncated dependency array for packet %d", p.ID)
		}
		p.Deps = make([]uint32, numDeps)
		for i := range p.Deps {
			p.Deps[i] = binary.LittleEndian.Uint32(raw.B[i*4 : i*4+4])
		}
	}

	return p, nil
}

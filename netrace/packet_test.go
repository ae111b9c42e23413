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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacketRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		packet *Packet
	}{
		{
			name: "no dependencies",
			packet: &Packet{
				Cycle: 10, ID: 1, Addr: 0xcafef00d,
				Type: PacketReadReq, Src: 2, Dst: 5,
				NodeTypes: uint8(NodeL1D<<4 | NodeMC),
			},
		},
		{
			name: "with dependencies",
			packet: &Packet{
				Cycle: 25, ID: 7, Addr: 0x1000,
				Type: PacketWriteResp, Src: 3, Dst: 1,
				NodeTypes: uint8(NodeL2<<4 | NodeL1I),
				Deps:      []uint32{1, 2, 3, 4},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, EncodePacket(&buf, tt.packet))

			got, err := decodePacket(&buf)
			require.NoError(t, err)
			require.NotNil(t, got)

			assert.Equal(t, tt.packet.Cycle, got.Cycle)
			assert.Equal(t, tt.packet.ID, got.ID)
			assert.Equal(t, tt.packet.Addr, got.Addr)
			assert.Equal(t, tt.packet.Type, got.Type)
			assert.Equal(t, tt.packet.Src, got.Src)
			assert.Equal(t, tt.packet.Dst, got.Dst)
			assert.Equal(t, tt.packet.NodeTypes, got.NodeTypes)
			assert.Equal(t, tt.packet.Deps, got.Deps)
		})
	}
}

func TestPacketCleanEOF(t *testing.T) {
	p, err := decodePacket(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestPacketTruncatedRecord(t *testing.T) {
	_, err := decodePacket(bytes.NewReader(make([]byte, 10)))
	require.Error(t, err)
	var f *Fault
	require.ErrorAs(t, err, &f)
	assert.Equal(t, ErrFormat, f.Kind)
}

func TestPacketTruncatedDependencies(t *testing.T) {
	var buf bytes.Buffer
	p := &Packet{Cycle: 1, ID: 1, Deps: []uint32{9, 9}}
	require.NoError(t, EncodePacket(&buf, p))

	truncated := buf.Bytes()[:buf.Len()-4]
	_, err := decodePacket(bytes.NewReader(truncated))
	require.Error(t, err)
}

func TestPacketClasses(t *testing.T) {
	p := &Packet{NodeTypes: uint8(NodeL2<<4 | NodeMC)}
	assert.Equal(t, NodeL2, p.SrcClass())
	assert.Equal(t, NodeMC, p.DstClass())
}

func TestPacketTypeNameAndSize(t *testing.T) {
	p := &Packet{Type: PacketReadExResp}
	assert.Equal(t, "ReadExResp", p.TypeName())
	assert.Equal(t, 72, p.Size())

	invalid := &Packet{Type: 200}
	assert.Equal(t, "InvalidCmd", invalid.TypeName())
	assert.Equal(t, -1, invalid.Size())
}

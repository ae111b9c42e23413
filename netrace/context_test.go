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
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTrace encodes a header followed by packets into a single buffer,
// byte for byte what a real trace file contains after decompression.
func buildTrace(t *testing.T, h *Header, packets []*Packet) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, EncodeHeader(&buf, h))
	for _, p := range packets {
		require.NoError(t, EncodePacket(&buf, p))
	}
	return buf.Bytes()
}

// openTrace opens raw through OpenReader with a reopenable source, so
// SeekRegion and self-throttle priming work the same as they would against
// a real file.
func openTrace(t *testing.T, raw []byte) *Context {
	t.Helper()
	ctx, err := OpenReader(func() (io.Reader, error) {
		return bytes.NewReader(raw), nil
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctx.Close() })
	return ctx
}

func TestContextHeaderOnlyTrace(t *testing.T) {
	raw := buildTrace(t, &Header{Version: 1.0, Benchmark: "empty", NodeCount: 1}, nil)
	ctx := openTrace(t, raw)

	p, err := ctx.ReadPacket()
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.Equal(t, uint64(0), ctx.ActivePackets())
}

func TestContextSingleIndependentPacket(t *testing.T) {
	pkt := &Packet{Cycle: 10, ID: 7, Addr: 0, Type: 1, Src: 0, Dst: 1, NodeTypes: 0x02}
	raw := buildTrace(t, &Header{Version: 1.0, Benchmark: "single", NodeCount: 2}, []*Packet{pkt})
	ctx := openTrace(t, raw)

	got, err := ctx.ReadPacket()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, uint32(7), got.ID)

	assert.True(t, ctx.DependenciesCleared(got))
	require.NoError(t, ctx.ClearAndFree(got))
	assert.Equal(t, uint64(0), ctx.ActivePackets())
}

func TestContextLinearChain(t *testing.T) {
	a := &Packet{Cycle: 1, ID: 1}
	b := &Packet{Cycle: 2, ID: 2, Deps: []uint32{1}}
	c := &Packet{Cycle: 3, ID: 3, Deps: []uint32{2}}
	raw := buildTrace(t, &Header{Version: 1.0, Benchmark: "chain", NodeCount: 1}, []*Packet{a, b, c})
	ctx := openTrace(t, raw)

	gotA, err := ctx.ReadPacket()
	require.NoError(t, err)
	gotB, err := ctx.ReadPacket()
	require.NoError(t, err)
	gotC, err := ctx.ReadPacket()
	require.NoError(t, err)

	assert.True(t, ctx.DependenciesCleared(gotA))
	assert.False(t, ctx.DependenciesCleared(gotB))
	assert.False(t, ctx.DependenciesCleared(gotC))

	require.NoError(t, ctx.ClearAndFree(gotA))
	assert.True(t, ctx.DependenciesCleared(gotB))
	assert.False(t, ctx.DependenciesCleared(gotC))

	require.NoError(t, ctx.ClearAndFree(gotB))
	assert.True(t, ctx.DependenciesCleared(gotC))

	require.NoError(t, ctx.ClearAndFree(gotC))
	assert.Equal(t, uint64(0), ctx.ActivePackets())
}

func TestContextForwardEdge(t *testing.T) {
	x := &Packet{Cycle: 1, ID: 100, Deps: []uint32{200}}
	y := &Packet{Cycle: 2, ID: 200}
	raw := buildTrace(t, &Header{Version: 1.0, Benchmark: "forward", NodeCount: 1}, []*Packet{x, y})
	ctx := openTrace(t, raw)
	require.NoError(t, ctx.EnableClearedList())

	gotX, err := ctx.ReadPacket()
	require.NoError(t, err)
	node := ctx.reg.find(200)
	require.NotNil(t, node)
	assert.Equal(t, uint32(1), node.count)
	assert.Nil(t, node.owner)

	gotY, err := ctx.ReadPacket()
	require.NoError(t, err)
	node = ctx.reg.find(200)
	require.NotNil(t, node)
	assert.Same(t, gotY, node.owner)
	assert.Equal(t, uint32(1), node.count)

	assert.Equal(t, 0, ctx.ClearedLen())
	require.NoError(t, ctx.ClearAndFree(gotX))

	// node 200's count has dropped to zero, but Y itself hasn't been cleared
	// yet, so the node survives to hold the owner reference for the cleared
	// list rather than being collected out from under it.
	node = ctx.reg.find(200)
	require.NotNil(t, node)
	assert.Equal(t, uint32(0), node.count)
	require.Equal(t, 1, ctx.ClearedLen())
	assert.Same(t, gotY, ctx.PopCleared())

	require.NoError(t, ctx.ClearAndFree(gotY))
	assert.Nil(t, ctx.reg.find(200))
}

func TestContextRegionSeek(t *testing.T) {
	h := &Header{
		Version:   1.0,
		Benchmark: "regions",
		NodeCount: 1,
		Regions: []Region{
			{SeekOffset: 0, Cycles: 100, Packets: 1},
			{SeekOffset: uint64(packetRecordSize), Cycles: 100, Packets: 1},
		},
	}
	first := &Packet{Cycle: 1, ID: 1}
	second := &Packet{Cycle: 2, ID: 2}
	raw := buildTrace(t, h, []*Packet{first, second})
	ctx := openTrace(t, raw)

	got, err := ctx.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), got.ID)

	require.NoError(t, ctx.SeekRegion(1))
	assert.Equal(t, uint64(0), ctx.ActivePackets())
	assert.Equal(t, uint64(0), ctx.LatestCycle())

	got, err = ctx.ReadPacket()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, uint32(2), got.ID)

	got, err = ctx.ReadPacket()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestContextRegionSeekOutOfRange(t *testing.T) {
	raw := buildTrace(t, &Header{Version: 1.0, Benchmark: "noregions", NodeCount: 1}, nil)
	ctx := openTrace(t, raw)

	err := ctx.SeekRegion(0)
	require.Error(t, err)
	var f *Fault
	require.ErrorAs(t, err, &f)
	assert.Equal(t, ErrInvariant, f.Kind)
}

func TestContextSelfThrottlePriming(t *testing.T) {
	h := &Header{
		Version:   1.0,
		Benchmark: "throttle",
		NodeCount: 1,
		Regions: []Region{
			{SeekOffset: 0, Cycles: readAheadWindow * 2, Packets: 3},
		},
	}
	packets := []*Packet{
		{Cycle: 0, ID: 1},
		{Cycle: 100, ID: 2, Deps: []uint32{1}},
		{Cycle: readAheadWindow * 2, ID: 3, Deps: []uint32{2}},
	}
	raw := buildTrace(t, h, packets)
	ctx := openTrace(t, raw)

	require.NoError(t, ctx.SeekRegion(0))
	require.NoError(t, ctx.EnableSelfThrottling())

	assert.Greater(t, ctx.ClearedLen(), 0)

	first := ctx.PopCleared()
	require.NotNil(t, first)
	assert.Equal(t, uint32(1), first.ID)
}

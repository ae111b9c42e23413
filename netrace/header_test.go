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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		header *Header
	}{
		{
			name: "no notes, no regions",
			header: &Header{
				Version:   1.0,
				Benchmark: "blackscholes",
				NodeCount: 16,
				Cycles:    1000,
				Packets:   42,
			},
		},
		{
			name: "notes and regions",
			header: &Header{
				Version:   1.0,
				Benchmark: "fluidanimate",
				NodeCount: 64,
				Cycles:    5_000_000,
				Packets:   123456,
				Notes:     []byte("generated for testing"),
				Regions: []Region{
					{SeekOffset: 0, Cycles: 1_000_000, Packets: 10000},
					{SeekOffset: 240016, Cycles: 1_000_000, Packets: 11000},
				},
			},
		},
		{
			name: "benchmark name at full width",
			header: &Header{
				Version:   1.0,
				Benchmark: "123456789012345678901234567890",
				NodeCount: 4,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, EncodeHeader(&buf, tt.header))

			got, err := decodeHeader(&buf)
			require.NoError(t, err)

			wantName := tt.header.Benchmark
			if len(wantName) > benchmarkNameSize {
				wantName = wantName[:benchmarkNameSize]
			}
			assert.Equal(t, wantName, got.Benchmark)
			assert.Equal(t, tt.header.Version, got.Version)
			assert.Equal(t, tt.header.NodeCount, got.NodeCount)
			assert.Equal(t, tt.header.Cycles, got.Cycles)
			assert.Equal(t, tt.header.Packets, got.Packets)
			assert.Equal(t, tt.header.Notes, got.Notes)
			assert.Equal(t, tt.header.Regions, got.Regions)
			assert.Equal(t, uint64(fixedHeaderSize+len(tt.header.Notes)+len(tt.header.Regions)*regionRecordSize), got.HeaderSize())
		})
	}
}

func TestHeaderBadMagic(t *testing.T) {
	var buf bytes.Buffer
	h := &Header{Version: 1.0, Benchmark: "x"}
	require.NoError(t, EncodeHeader(&buf, h))

	raw := buf.Bytes()
	binary.LittleEndian.PutUint32(raw[0:4], 0xdeadbeef)

	_, err := decodeHeader(bytes.NewReader(raw))
	require.Error(t, err)
	var f *Fault
	require.ErrorAs(t, err, &f)
	assert.Equal(t, ErrFormat, f.Kind)
}

func TestHeaderUnsupportedVersion(t *testing.T) {
	var buf bytes.Buffer
	h := &Header{Version: 2.0, Benchmark: "x"}
	require.NoError(t, EncodeHeader(&buf, h))

	_, err := decodeHeader(&buf)
	require.Error(t, err)
	var f *Fault
	require.ErrorAs(t, err, &f)
	assert.Equal(t, ErrFormat, f.Kind)
}

func TestHeaderOversizedNotes(t *testing.T) {
	raw := make([]byte, fixedHeaderSize)
	binary.LittleEndian.PutUint32(raw[0:4], magic)
	binary.LittleEndian.PutUint32(raw[4:8], 0x3f800000) // 1.0f
	binary.LittleEndian.PutUint32(raw[56:60], maxNotesLength)

	_, err := decodeHeader(bytes.NewReader(raw))
	require.Error(t, err)
	var f *Fault
	require.ErrorAs(t, err, &f)
	assert.Equal(t, ErrFormat, f.Kind)
}

func TestHeaderOversizedRegionCount(t *testing.T) {
	raw := make([]byte, fixedHeaderSize)
	binary.LittleEndian.PutUint32(raw[0:4], magic)
	binary.LittleEndian.PutUint32(raw[4:8], 0x3f800000) // 1.0f
	binary.LittleEndian.PutUint32(raw[60:64], maxRegionCount+1)

	_, err := decodeHeader(bytes.NewReader(raw))
	require.Error(t, err)
	var f *Fault
	require.ErrorAs(t, err, &f)
	assert.Equal(t, ErrFormat, f.Kind)
}

func TestHeaderFingerprintStable(t *testing.T) {
	h := &Header{Version: 1.0, Benchmark: "canneal", NodeCount: 16, Cycles: 10, Packets: 2}
	a := h.Fingerprint()
	b := h.Fingerprint()
	assert.Equal(t, a, b)

	h2 := &Header{Version: 1.0, Benchmark: "canneal", NodeCount: 16, Cycles: 10, Packets: 3}
	assert.NotEqual(t, a, h2.Fingerprint())
}

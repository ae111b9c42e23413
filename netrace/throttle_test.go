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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimeSelfThrottleEmptyStreamIsNoop(t *testing.T) {
	raw := buildTrace(t, &Header{Version: 1.0, Benchmark: "empty", NodeCount: 1}, nil)
	ctx := openTrace(t, raw)

	require.NoError(t, ctx.EnableSelfThrottling())
	assert.True(t, ctx.primed)
	assert.Equal(t, 0, ctx.ClearedLen())

	p, err := ctx.ReadPacket()
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestPrimeSelfThrottleIdempotent(t *testing.T) {
	raw := buildTrace(t, &Header{Version: 1.0, Benchmark: "idem", NodeCount: 1}, []*Packet{{Cycle: 1, ID: 1}})
	ctx := openTrace(t, raw)

	require.NoError(t, ctx.primeSelfThrottle())
	first := ctx.primed
	require.NoError(t, ctx.primeSelfThrottle())
	assert.Equal(t, first, ctx.primed)
}

func TestReadAheadStopsAtDoneReading(t *testing.T) {
	packets := []*Packet{{Cycle: 1, ID: 1}, {Cycle: 2, ID: 2}}
	raw := buildTrace(t, &Header{Version: 1.0, Benchmark: "short", NodeCount: 1}, packets)
	ctx := openTrace(t, raw)

	require.NoError(t, ctx.readAhead(0))
	assert.True(t, ctx.doneReading)
	assert.Equal(t, 2, ctx.ClearedLen())
}

func TestReadAheadOverflow(t *testing.T) {
	raw := buildTrace(t, &Header{Version: 1.0, Benchmark: "overflow", NodeCount: 1}, nil)
	ctx := openTrace(t, raw)

	err := ctx.readAhead(math.MaxUint64)
	require.Error(t, err)
	var f *Fault
	require.ErrorAs(t, err, &f)
	assert.Equal(t, ErrInvariant, f.Kind)
}

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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClearedListFIFO(t *testing.T) {
	l := newClearedList()
	assert.Equal(t, 0, l.Len())
	assert.Nil(t, l.Head())

	a, b, c := &Packet{ID: 1}, &Packet{ID: 2}, &Packet{ID: 3}
	l.append(a)
	l.append(b)
	l.append(c)
	require.Equal(t, 3, l.Len())

	assert.Same(t, a, l.popFront())
	assert.Same(t, b, l.popFront())
	assert.Equal(t, 1, l.Len())
	assert.Same(t, c, l.popFront())
	assert.Nil(t, l.popFront())
	assert.Equal(t, 0, l.Len())
}

func TestClearedListReset(t *testing.T) {
	l := newClearedList()
	l.append(&Packet{ID: 1})
	l.append(&Packet{ID: 2})
	l.reset()
	assert.Equal(t, 0, l.Len())
	assert.Nil(t, l.Head())
	assert.Nil(t, l.popFront())
}

func TestClearedEntryNext(t *testing.T) {
	l := newClearedList()
	l.append(&Packet{ID: 1})
	l.append(&Packet{ID: 2})

	head := l.Head()
	require.NotNil(t, head)
	assert.Equal(t, uint32(1), head.Packet.ID)

	next := head.Next()
	require.NotNil(t, next)
	assert.Equal(t, uint32(2), next.Packet.ID)
	assert.Nil(t, next.Next())

	var nilEntry *ClearedEntry
	assert.Nil(t, nilEntry.Next())
}

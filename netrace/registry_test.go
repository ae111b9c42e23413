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

func TestRegistryFindInsertRemove(t *testing.T) {
	r := newRegistry()

	assert.Nil(t, r.find(5))

	n := r.insert(5)
	require.NotNil(t, n)
	assert.Equal(t, uint32(5), n.id)
	assert.Same(t, n, r.find(5))

	owner := &Packet{ID: 5}
	n.owner = owner
	assert.Same(t, owner, r.remove(5))
	assert.Nil(t, r.find(5))
}

func TestRegistryBucketCollisions(t *testing.T) {
	r := newRegistry()

	// ids 3 and 203 land in the same bucket (id % 200).
	a := r.insert(3)
	b := r.insert(203)
	require.NotSame(t, a, b)

	assert.Same(t, a, r.find(3))
	assert.Same(t, b, r.find(203))

	assert.Nil(t, r.remove(3))
	assert.Nil(t, r.find(3))
	assert.Same(t, b, r.find(203))
}

func TestRegistryFindOrInsert(t *testing.T) {
	r := newRegistry()

	a := r.findOrInsert(9)
	b := r.findOrInsert(9)
	assert.Same(t, a, b)
}

func TestRegistryRegisterLinearChain(t *testing.T) {
	r := newRegistry()

	a := &Packet{ID: 1}
	b := &Packet{ID: 2, Deps: []uint32{1}}
	c := &Packet{ID: 3, Deps: []uint32{2}}

	r.register(a)
	r.register(b)
	r.register(c)

	nodeA := r.find(1)
	require.NotNil(t, nodeA)
	assert.Equal(t, uint32(1), nodeA.count)
	assert.Same(t, a, nodeA.owner)

	nodeB := r.find(2)
	require.NotNil(t, nodeB)
	assert.Equal(t, uint32(1), nodeB.count)
	assert.Same(t, b, nodeB.owner)

	nodeC := r.find(3)
	require.NotNil(t, nodeC)
	assert.Equal(t, uint32(0), nodeC.count)
	assert.Same(t, c, nodeC.owner)
}

func TestRegistryRegisterForwardEdge(t *testing.T) {
	r := newRegistry()

	// b depends on a, but b is registered before a is ever read: the
	// placeholder node for a must already carry the bumped reference count
	// once a itself arrives.
	b := &Packet{ID: 2, Deps: []uint32{1}}
	r.register(b)

	placeholder := r.find(1)
	require.NotNil(t, placeholder)
	assert.Equal(t, uint32(1), placeholder.count)
	assert.Nil(t, placeholder.owner)

	a := &Packet{ID: 1}
	r.register(a)

	nodeA := r.find(1)
	require.NotNil(t, nodeA)
	assert.Same(t, a, nodeA.owner)
	assert.Equal(t, uint32(1), nodeA.count)
}

func TestRegistryClearAll(t *testing.T) {
	r := newRegistry()
	r.insert(1)
	r.insert(201)
	r.clearAll()
	assert.Nil(t, r.find(1))
	assert.Nil(t, r.find(201))
}

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

// registryBuckets is the fixed bucket count of the dependency registry,
// matching the original implementation's fixed-size hash table.
const registryBuckets = 200

// depNode tracks one packet id's outstanding reference count: how many
// not-yet-cleared packets still list it as a dependency. A node is created
// the first time its id is mentioned, either because the packet itself was
// read (owner set) or because some other packet named it as a dependency
// before it was read (owner nil until the owning packet arrives).
//
// ownerCleared marks that ClearAndFree has already run for this node's own
// packet. A node is only unlinked from the registry once both ownerCleared
// is true and count has dropped to zero: whichever of those two events
// happens last is what removes it, so the node stays reachable in between
// even though its owner has already been retired.
type depNode struct {
	id           uint32
	count        uint32
	owner        *Packet
	ownerCleared bool
	next         *depNode
}

// registry is a fixed-bucket hash table from packet id to depNode, chained
// on collision and appended at the tail to preserve insertion order within
// a bucket.
type registry struct {
	buckets [registryBuckets]*depNode
}

func newRegistry() *registry {
	return &registry{}
}

func (r *registry) find(id uint32) *depNode {
	for n := r.buckets[id%registryBuckets]; n != nil; n = n.next {
		if n.id == id {
			return n
		}
	}
	return nil
}

// insert creates and appends a fresh node for id. Callers must have already
// confirmed no node for id exists.
func (r *registry) insert(id uint32) *depNode {
	n := &depNode{id: id}
	idx := id % registryBuckets
	head := r.buckets[idx]
	if head == nil {
		r.buckets[idx] = n
		return n
	}
	tail := head
	for tail.next != nil {
		tail = tail.next
	}
	tail.next = n
	return n
}

// findOrInsert returns the existing node for id, or creates one.
func (r *registry) findOrInsert(id uint32) *depNode {
	if n := r.find(id); n != nil {
		return n
	}
	return r.insert(id)
}

// remove unlinks the node for id and returns the packet it owned, if any.
func (r *registry) remove(id uint32) *Packet {
	idx := id % registryBuckets
	var prev *depNode
	n := r.buckets[idx]
	for n != nil && n.id != id {
		prev = n
		n = n.next
	}
	if n == nil {
		return nil
	}
	if prev == nil {
		r.buckets[idx] = n.next
	} else {
		prev.next = n.next
	}
	return n.owner
}

// clearAll drops every node, discarding all outstanding reference counts.
// Used when seeking to a new region: dependencies tracked against packets
// before the seek are meaningless once the stream is repositioned.
func (r *registry) clearAll() {
	for i := range r.buckets {
		r.buckets[i] = nil
	}
}

// register records a freshly read packet: it claims (or creates) its own
// node and attaches itself as that node's owner, then bumps the reference
// count of every dependency it names, creating nodes for dependencies that
// have not been seen yet.
func (r *registry) register(p *Packet) {
	self := r.findOrInsert(p.ID)
	self.owner = p
	for _, dep := range p.Deps {
		d := r.findOrInsert(dep)
		d.count++
	}
}

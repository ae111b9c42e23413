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

// ClearedEntry is one node of the singly-linked list of cleared packets.
// Entries are appended by the self-throttling read-ahead pump and, under
// cleared-list tracking, by ClearAndFree. Context.Cleared returns the head
// and Next walks the list; Context.PopCleared removes one entry at a time
// and Context.DrainCleared drops them all. Neither frees the packets.
type ClearedEntry struct {
	Packet *Packet
	next   *ClearedEntry
}

// Next returns the following entry, or nil at the end of the list.
func (e *ClearedEntry) Next() *ClearedEntry {
	if e == nil {
		return nil
	}
	return e.next
}

// clearedList is a FIFO of ClearedEntry, appended at the tail as packets
// clear and drained from the head in the order they cleared.
type clearedList struct {
	head, tail *ClearedEntry
	length     int
}

func newClearedList() *clearedList {
	return &clearedList{}
}

func (l *clearedList) append(p *Packet) {
	n := &ClearedEntry{Packet: p}
	if l.tail == nil {
		l.head, l.tail = n, n
	} else {
		l.tail.next = n
		l.tail = n
	}
	l.length++
}

// Head returns the first cleared entry without removing it.
func (l *clearedList) Head() *ClearedEntry {
	return l.head
}

// Len reports how many entries are queued.
func (l *clearedList) Len() int {
	return l.length
}

// reset discards every queued entry. The packets themselves are untouched;
// only the list's bookkeeping nodes are dropped.
func (l *clearedList) reset() {
	l.head, l.tail = nil, nil
	l.length = 0
}

// popFront removes and returns the first queued packet, or nil if the list
// is empty.
func (l *clearedList) popFront() *Packet {
	if l.head == nil {
		return nil
	}
	n := l.head
	l.head = n.next
	if l.head == nil {
		l.tail = nil
	}
	l.length--
	return n.Packet
}

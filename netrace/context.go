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
	"io"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/valyala/bytebufferpool"

	"github.com/netrace/netrace/common"
)

// Context is a single trace-replay session: one open trace stream, its
// dependency registry, and the read-ahead/cleared-list state layered on top
// of it. A Context moves through a small set of states: fresh (zero value),
// open, open with one or more of dependency-tracking disabled / cleared-list
// tracking / self-throttling engaged, and closed. Every exported method
// documents which states it requires.
//
// A Context is not safe for concurrent use. Each replay context is expected
// to be driven by a single goroutine, matching the single-threaded-per-core
// assumption of the systems this library feeds traces into.
type Context struct {
	session uuid.UUID
	src     source
	header  *Header
	reg     *registry
	cleared *clearedList
	metrics *contextMetrics

	opened       bool
	depsDisabled bool
	trackCleared bool
	selfThrottle bool
	primed       bool
	doneReading  bool

	activePackets uint64
	latestCycle   uint64
}

// Open creates a new Context and decodes the trace file at path into it,
// piping it through bzip2 -dc.
func Open(path string) (*Context, error) {
	c := &Context{}
	if err := c.Open(path); err != nil {
		return nil, err
	}
	return c, nil
}

// OpenReader decodes a trace from whatever io.Reader opener produces. It is
// how tests and embedding applications that own their own decompression
// feed a trace through the same decode path a real file takes. It always
// creates a new Context.
func OpenReader(opener func() (io.Reader, error)) (*Context, error) {
	c := &Context{}
	if err := c.OpenReader(opener); err != nil {
		return nil, err
	}
	return c, nil
}

// Open decodes a trace file at path into c, closing any previously open
// stream first.
func (c *Context) Open(path string) error {
	if c.opened {
		if err := c.Close(); err != nil {
			return err
		}
	}
	src, err := newProcessSource(path, "bzip2", "-dc")
	if err != nil {
		return raise(ErrIO, err, "failed to open trace file %s", path)
	}
	return c.initFromSource(src)
}

// OpenReader decodes a trace produced by opener into c, closing any
// previously open stream first.
func (c *Context) OpenReader(opener func() (io.Reader, error)) error {
	if c.opened {
		if err := c.Close(); err != nil {
			return err
		}
	}
	src, err := newReaderSource(opener)
	if err != nil {
		return raise(ErrIO, err, "failed to open trace reader")
	}
	return c.initFromSource(src)
}

func (c *Context) initFromSource(src source) error {
	h, err := decodeHeader(src)
	if err != nil {
		_ = src.close()
		return err
	}

	c.src = src
	c.header = h
	c.reg = newRegistry()
	c.cleared = newClearedList()
	c.depsDisabled = false
	c.trackCleared = false
	c.selfThrottle = false
	c.primed = false
	c.doneReading = false
	c.activePackets = 0
	c.latestCycle = 0
	c.session = uuid.New()
	c.metrics = newContextMetrics(h.Benchmark, c.session.String())
	c.opened = true
	return nil
}

func (c *Context) requireOpen() error {
	if !c.opened {
		return raise(ErrState, nil, "operation requires an open context")
	}
	return nil
}

// DisableDependencies turns off dependency tracking entirely: ReadPacket no
// longer registers packets in the dependency registry, and
// DependenciesCleared always reports true. It must be called before
// cleared-list tracking is enabled.
func (c *Context) DisableDependencies() error {
	if err := c.requireOpen(); err != nil {
		return err
	}
	if c.trackCleared {
		return raise(ErrState, nil, "cannot disable dependency tracking once cleared-list tracking is enabled")
	}
	c.depsDisabled = true
	c.reg.clearAll()
	return nil
}

// EnableClearedList turns on the cleared-packet queue: whenever
// ClearAndFree drops a dependency's reference count to zero and that
// dependency's own packet has not yet been cleared itself, the packet that
// owns that dependency is queued for Cleared/DrainCleared to observe. It
// cannot be combined with DisableDependencies.
func (c *Context) EnableClearedList() error {
	if err := c.requireOpen(); err != nil {
		return err
	}
	if c.depsDisabled {
		return raise(ErrState, nil, "cannot enable cleared-list tracking once dependency tracking is disabled")
	}
	c.trackCleared = true
	return nil
}

// EnableSelfThrottling turns on the read-ahead pump: ClearAndFree will read
// forward until the latest read cycle outruns the cleared packet's cycle by
// the read-ahead window, queuing every packet whose dependencies clear
// along the way. It implies EnableClearedList and primes the pump with the
// first packet in the stream.
func (c *Context) EnableSelfThrottling() error {
	if err := c.requireOpen(); err != nil {
		return err
	}
	if c.depsDisabled {
		return raise(ErrState, nil, "cannot enable self-throttling once dependency tracking is disabled")
	}
	if !c.trackCleared {
		if err := c.EnableClearedList(); err != nil {
			return err
		}
	}
	c.selfThrottle = true
	c.primed = false
	return c.primeSelfThrottle()
}

// Header returns the decoded trace header.
func (c *Context) Header() *Header { return c.header }

// ActivePackets returns the number of packets currently registered with the
// dependency tracker but not yet cleared.
func (c *Context) ActivePackets() uint64 { return c.activePackets }

// LatestCycle returns the cycle stamp of the most recently read packet.
func (c *Context) LatestCycle() uint64 { return c.latestCycle }

// Session returns this context's unique session identifier, used to label
// its metrics.
func (c *Context) Session() uuid.UUID { return c.session }

// Cleared returns the head of the cleared-packet queue without draining it.
func (c *Context) Cleared() *ClearedEntry {
	if c.cleared == nil {
		return nil
	}
	return c.cleared.Head()
}

// ClearedLen reports how many packets are queued in the cleared list.
func (c *Context) ClearedLen() int {
	if c.cleared == nil {
		return 0
	}
	return c.cleared.Len()
}

// DrainCleared discards the cleared-list queue. The packets it held remain
// valid; only the queue's own bookkeeping is reset.
func (c *Context) DrainCleared() {
	if c.cleared != nil {
		c.cleared.reset()
	}
}

// PopCleared removes and returns the first packet queued on the cleared
// list, or nil if the list is empty. This is the usual way to drive a
// replay loop: every newly-cleared packet surfaces here exactly once.
func (c *Context) PopCleared() *Packet {
	if c.cleared == nil {
		return nil
	}
	return c.cleared.popFront()
}

// ReadPacket decodes and returns the next packet in the stream, or (nil,
// nil) at a clean end of stream. Unless dependency tracking has been
// disabled, the packet is registered with the dependency registry before
// it is returned.
func (c *Context) ReadPacket() (*Packet, error) {
	if err := c.requireOpen(); err != nil {
		return nil, err
	}
	return c.nextPacket()
}

// nextPacket is the unguarded core of ReadPacket, reused by the read-ahead
// pump so priming and throttling don't re-enter the public state check.
func (c *Context) nextPacket() (*Packet, error) {
	if c.doneReading {
		return nil, nil
	}
	p, err := decodePacket(c.src)
	if err != nil {
		return nil, err
	}
	if p == nil {
		c.doneReading = true
		return nil, nil
	}
	if !c.depsDisabled {
		c.reg.register(p)
	}
	c.activePackets++
	if p.Cycle > c.latestCycle {
		c.latestCycle = p.Cycle
	}
	if c.metrics != nil {
		c.metrics.packetsRead.Inc()
		c.metrics.activePackets.Set(float64(c.activePackets))
		c.metrics.latestCycle.Set(float64(c.latestCycle))
	}
	return p, nil
}

// DependenciesCleared reports whether every packet p depends on has already
// been retired by a ClearAndFree call: a dependency's node stays in the
// registry for as long as other packets still reference it (see depNode's
// ownerCleared field in registry.go), so presence alone doesn't mean
// "not yet safe". A packet is safe to inject once every id in its own
// dependency list either has no node at all (fully retired and collected)
// or has a node whose owner has already cleared. It always reports true
// when dependency tracking is disabled, or when p lists no dependencies at
// all.
func (c *Context) DependenciesCleared(p *Packet) bool {
	if c.depsDisabled {
		return true
	}
	for _, dep := range p.Deps {
		if node := c.reg.find(dep); node != nil && !node.ownerCleared {
			return false
		}
	}
	return true
}

// ClearAndFree retires p: when self-throttling is enabled it first pumps
// the read-ahead window forward from p's cycle, then decrements the
// reference count of every packet p depended on. A dependency's node is
// unlinked from the registry once nothing references it any longer, which
// happens either here (if its own owner already cleared) or when that
// owner itself later clears (if this decrement wasn't the last reference).
// A dependency dropping to zero while its owner hasn't cleared yet queues
// that owner onto the cleared list when cleared-list tracking is enabled,
// rather than removing the node out from under it. Finally p's own
// registry entry is marked retired, and removed immediately if nothing
// else still depends on it.
func (c *Context) ClearAndFree(p *Packet) error {
	if err := c.requireOpen(); err != nil {
		return err
	}

	if c.selfThrottle {
		if err := c.readAhead(p.Cycle); err != nil {
			return err
		}
	}

	for _, dep := range p.Deps {
		node := c.reg.find(dep)
		if node == nil {
			if c.depsDisabled {
				continue
			}
			return raise(ErrInvariant, nil, "missing dependency node %d for packet %d", dep, p.ID)
		}
		if node.count == 0 {
			return raise(ErrInvariant, nil, "dependency reference count underflow on node %d clearing packet %d", dep, p.ID)
		}
		node.count--
		if node.count == 0 {
			if node.ownerCleared {
				c.reg.remove(dep)
			} else if c.trackCleared && node.owner != nil {
				c.cleared.append(node.owner)
			}
		}
	}

	if self := c.reg.find(p.ID); self != nil {
		self.ownerCleared = true
		if self.count == 0 {
			c.reg.remove(p.ID)
		}
	}

	if c.activePackets > 0 {
		c.activePackets--
	}
	if c.metrics != nil {
		c.metrics.activePackets.Set(float64(c.activePackets))
		c.metrics.clearedDepth.Set(float64(c.cleared.Len()))
	}
	return nil
}

// SeekRegion repositions the stream to the start of the region at index,
// discarding all outstanding dependency state: it is only meaningful to
// jump regions when nothing from the previous position is still pending.
// If self-throttling is enabled, the pump is re-primed after the seek.
func (c *Context) SeekRegion(index int) error {
	if err := c.requireOpen(); err != nil {
		return err
	}
	if index < 0 || index >= len(c.header.Regions) {
		return raise(ErrInvariant, nil, "region index %d out of range (have %d regions)", index, len(c.header.Regions))
	}
	region := c.header.Regions[index]

	c.reg.clearAll()
	c.cleared.reset()
	c.doneReading = false
	c.activePackets = 0
	c.latestCycle = 0

	if err := c.src.reopen(); err != nil {
		return raise(ErrIO, err, "failed to reopen trace stream for region seek")
	}

	if err := discard(c.src, c.header.HeaderSize()+region.SeekOffset); err != nil {
		return raise(ErrIO, err, "failed to seek to region %d", index)
	}

	if c.metrics != nil {
		c.metrics.regionSeeks.Inc()
		c.metrics.activePackets.Set(0)
		c.metrics.latestCycle.Set(0)
	}

	if c.selfThrottle {
		c.primed = false
		return c.primeSelfThrottle()
	}
	return nil
}

// discard reads and drops exactly n bytes from r in common.ScratchBufferSize
// chunks through a pooled scratch buffer, used to fast-forward a
// non-seekable decompressor pipe.
func discard(r io.Reader, n uint64) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if cap(buf.B) < common.ScratchBufferSize {
		buf.B = make([]byte, common.ScratchBufferSize)
	}
	scratch := buf.B[:common.ScratchBufferSize]
	for n > 0 {
		chunk := uint64(len(scratch))
		if n < chunk {
			chunk = n
		}
		read, err := io.ReadFull(r, scratch[:chunk])
		if err != nil {
			return err
		}
		n -= uint64(read)
	}
	return nil
}

// Close tears down the context: the underlying byte source is closed and
// every piece of in-memory state is dropped. It is safe to call Close on an
// already-closed or never-opened context.
func (c *Context) Close() error {
	var result error
	if c.src != nil {
		if err := c.src.close(); err != nil {
			result = multierror.Append(result, err)
		}
		c.src = nil
	}
	c.header = nil
	c.reg = nil
	c.cleared = nil
	c.metrics = nil
	c.opened = false
	c.depsDisabled = false
	c.trackCleared = false
	c.selfThrottle = false
	c.primed = false
	c.doneReading = false
	c.activePackets = 0
	c.latestCycle = 0
	return result
}

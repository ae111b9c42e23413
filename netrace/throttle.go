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

// readAheadWindow is how far past a cleared packet's cycle the self-
// throttling pump reads before stopping, matching the original
// implementation's fixed read-ahead distance.
const readAheadWindow = 1_000_000

// readAhead pumps the stream forward from currentCycle until the latest
// read packet's cycle exceeds currentCycle by readAheadWindow, or the
// stream ends. Every packet pulled in along the way whose dependencies are
// already clear is queued onto the cleared list immediately, the same as it
// would be had the caller read and cleared it directly.
func (c *Context) readAhead(currentCycle uint64) error {
	target := currentCycle + readAheadWindow
	if target < currentCycle {
		return raise(ErrInvariant, nil, "read-ahead target overflowed from cycle %d", currentCycle)
	}

	for !c.doneReading && c.latestCycle <= target {
		p, err := c.nextPacket()
		if err != nil {
			return err
		}
		if p == nil {
			break
		}
		if c.metrics != nil {
			c.metrics.readAheadRounds.Inc()
		}
		if c.DependenciesCleared(p) {
			c.cleared.append(p)
		}
	}
	return nil
}

// primeSelfThrottle reads the first packet of the stream to seed the
// read-ahead pump. An empty stream (no packets at all, such as a region
// with nothing in it) makes priming a no-op rather than an error.
func (c *Context) primeSelfThrottle() error {
	if c.primed {
		return nil
	}
	p, err := c.nextPacket()
	if err != nil {
		return err
	}
	c.primed = true
	if p == nil {
		return nil
	}
	if c.DependenciesCleared(p) {
		c.cleared.append(p)
	}
	return c.readAhead(p.Cycle)
}

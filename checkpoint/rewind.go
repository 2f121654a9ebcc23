// This file is part of Emucore.
//
// Emucore is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Emucore is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Emucore.  If not, see <https://www.gnu.org/licenses/>.

package checkpoint

import (
	"bytes"

	"github.com/jetsetilly/emucore/engine"
	"github.com/jetsetilly/emucore/logger"
	"github.com/jetsetilly/emucore/rewind"
)

// rewind snapshots include everything except the screenshot.
const rewindFlags = engine.AllStateFlags &^ engine.StateScreenshot

// SetRewind changes the rewind settings. Changing the capacity keeps the
// most recent snapshots. Disabling rewind empties the ring.
func (cp *Checkpointer) SetRewind(enabled bool, capacity int, interval int) {
	cp.rewindEnabled = enabled
	cp.rewindInterval = max(interval, 1)
	cp.rewindCounter = min(cp.rewindCounter, cp.rewindInterval)
	cp.ring.Resize(capacity)
	if !enabled {
		cp.ring.Clear()
	}
}

// RewindEnabled returns true if rewind snapshots are being taken.
func (cp *Checkpointer) RewindEnabled() bool {
	return cp.rewindEnabled
}

// RewindDepth returns the number of snapshots in the rewind ring.
func (cp *Checkpointer) RewindDepth() int {
	return cp.ring.Depth()
}

// TickRewind should be called once per frame. A snapshot is pushed to the
// ring every interval frames.
func (cp *Checkpointer) TickRewind() {
	if !cp.rewindEnabled {
		return
	}

	cp.rewindTicks++
	cp.rewindCounter++
	if cp.rewindCounter < cp.rewindInterval {
		return
	}
	cp.rewindCounter = 0

	b := &bytes.Buffer{}
	if err := cp.eng.Serialize(b, rewindFlags); err != nil {
		logger.Logf(logger.Allow, cp.tag, "rewind snapshot: %v", err)
		return
	}

	cp.ring.Push(rewind.Entry{Frame: cp.rewindTicks, Data: b.Bytes()})
}

// Restore pops up to n snapshots from the rewind ring and loads the last one
// popped. A value of zero or less pops every snapshot. Returns the number of
// snapshots popped.
func (cp *Checkpointer) Restore(n int) int {
	depth := cp.ring.Depth()
	if n <= 0 || n > depth {
		n = depth
	}
	if n == 0 {
		return 0
	}

	var e rewind.Entry
	for range n {
		e, _ = cp.ring.Pop()
	}

	if err := cp.eng.Deserialize(bytes.NewReader(e.Data), rewindFlags); err != nil {
		logger.Logf(logger.Allow, cp.tag, "rewind restore: %v", err)
	}

	cp.rewindCounter = 0
	cp.rewindTicks = e.Frame

	return n
}

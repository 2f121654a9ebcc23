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

// Package rewind implements the fixed capacity ring of engine snapshots used
// to step the emulation backwards.
//
// Snapshots are pushed by the checkpoint subsystem at a regular frame
// interval. When the ring is full the oldest snapshot is evicted. Popping
// returns the most recent snapshot first.
package rewind

// Entry is a single snapshot in the ring.
type Entry struct {
	// frame number at the time of the snapshot
	Frame int

	// serialised engine state
	Data []byte
}

// Ring is a circular array of snapshots. It is not safe for concurrent use;
// the checkpoint subsystem is only used by the worker or while the worker is
// interrupted.
type Ring struct {
	entries []Entry

	// index of the oldest entry and the number of entries in the ring
	start int
	count int
}

// NewRing is the preferred method of initialisation for the Ring type. A
// capacity of less than one is treated as one.
func NewRing(capacity int) *Ring {
	return &Ring{
		entries: make([]Entry, max(capacity, 1)),
	}
}

// Capacity returns the maximum number of entries in the ring.
func (r *Ring) Capacity() int {
	return len(r.entries)
}

// Depth returns the number of entries currently in the ring.
func (r *Ring) Depth() int {
	return r.count
}

// Push adds an entry to the ring. Returns true if the oldest entry was
// evicted to make room.
func (r *Ring) Push(e Entry) bool {
	end := (r.start + r.count) % len(r.entries)
	r.entries[end] = e

	if r.count < len(r.entries) {
		r.count++
		return false
	}

	// ring was full. push start index along
	r.start = (r.start + 1) % len(r.entries)
	return true
}

// Pop removes and returns the most recent entry.
func (r *Ring) Pop() (Entry, bool) {
	if r.count == 0 {
		return Entry{}, false
	}

	r.count--
	i := (r.start + r.count) % len(r.entries)
	e := r.entries[i]
	r.entries[i] = Entry{}
	return e, true
}

// Peek returns the most recent entry without removing it.
func (r *Ring) Peek() (Entry, bool) {
	if r.count == 0 {
		return Entry{}, false
	}
	return r.entries[(r.start+r.count-1)%len(r.entries)], true
}

// Clear removes all entries.
func (r *Ring) Clear() {
	clear(r.entries)
	r.start = 0
	r.count = 0
}

// Resize changes the capacity of the ring. The most recent entries are
// kept.
func (r *Ring) Resize(capacity int) {
	capacity = max(capacity, 1)
	if capacity == len(r.entries) {
		return
	}

	keep := min(r.count, capacity)
	entries := make([]Entry, capacity)
	for i := range keep {
		entries[i] = r.entries[(r.start+r.count-keep+i)%len(r.entries)]
	}

	r.entries = entries
	r.start = 0
	r.count = keep
}

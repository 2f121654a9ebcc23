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

package notifications

import (
	"sync"
	"sync/atomic"
	"time"
)

// Channel forwards events to a buffered channel. If the channel is full the
// event is dropped and counted, so that a slow receiver never blocks the
// emulation worker.
type Channel struct {
	events  chan Event
	dropped atomic.Int64
}

// NewChannel is the preferred method of initialisation for the Channel type.
func NewChannel(size int) *Channel {
	return &Channel{
		events: make(chan Event, max(size, 1)),
	}
}

// Notify implements the Notify interface.
func (c *Channel) Notify(ev Event) {
	select {
	case c.events <- ev:
	default:
		c.dropped.Add(1)
	}
}

// C returns the channel events are sent to.
func (c *Channel) C() <-chan Event {
	return c.events
}

// Dropped returns the number of events that have been dropped because the
// channel was full.
func (c *Channel) Dropped() int {
	return int(c.dropped.Load())
}

// Recorder keeps a copy of every event it receives.
type Recorder struct {
	crit   sync.Mutex
	events []Event
}

// Notify implements the Notify interface.
func (r *Recorder) Notify(ev Event) {
	r.crit.Lock()
	defer r.crit.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.crit.Lock()
	defer r.crit.Unlock()
	return append([]Event(nil), r.events...)
}

// Count returns the number of recorded events with the notice.
func (r *Recorder) Count(notice Notice) int {
	r.crit.Lock()
	defer r.crit.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Notice == notice {
			n++
		}
	}
	return n
}

// Last returns the most recent event with the notice.
func (r *Recorder) Last(notice Notice) (Event, bool) {
	r.crit.Lock()
	defer r.crit.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Notice == notice {
			return r.events[i], true
		}
	}
	return Event{}, false
}

// Index returns the position of the first event with the notice, or -1 if
// there is no such event.
func (r *Recorder) Index(notice Notice) int {
	r.crit.Lock()
	defer r.crit.Unlock()
	for i, ev := range r.events {
		if ev.Notice == notice {
			return i
		}
	}
	return -1
}

// Wait blocks until at least count events with the notice have been
// recorded. Returns false if the timeout expires first.
func (r *Recorder) Wait(notice Notice, count int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for r.Count(notice) < count {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
	return true
}

// Clear forgets all recorded events.
func (r *Recorder) Clear() {
	r.crit.Lock()
	defer r.crit.Unlock()
	r.events = r.events[:0]
}

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

package interrupt

import (
	"errors"
	"sync"

	"github.com/jetsetilly/emucore/govern"
)

// ticket records a single acquisition so that it can be released from a
// different goroutine.
type ticket struct {
	gid    uint64
	worker bool
}

// Coordinator implements the pause and resume protocol between the worker
// goroutine and any number of external goroutines.
type Coordinator struct {
	crit sync.Mutex
	cond *sync.Cond

	// goroutine ID of the attached worker. zero if no worker is attached
	worker uint64

	// live is true between Attach() and Close()
	live bool

	state govern.State

	// outstanding external acquisitions, in total and per goroutine
	depth   int
	holders map[uint64]int

	// acquisitions made by the worker goroutine. these never park the worker
	workerDepth int

	// the worker is parked and is not touching emulation state
	parked bool

	// pause requested by the user (or by frame advance credit running out)
	paused bool

	stopping bool

	// wake requested while the worker is parked
	woken bool
}

// NewCoordinator is the preferred method of initialisation for the
// Coordinator type.
func NewCoordinator() *Coordinator {
	c := &Coordinator{
		holders: make(map[uint64]int),
		state:   govern.Uninitialized,
	}
	c.cond = sync.NewCond(&c.crit)
	return c
}

// Attach the calling goroutine as the worker goroutine.
func (c *Coordinator) Attach() error {
	c.crit.Lock()
	defer c.crit.Unlock()

	if c.live {
		return errors.New("interrupt: worker already attached")
	}

	c.worker = goroutineID()
	c.live = true
	c.state = govern.Running
	c.stopping = false
	c.paused = false
	c.parked = false
	c.woken = false
	c.workerDepth = 0

	return nil
}

// Close is called by the worker when it is leaving the emulation loop. It
// waits until every external acquisition has been released. Once Close()
// returns, Acquire() from any goroutine other than the worker does nothing.
func (c *Coordinator) Close() {
	c.crit.Lock()
	defer c.crit.Unlock()

	c.state = govern.Stopping
	c.parked = true
	c.cond.Broadcast()
	for c.depth > 0 {
		c.cond.Wait()
	}
	c.parked = false
	c.live = false
}

// Detach the worker goroutine. The state becomes Stopped.
func (c *Coordinator) Detach() {
	c.crit.Lock()
	defer c.crit.Unlock()

	c.live = false
	c.worker = 0
	c.workerDepth = 0
	c.parked = false
	c.paused = false
	c.stopping = false
	c.state = govern.Stopped
	c.cond.Broadcast()
}

// OnWorker returns true if the calling goroutine is the worker goroutine.
func (c *Coordinator) OnWorker() bool {
	c.crit.Lock()
	defer c.crit.Unlock()
	return c.worker != 0 && c.worker == goroutineID()
}

// HeldByCaller returns true if the calling goroutine has an outstanding
// external acquisition.
func (c *Coordinator) HeldByCaller() bool {
	c.crit.Lock()
	defer c.crit.Unlock()
	return c.holders[goroutineID()] > 0
}

// State returns the current worker state.
func (c *Coordinator) State() govern.State {
	c.crit.Lock()
	defer c.crit.Unlock()
	return c.state
}

// Parked returns true if the worker is parked at a frame boundary.
func (c *Coordinator) Parked() bool {
	c.crit.Lock()
	defer c.crit.Unlock()
	return c.parked
}

// Depth returns the number of outstanding external acquisitions.
func (c *Coordinator) Depth() int {
	c.crit.Lock()
	defer c.crit.Unlock()
	return c.depth
}

// IsPaused returns true if a user pause has been requested.
func (c *Coordinator) IsPaused() bool {
	c.crit.Lock()
	defer c.crit.Unlock()
	return c.paused
}

// RequestPause asks the worker to pause at the next frame boundary.
func (c *Coordinator) RequestPause() {
	c.crit.Lock()
	defer c.crit.Unlock()
	if !c.live {
		return
	}
	c.paused = true
	c.cond.Broadcast()
}

// Unpause cancels a user pause.
// Wake causes a parked worker to run the onWake function given to Boundary()
// once there are no outstanding acquisitions. A pause is not ended by a wake.
func (c *Coordinator) Wake() {
	c.crit.Lock()
	defer c.crit.Unlock()
	if !c.live {
		return
	}
	c.woken = true
	c.cond.Broadcast()
}

func (c *Coordinator) Unpause() {
	c.crit.Lock()
	defer c.crit.Unlock()
	c.paused = false
	c.cond.Broadcast()
}

// RequestStop asks the worker to leave the emulation loop. A paused worker is
// woken immediately. Returns false if no worker is attached.
func (c *Coordinator) RequestStop() bool {
	c.crit.Lock()
	defer c.crit.Unlock()
	if !c.live {
		return false
	}
	c.stopping = true
	c.state = govern.Stopping
	c.cond.Broadcast()
	return true
}

// Stopping returns true if RequestStop() has been called.
func (c *Coordinator) Stopping() bool {
	c.crit.Lock()
	defer c.crit.Unlock()
	return c.stopping
}

// Boundary is called by the worker at the end of every frame. It parks the
// worker while there are outstanding external acquisitions or while a pause
// has been requested.
//
// The onPause and onUnpause functions are called on the worker goroutine when
// a user pause starts and ends. The onWake function is called for every
// Wake() and may touch emulation state. They are called without any lock
// held.
//
// Returns false if the worker should leave the emulation loop.
func (c *Coordinator) Boundary(onPause func(), onUnpause func(), onWake func()) bool {
	c.crit.Lock()
	defer c.crit.Unlock()

	var notified bool

	for {
		if c.woken && c.depth == 0 {
			c.woken = false
			if onWake != nil {
				c.parked = false
				c.crit.Unlock()
				onWake()
				c.crit.Lock()
			}
			continue
		}

		// a stop request overrides a user pause but not an external
		// acquisition
		if c.depth == 0 && (!c.paused || c.stopping) {
			break
		}

		if c.paused && !notified && !c.stopping {
			notified = true
			if onPause != nil {
				c.crit.Unlock()
				onPause()
				c.crit.Lock()
			}
			continue
		}

		c.parked = true
		if c.state == govern.Running {
			c.state = govern.Paused
		}
		c.cond.Broadcast()
		c.cond.Wait()
	}

	c.parked = false
	if c.state == govern.Paused {
		c.state = govern.Running
	}

	if notified && onUnpause != nil {
		c.crit.Unlock()
		onUnpause()
		c.crit.Lock()
	}

	return !c.stopping
}

func (c *Coordinator) acquire() (ticket, bool) {
	c.crit.Lock()
	defer c.crit.Unlock()

	gid := goroutineID()

	if c.worker != 0 && gid == c.worker {
		c.workerDepth++
		return ticket{gid: gid, worker: true}, true
	}

	if !c.live {
		return ticket{}, false
	}

	c.depth++
	c.holders[gid]++
	c.cond.Broadcast()

	for c.live && !c.parked {
		c.cond.Wait()
	}

	// the worker stopped while waiting
	if !c.live && !c.parked {
		c.releaseTicket(ticket{gid: gid})
		return ticket{}, false
	}

	return ticket{gid: gid}, true
}

// releaseTicket must be called with the lock held.
func (c *Coordinator) releaseTicket(t ticket) {
	if t.worker {
		if c.workerDepth > 0 {
			c.workerDepth--
		}
		return
	}

	if c.holders[t.gid] == 0 {
		return
	}
	c.holders[t.gid]--
	if c.holders[t.gid] == 0 {
		delete(c.holders, t.gid)
	}

	c.depth--
	if c.depth == 0 {
		c.cond.Broadcast()
	}
}

func (c *Coordinator) release(t ticket) {
	c.crit.Lock()
	defer c.crit.Unlock()
	c.releaseTicket(t)
}

// Acquire the coordinator. Returns false if there was nothing to acquire, in
// which case Release() should not be called.
//
// Prefer the Guard type, which can be released from any goroutine.
func (c *Coordinator) Acquire() bool {
	_, ok := c.acquire()
	return ok
}

// Release an acquisition made by the calling goroutine. Releasing when the
// calling goroutine has no outstanding acquisition does nothing.
func (c *Coordinator) Release() {
	c.crit.Lock()
	defer c.crit.Unlock()

	gid := goroutineID()
	if c.worker != 0 && gid == c.worker && c.workerDepth > 0 {
		c.releaseTicket(ticket{gid: gid, worker: true})
		return
	}
	c.releaseTicket(ticket{gid: gid})
}

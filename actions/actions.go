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

// Package actions implements the queue of deferred operations that run on
// the emulation worker at the end of a frame.
//
// Actions can be pushed from any goroutine. The worker drains the queue once
// per frame. Actions run in the order they were pushed and each action runs
// exactly once. An action pushed while the queue is being drained, including
// by an action that is itself running, is deferred to the next drain.
package actions

import (
	"sync"
)

// Action is a function that will be run on the emulation worker.
type Action func()

// Queue of pending actions.
type Queue struct {
	crit  sync.Mutex
	queue []Action

	// slice reused by the next swap. only the draining goroutine touches the
	// contents of spare
	spare []Action
}

// Push adds an action to the end of the queue. Nil actions are ignored.
func (q *Queue) Push(a Action) {
	if a == nil {
		return
	}
	q.crit.Lock()
	defer q.crit.Unlock()
	q.queue = append(q.queue, a)
}

// Drain runs every action in the queue at the time of the call and returns
// the number of actions run. Worker only.
//
// The lock is held only long enough to swap the live queue with an empty
// one. The captured actions are run without the lock held.
func (q *Queue) Drain() int {
	q.crit.Lock()
	captured := q.queue
	q.queue = q.spare[:0]
	q.spare = nil
	q.crit.Unlock()

	for i := range captured {
		captured[i]()
		captured[i] = nil
	}

	q.crit.Lock()
	if q.spare == nil {
		q.spare = captured[:0]
	}
	q.crit.Unlock()

	return len(captured)
}

// Len returns the number of actions waiting to be run.
func (q *Queue) Len() int {
	q.crit.Lock()
	defer q.crit.Unlock()
	return len(q.queue)
}

// Clear removes all pending actions without running them.
func (q *Queue) Clear() {
	q.crit.Lock()
	defer q.crit.Unlock()
	clear(q.queue)
	q.queue = q.queue[:0]
}

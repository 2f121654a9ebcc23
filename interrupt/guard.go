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

// Guard holds an acquisition of a Coordinator. The zero value holds nothing.
//
// A Guard should be used by a single goroutine at a time. It can be released
// by a goroutine other than the one that acquired it.
type Guard struct {
	target *Coordinator
	ticket ticket
	held   bool
}

// NewGuard acquires the target and returns a Guard holding the acquisition.
// A nil target is allowed.
func NewGuard(target *Coordinator) *Guard {
	g := &Guard{}
	g.Interrupt(target)
	return g
}

// Interrupt reassigns the guard to a new target. The new target is acquired
// before the old one is released so the emulation is never unprotected
// during the transfer. A nil target releases the guard.
func (g *Guard) Interrupt(target *Coordinator) {
	prev := *g

	*g = Guard{target: target}
	if target != nil {
		g.ticket, g.held = target.acquire()
	}

	if prev.held {
		prev.target.release(prev.ticket)
	}
}

// Copy returns a new Guard that holds a separate acquisition of the same
// target.
func (g *Guard) Copy() *Guard {
	return NewGuard(g.target)
}

// Resume releases the acquisition and forgets the target. Calling Resume()
// more than once does nothing.
func (g *Guard) Resume() {
	if g.held {
		g.target.release(g.ticket)
	}
	*g = Guard{}
}

// Held returns true if the guard holds an acquisition.
func (g *Guard) Held() bool {
	return g.held
}

// Target returns the coordinator the guard was last assigned to.
func (g *Guard) Target() *Coordinator {
	return g.target
}

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

package govern

// State indicates the state of the emulation worker.
type State int

// List of possible worker states. The worker moves from Uninitialized to
// Running when it is started and from Stopping to Stopped when it ends. A
// stopped worker can be started again.
const (
	Uninitialized State = iota
	Running
	Paused
	Stopping
	Stopped
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case Running:
		return "Running"
	case Paused:
		return "Paused"
	case Stopping:
		return "Stopping"
	case Stopped:
		return "Stopped"
	}
	return ""
}

// Alive returns true if the worker goroutine exists for the state.
func (s State) Alive() bool {
	return s == Running || s == Paused || s == Stopping
}

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

package worker

// Listener receives the lifecycle events of the worker. Every function is
// called synchronously on the worker goroutine.
type Listener interface {
	// the loop is about to run the first frame
	Start()

	// the engine has been reset
	Reset()

	// a frame has been completed and the frame buffers have been swapped
	Frame()

	// the loop is ending normally
	Clean()

	// a user pause has started or ended
	Pause()
	Unpause()
}

// NullListener implements the Listener interface and does nothing.
type NullListener struct{}

func (NullListener) Start()   {}
func (NullListener) Reset()   {}
func (NullListener) Frame()   {}
func (NullListener) Clean()   {}
func (NullListener) Pause()   {}
func (NullListener) Unpause() {}

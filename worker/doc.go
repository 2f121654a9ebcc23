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

// Package worker runs the emulation loop on a dedicated goroutine.
//
// The loop steps the engine until a frame is complete and then performs the
// frame-end bookkeeping, in this order:
//
//	autosave cadence
//	rewind (restore while rewinding, otherwise tick the ring)
//	swap the frame buffers
//	Listener.Frame() (input merge)
//	drain the action queue
//	frame advance credit
//	NotifyFrameAvailable
//	pacing
//	frame boundary (pause and interrupt requests)
//
// Other goroutines interact with the loop through the interrupt.Coordinator,
// the actions.Queue and the framebuffer.Manager. The Listener is always
// called on the worker goroutine.
//
// A fault in the engine (an error from Step(), a panic or a fatal log
// message) stops the loop and latches a crash. The crash is reported once
// with NotifyCrashed and the worker ignores Start() and Stop() until Reset()
// clears the latch and restarts the loop.
package worker

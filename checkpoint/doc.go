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

// Package checkpoint saves and loads the state of the simulation engine.
//
// Checkpoints are stored through the persistence layer in numbered slots or
// by name. Slot zero is reserved for the suspend state written by autosave
// and is never listed as a user slot.
//
// The most recent save and the most recent load can each be undone once.
// Saving remembers the bytes the save displaced from the slot and loading
// remembers the live engine state it replaced.
//
// The package also maintains the rewind ring. The worker calls TickRewind()
// once per frame and a snapshot is pushed to the ring every interval frames.
// Restore() pops snapshots from the ring and loads the oldest one popped.
//
// None of the types in this package are safe for concurrent use. Every
// method must be called either by the emulation worker or by a goroutine
// that holds an interrupt on the worker.
package checkpoint

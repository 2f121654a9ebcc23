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

// Package persistence is the storage layer for checkpoints. Checkpoints are
// opaque byte streams addressed either by an integer slot or by a name.
//
// A Handle opened for writing does not change the stored checkpoint until it
// is closed. If any write to the handle failed, or if Discard() was called,
// the stored checkpoint is left exactly as it was. This allows the
// checkpoint subsystem to guarantee that a failed save never leaves a
// partially written slot.
//
// Two implementations are provided. Memory keeps checkpoints in memory and
// can have failures injected for testing. Disk keeps checkpoints as files in
// a directory.
package persistence

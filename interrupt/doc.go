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

// Package interrupt coordinates access to the emulation from goroutines other
// than the worker goroutine.
//
// A goroutine that wants to change emulation state calls Acquire(). If the
// caller is the worker goroutine itself the call returns immediately; the
// worker only calls out to other code at safe points. Otherwise the worker is
// asked to park at the next frame boundary and Acquire() blocks until it has
// done so. The worker stays parked until every acquisition has been released.
//
// Acquisitions nest. Only the release that brings the depth back to zero
// allows the worker to continue.
//
// The Guard type is a reassignable and copyable token that holds an
// acquisition of a Coordinator:
//
//	g := interrupt.NewGuard(coord)
//	defer g.Resume()
//
// Acquiring a Coordinator that has no worker attached, or releasing a
// Coordinator that has not been acquired, does nothing.
package interrupt

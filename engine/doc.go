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

// Package engine defines the interface between the execution controller and
// the simulation engine that it drives.
//
// The engine is a passive component. Every method is called either by the
// emulation worker or by another goroutine while the worker is interrupted,
// so implementations do not need to protect their state from concurrent
// access.
//
// Optional behaviour is expressed with additional interfaces that an engine
// may implement: AudioSyncer for audio pacing, AudioSource for the AV stream
// and Loggable for forwarding engine log output.
package engine

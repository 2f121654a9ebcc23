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

// Package notifications defines the events the execution controller sends to
// the rest of the application, and the Notify interface that receives them.
//
// Events are sent from the emulation worker and from whichever goroutine is
// calling the controller, so implementations of Notify must be safe for
// concurrent use and must not block for any length of time. The Channel type
// forwards events to another goroutine. The Recorder type keeps a copy of
// every event and is useful for testing. The Zap type writes events to a
// structured logger.
package notifications

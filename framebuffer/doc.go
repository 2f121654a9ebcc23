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

// Package framebuffer manages the pair of pixel buffers shared between the
// emulation worker and any number of readers.
//
// The active buffer is bound to the engine and is written only by the
// worker. At the end of every frame the worker calls Swap(), which copies
// the active buffer to the complete buffer under a lock. Readers on other
// goroutines only ever see the complete buffer, through Read() or Image(),
// and they always receive a copy.
//
// When hardware bypass is enabled the engine renders somewhere else and the
// buffers are not populated. Read() returns ErrBypass in that case.
//
// Pixels are stored as four bytes per pixel in RGBA order.
package framebuffer

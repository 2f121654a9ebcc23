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

package framebuffer

import (
	"crypto/sha1"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
)

// PixelSize is the number of bytes used to represent a single pixel.
const PixelSize = 4

// ErrBypass is returned by Read() and Image() when the frame buffers are not
// being populated because of hardware bypass.
var ErrBypass = errors.New("framebuffer: hardware bypass")

// Manager owns the active and complete frame buffers.
type Manager struct {
	// crit protects the complete buffer, the dimensions and the digest. the
	// active buffer is only ever touched by the worker
	crit sync.Mutex

	active   []byte
	complete []byte
	width    int
	height   int

	// chained digest of every swapped frame
	digest [sha1.Size]byte
	frames int

	bypass atomic.Bool
}

// NewManager is the preferred method of initialisation for the Manager type.
func NewManager(width, height int) *Manager {
	mgr := &Manager{}
	mgr.allocate(width, height)
	return mgr
}

func (mgr *Manager) allocate(width, height int) {
	width = max(width, 0)
	height = max(height, 0)
	mgr.width = width
	mgr.height = height
	mgr.active = make([]byte, width*height*PixelSize)
	mgr.complete = make([]byte, width*height*PixelSize)
}

// Resize reallocates both buffers. Must only be called by the worker or while
// the worker is interrupted because the active buffer is replaced. The engine
// must be given the new active buffer afterwards.
func (mgr *Manager) Resize(width, height int) {
	mgr.crit.Lock()
	defer mgr.crit.Unlock()
	if width == mgr.width && height == mgr.height {
		return
	}
	mgr.allocate(width, height)
}

// Dimensions returns the width and height of the frame in pixels.
func (mgr *Manager) Dimensions() (int, int) {
	mgr.crit.Lock()
	defer mgr.crit.Unlock()
	return mgr.width, mgr.height
}

// Active returns the active buffer and the stride (in pixels) of each row.
// For use by the worker, or while the worker is interrupted, when binding the
// buffer to the engine.
func (mgr *Manager) Active() ([]byte, int) {
	mgr.crit.Lock()
	defer mgr.crit.Unlock()
	return mgr.active, mgr.width
}

// Fill sets every byte of both buffers to the value. Must only be called by
// the worker or while the worker is interrupted.
func (mgr *Manager) Fill(v byte) {
	mgr.crit.Lock()
	defer mgr.crit.Unlock()
	for i := range mgr.active {
		mgr.active[i] = v
	}
	copy(mgr.complete, mgr.active)
}

// Swap copies the active buffer to the complete buffer and updates the
// chained digest. Worker only. Does nothing in bypass mode.
func (mgr *Manager) Swap() {
	if mgr.bypass.Load() {
		return
	}

	mgr.crit.Lock()
	defer mgr.crit.Unlock()

	copy(mgr.complete, mgr.active)

	h := sha1.New()
	h.Write(mgr.digest[:])
	h.Write(mgr.complete)
	copy(mgr.digest[:], h.Sum(nil))
	mgr.frames++
}

// Read returns a copy of the most recently completed frame.
func (mgr *Manager) Read() ([]byte, error) {
	if mgr.bypass.Load() {
		return nil, ErrBypass
	}

	mgr.crit.Lock()
	defer mgr.crit.Unlock()

	c := make([]byte, len(mgr.complete))
	copy(c, mgr.complete)
	return c, nil
}

// Image returns a copy of the most recently completed frame as an image.
func (mgr *Manager) Image() (*image.RGBA, error) {
	if mgr.bypass.Load() {
		return nil, ErrBypass
	}

	mgr.crit.Lock()
	defer mgr.crit.Unlock()

	img := image.NewRGBA(image.Rect(0, 0, mgr.width, mgr.height))
	copy(img.Pix, mgr.complete)
	return img, nil
}

// SetBypass enables or disables hardware bypass mode.
func (mgr *Manager) SetBypass(bypass bool) {
	mgr.bypass.Store(bypass)
}

// Bypass returns true if hardware bypass mode is enabled.
func (mgr *Manager) Bypass() bool {
	return mgr.bypass.Load()
}

// Digest returns the chained digest of every frame swapped since the last
// call to ResetDigest(). Two runs of a deterministic engine that produce the
// same frames produce the same digest.
func (mgr *Manager) Digest() string {
	mgr.crit.Lock()
	defer mgr.crit.Unlock()
	return fmt.Sprintf("%x", mgr.digest)
}

// ResetDigest zeroes the chained digest.
func (mgr *Manager) ResetDigest() {
	mgr.crit.Lock()
	defer mgr.crit.Unlock()
	mgr.digest = [sha1.Size]byte{}
	mgr.frames = 0
}

// Frames returns the number of frames swapped since the last ResetDigest().
func (mgr *Manager) Frames() int {
	mgr.crit.Lock()
	defer mgr.crit.Unlock()
	return mgr.frames
}

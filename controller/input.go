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

package controller

import "sync"

// the number of keys supported by the input merge. keys are identified by
// their bit position in the key state
const numKeys = 32

// input state merged with the engine's key state at the end of every frame.
type input struct {
	crit sync.Mutex

	active  uint32
	removed uint32

	threshold      int
	autofire       [numKeys]bool
	autofireStatus [numKeys]int
}

func (in *input) addKey(key int) {
	if key < 0 || key >= numKeys {
		return
	}
	in.crit.Lock()
	defer in.crit.Unlock()
	in.active |= 1 << key
	in.removed &^= 1 << key
}

func (in *input) clearKey(key int) {
	if key < 0 || key >= numKeys {
		return
	}
	in.crit.Lock()
	defer in.crit.Unlock()
	in.active &^= 1 << key
	in.removed |= 1 << key
}

func (in *input) setAutofire(key int, enable bool) {
	if key < 0 || key >= numKeys {
		return
	}
	in.crit.Lock()
	defer in.crit.Unlock()
	in.autofire[key] = enable
	in.autofireStatus[key] = 0
}

func (in *input) setThreshold(threshold int) {
	in.crit.Lock()
	defer in.crit.Unlock()
	in.threshold = max(threshold, 1)
}

func (in *input) reset() {
	in.crit.Lock()
	defer in.crit.Unlock()
	clear(in.autofireStatus[:])
}

// updateAutofire must be called with the lock held. An autofire key is
// released for threshold frames and then held for threshold frames. The mask
// of all autofire keys is returned along with the keys that are held.
func (in *input) updateAutofire() (mask uint32, keys uint32) {
	for k := range numKeys {
		if !in.autofire[k] {
			continue
		}
		mask |= 1 << k
		in.autofireStatus[k]++
		if in.autofireStatus[k] >= 2*in.threshold {
			in.autofireStatus[k] = 0
		} else if in.autofireStatus[k] >= in.threshold {
			keys |= 1 << k
		}
	}
	return mask, keys
}

// merge returns the new key state. Keys released with clearKey() since the
// previous merge are removed from the engine's key state, as are keys that
// were polled or held by autofire in the previous merge and are not again.
// Keys with autofire enabled follow the autofire cycle only.
func (in *input) merge(engineKeys uint32, polled uint32) uint32 {
	in.crit.Lock()
	defer in.crit.Unlock()

	mask, held := in.updateAutofire()
	keys := in.active | polled | (engineKeys &^ in.removed)
	keys = keys&^mask | held
	in.removed = polled | held

	return keys
}

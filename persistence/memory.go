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

package persistence

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// ErrInjected is the error returned by a Memory store when a failure has been
// injected.
var ErrInjected = errors.New("persistence: injected failure")

// Memory is a Store that keeps checkpoints in memory.
type Memory struct {
	crit  sync.Mutex
	files map[string][]byte

	failWrites bool
	failOpens  bool
}

// NewMemory is the preferred method of initialisation for the Memory type.
func NewMemory() *Memory {
	return &Memory{
		files: make(map[string][]byte),
	}
}

// FailWrites causes every subsequent write to a handle to fail.
func (m *Memory) FailWrites(fail bool) {
	m.crit.Lock()
	defer m.crit.Unlock()
	m.failWrites = fail
}

// FailOpens causes every subsequent open to fail.
func (m *Memory) FailOpens(fail bool) {
	m.crit.Lock()
	defer m.crit.Unlock()
	m.failOpens = fail
}

// Corrupt applies the function to the stored data of the slot. For testing.
func (m *Memory) Corrupt(slot int, f func(data []byte) []byte) {
	m.crit.Lock()
	defer m.crit.Unlock()
	name := slotName(slot)
	if d, ok := m.files[name]; ok {
		m.files[name] = f(d)
	}
}

// OpenSlot implements the Store interface.
func (m *Memory) OpenSlot(slot int, write bool) (Handle, error) {
	if slot < 0 {
		return nil, fmt.Errorf("persistence: illegal slot %d", slot)
	}
	return m.open(slotName(slot), write)
}

// Open implements the Store interface.
func (m *Memory) Open(name string, write bool) (Handle, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	return m.open(name, write)
}

func (m *Memory) open(name string, write bool) (Handle, error) {
	m.crit.Lock()
	defer m.crit.Unlock()

	if m.failOpens {
		return nil, ErrInjected
	}

	d, ok := m.files[name]
	if !ok && !write {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}

	b := &buffer{
		data:  append([]byte(nil), d...),
		write: write,
	}

	if write {
		b.commit = func(data []byte) error {
			m.crit.Lock()
			defer m.crit.Unlock()
			m.files[name] = append([]byte(nil), data...)
			return nil
		}
		b.failNext = func() error {
			m.crit.Lock()
			defer m.crit.Unlock()
			if m.failWrites {
				return ErrInjected
			}
			return nil
		}
	}

	return b, nil
}

// RemoveSlot implements the Store interface.
func (m *Memory) RemoveSlot(slot int) error {
	m.crit.Lock()
	defer m.crit.Unlock()
	delete(m.files, slotName(slot))
	return nil
}

// Remove implements the Store interface.
func (m *Memory) Remove(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	m.crit.Lock()
	defer m.crit.Unlock()
	delete(m.files, name)
	return nil
}

// Slots implements the Store interface.
func (m *Memory) Slots() ([]int, error) {
	m.crit.Lock()
	defer m.crit.Unlock()

	var slots []int
	for name := range m.files {
		if s, ok := parseSlotName(name); ok {
			slots = append(slots, s)
		}
	}
	sort.Ints(slots)
	return slots, nil
}

func parseSlotName(name string) (int, bool) {
	if !strings.HasPrefix(name, slotPrefix) {
		return 0, false
	}
	s, err := strconv.Atoi(strings.TrimPrefix(name, slotPrefix))
	if err != nil || s < 0 {
		return 0, false
	}
	return s, true
}

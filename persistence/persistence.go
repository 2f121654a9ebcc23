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
	"io"
	"strings"
)

// Handle is an open checkpoint.
type Handle interface {
	io.ReadWriteSeeker

	// Size returns the number of bytes in the checkpoint
	Size() int64

	// Truncate changes the size of the checkpoint
	Truncate(size int64) error

	// Close the handle. For write handles this commits the data, unless an
	// earlier write failed or Discard() was called
	Close() error

	// Discard closes the handle without committing anything
	Discard() error
}

// Store opens checkpoints by slot or by name.
type Store interface {
	// OpenSlot opens the numbered slot. When write is false and the slot
	// does not exist the error satisfies errors.Is(err, fs.ErrNotExist)
	OpenSlot(slot int, write bool) (Handle, error)

	// Open opens the named checkpoint
	Open(name string, write bool) (Handle, error)

	// RemoveSlot removes the numbered slot. Removing a slot that does not
	// exist is not an error
	RemoveSlot(slot int) error

	// Remove removes the named checkpoint
	Remove(name string) error

	// Slots lists the slots that exist in ascending order
	Slots() ([]int, error)
}

// ErrReadOnly is returned when writing to a handle opened for reading.
var ErrReadOnly = errors.New("persistence: handle is read only")

// ErrClosed is returned when using a handle after it has been closed.
var ErrClosed = errors.New("persistence: handle is closed")

// ReadAll reads the entire contents of the slot.
func ReadAll(s Store, slot int) ([]byte, error) {
	h, err := s.OpenSlot(slot, false)
	if err != nil {
		return nil, err
	}
	defer h.Close()
	return readHandle(h)
}

// ReadAllNamed reads the entire contents of the named checkpoint.
func ReadAllNamed(s Store, name string) ([]byte, error) {
	h, err := s.Open(name, false)
	if err != nil {
		return nil, err
	}
	defer h.Close()
	return readHandle(h)
}

func readHandle(h Handle) ([]byte, error) {
	if _, err := h.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	data := make([]byte, h.Size())
	if _, err := io.ReadFull(h, data); err != nil {
		return nil, err
	}
	return data, nil
}

// WriteAll replaces the contents of the slot with a single write.
func WriteAll(s Store, slot int, data []byte) error {
	h, err := s.OpenSlot(slot, true)
	if err != nil {
		return err
	}
	return writeHandle(h, data)
}

// WriteAllNamed replaces the contents of the named checkpoint with a single
// write.
func WriteAllNamed(s Store, name string, data []byte) error {
	h, err := s.Open(name, true)
	if err != nil {
		return err
	}
	return writeHandle(h, data)
}

func writeHandle(h Handle, data []byte) error {
	if err := h.Truncate(0); err != nil {
		_ = h.Discard()
		return err
	}
	if _, err := h.Write(data); err != nil {
		_ = h.Discard()
		return err
	}
	return h.Close()
}

// slot names are used by both store implementations.
const slotPrefix = "slot"

func slotName(slot int) string {
	return fmt.Sprintf("%s%d", slotPrefix, slot)
}

// validName checks that the name can be used as the name of a checkpoint.
func validName(name string) error {
	if name == "" {
		return errors.New("persistence: empty name")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("persistence: illegal name %q", name)
	}
	return nil
}

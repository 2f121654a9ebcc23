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
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jetsetilly/emucore/paths"
)

// slot files have this extension.
const slotExtension = ".ss"

// Disk is a Store that keeps checkpoints as files in a directory. Write
// handles write to a temporary file which is renamed over the checkpoint
// when the handle is closed.
type Disk struct {
	dir string
}

// NewDisk is the preferred method of initialisation for the Disk type. The
// directory is created if it does not exist.
func NewDisk(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("persistence: %w", err)
	}
	return &Disk{dir: dir}, nil
}

// NewResourceDisk creates a Disk store in the named sub-directory of the
// emucore resource path.
func NewResourceDisk(subDir string) (*Disk, error) {
	pth, err := paths.ResourcePath(subDir, "")
	if err != nil {
		return nil, fmt.Errorf("persistence: %w", err)
	}
	return NewDisk(pth)
}

// Dir returns the directory the checkpoints are stored in.
func (d *Disk) Dir() string {
	return d.dir
}

func (d *Disk) slotPath(slot int) string {
	return filepath.Join(d.dir, slotName(slot)+slotExtension)
}

// OpenSlot implements the Store interface.
func (d *Disk) OpenSlot(slot int, write bool) (Handle, error) {
	if slot < 0 {
		return nil, fmt.Errorf("persistence: illegal slot %d", slot)
	}
	return d.open(d.slotPath(slot), write)
}

// Open implements the Store interface. Names are relative to the directory
// of the store.
func (d *Disk) Open(name string, write bool) (Handle, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	return d.open(filepath.Join(d.dir, name), write)
}

func (d *Disk) open(pth string, write bool) (Handle, error) {
	data, err := os.ReadFile(pth)
	if err != nil {
		if !write || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("persistence: %w", err)
		}
	}

	b := &buffer{
		data:  data,
		write: write,
	}

	if write {
		b.commit = func(data []byte) error {
			tmp, err := os.CreateTemp(d.dir, ".checkpoint*")
			if err != nil {
				return fmt.Errorf("persistence: %w", err)
			}
			_, err = tmp.Write(data)
			if err == nil {
				err = tmp.Sync()
			}
			if cerr := tmp.Close(); err == nil {
				err = cerr
			}
			if err == nil {
				err = os.Rename(tmp.Name(), pth)
			}
			if err != nil {
				_ = os.Remove(tmp.Name())
				return fmt.Errorf("persistence: %w", err)
			}
			return nil
		}
	}

	return b, nil
}

// RemoveSlot implements the Store interface.
func (d *Disk) RemoveSlot(slot int) error {
	return remove(d.slotPath(slot))
}

// Remove implements the Store interface.
func (d *Disk) Remove(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	return remove(filepath.Join(d.dir, name))
}

func remove(pth string) error {
	err := os.Remove(pth)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("persistence: %w", err)
	}
	return nil
}

// Slots implements the Store interface.
func (d *Disk) Slots() ([]int, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("persistence: %w", err)
	}

	var slots []int
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), slotExtension) {
			continue
		}
		if s, ok := parseSlotName(strings.TrimSuffix(e.Name(), slotExtension)); ok {
			slots = append(slots, s)
		}
	}
	sort.Ints(slots)
	return slots, nil
}

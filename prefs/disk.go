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

package prefs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DefaultPrefsFile is the default filename of the preferences file.
const DefaultPrefsFile = "preferences.toml"

// file formats supported by Disk.
type format int

const (
	formatTOML format = iota
	formatYAML
)

// Disk represents preference values as stored on disk.
type Disk struct {
	crit    sync.Mutex
	path    string
	format  format
	entries map[string]pref
}

// NewDisk is the preferred method of initialisation for the Disk type. The
// file does not need to exist.
func NewDisk(path string) (*Disk, error) {
	dsk := &Disk{
		path:    path,
		entries: make(map[string]pref),
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dsk.format = formatYAML
	default:
		dsk.format = formatTOML
	}

	return dsk, nil
}

func (dsk *Disk) String() string {
	dsk.crit.Lock()
	defer dsk.crit.Unlock()

	s := strings.Builder{}
	for _, k := range dsk.keys() {
		s.WriteString(fmt.Sprintf("%s :: %s\n", k, dsk.entries[k]))
	}
	return s.String()
}

// Path returns the path of the file the Disk instance loads from and saves
// to.
func (dsk *Disk) Path() string {
	return dsk.path
}

func (dsk *Disk) keys() []string {
	keys := make([]string, 0, len(dsk.entries))
	for k := range dsk.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Add a pref value to the Disk instance. A key can only be added once.
func (dsk *Disk) Add(key string, p pref) error {
	dsk.crit.Lock()
	defer dsk.crit.Unlock()

	if key == "" || strings.HasPrefix(key, ".") || strings.HasSuffix(key, ".") {
		return fmt.Errorf("prefs: illegal key %q", key)
	}
	if _, ok := dsk.entries[key]; ok {
		return fmt.Errorf("prefs: key %q already added", key)
	}

	dsk.entries[key] = p
	return nil
}

// Reset all pref values to their zero value.
func (dsk *Disk) Reset() error {
	dsk.crit.Lock()
	defer dsk.crit.Unlock()

	for _, k := range dsk.keys() {
		if err := dsk.entries[k].Reset(); err != nil {
			return fmt.Errorf("prefs: %s: %w", k, err)
		}
	}
	return nil
}

// Load values from disk. A missing file is not an error. Any matching values
// on the command line stack are applied after the file has been read.
func (dsk *Disk) Load() error {
	dsk.crit.Lock()
	defer dsk.crit.Unlock()

	data, err := os.ReadFile(dsk.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("prefs: %w", err)
	}

	if len(data) > 0 {
		raw := make(map[string]any)
		switch dsk.format {
		case formatYAML:
			err = yaml.Unmarshal(data, &raw)
		default:
			err = toml.Unmarshal(data, &raw)
		}
		if err != nil {
			return fmt.Errorf("prefs: %s: %w", dsk.path, err)
		}

		flat := make(map[string]any)
		flatten(flat, "", raw)

		for _, k := range dsk.keys() {
			if v, ok := flat[k]; ok {
				if err := dsk.entries[k].Set(v); err != nil {
					return fmt.Errorf("prefs: %s: %w", k, err)
				}
			}
		}
	}

	for _, k := range dsk.keys() {
		if ok, v := GetCommandLinePref(k); ok {
			if err := dsk.entries[k].Set(v); err != nil {
				return fmt.Errorf("prefs: %s: %w", k, err)
			}
		}
	}

	return nil
}

// Save current pref values to disk. The file is written to a temporary file
// first and then renamed over the existing file.
func (dsk *Disk) Save() error {
	dsk.crit.Lock()
	defer dsk.crit.Unlock()

	tree := make(map[string]any)
	for _, k := range dsk.keys() {
		insert(tree, strings.Split(k, "."), dsk.entries[k].Get())
	}

	var data []byte
	var err error
	switch dsk.format {
	case formatYAML:
		data, err = yaml.Marshal(tree)
	default:
		data, err = toml.Marshal(tree)
	}
	if err != nil {
		return fmt.Errorf("prefs: %w", err)
	}

	if dir := filepath.Dir(dsk.path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("prefs: %w", err)
		}
	}

	tmp := dsk.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("prefs: %w", err)
	}
	if err := os.Rename(tmp, dsk.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("prefs: %w", err)
	}

	return nil
}

// flatten nested tables into keys joined with a period.
func flatten(flat map[string]any, prefix string, raw map[string]any) {
	for k, v := range raw {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if m, ok := v.(map[string]any); ok {
			flatten(flat, key, m)
			continue
		}
		flat[key] = v
	}
}

// insert value into the tree, creating nested tables for each part of the
// path except the last.
func insert(tree map[string]any, path []string, value any) {
	for _, p := range path[:len(path)-1] {
		m, ok := tree[p].(map[string]any)
		if !ok {
			m = make(map[string]any)
			tree[p] = m
		}
		tree = m
	}
	tree[path[len(path)-1]] = value
}

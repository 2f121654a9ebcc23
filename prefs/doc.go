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

// Package prefs facilitates the storage of preferential values in the
// emucore system. Preferences are typed values (Bool, Int, Float and String)
// that are safe to read from any goroutine. Hooks can be attached to a value
// so that a change is checked before it is committed, or acted upon after it
// has been committed.
//
// Values are associated with a key by adding them to a Disk instance. The
// Disk instance loads and saves the values to a file. The format of the file
// depends on the file extension: files ending in .yaml or .yml are YAML
// files; all other files are TOML files. Keys containing a period are stored
// as nested tables, so "rewind.capacity" is the capacity entry of the rewind
// table.
//
// Values can also be given on the command line as a "prefs string". A prefs
// string is a list of key/value pairs separated by semicolons. Key and value
// are separated by a double colon:
//
//	"fpsTarget::30; mute::true"
//
// Command line values take precedence over the values in the file and are
// consumed the first time a Disk instance with a matching key is loaded.
package prefs

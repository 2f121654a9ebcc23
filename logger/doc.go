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

// Package logger is the central log repository for emucore. The package
// level functions write to a single shared log that is safe to use from any
// goroutine. Individual Logger instances can be created with NewLogger() for
// testing or for components that want to keep a private log.
//
// Log entries consist of a tag and a detail. The tag is normally the name of
// the package creating the entry. Consecutive entries with the same tag and
// detail are collapsed into a single entry with a repeat count.
//
// All logging requires a Permission. For most purposes the Allow permission
// is sufficient. Types that sometimes want to suppress logging, for example
// while running in a rewind or headless context, can implement the
// Permission interface.
package logger

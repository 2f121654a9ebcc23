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

// Package paths contains functions to prepare paths for emucore resources.
//
// The ResourcePath() function returns the correct path to the resource
// directory or file specified in the arguments. It handles the creation of
// directories as required.
//
// The base path depends on how the binary was built. Release builds
// (build tag "release") use the user's configuration directory as returned by
// os.UserConfigDir(). Development builds use a hidden directory in the
// current working directory.
package paths

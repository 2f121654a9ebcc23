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

// Package modalflag parses command lines that are divided into modes. Each
// mode has its own set of flags and can name a list of sub-modes. The first
// sub-mode in a list is the default and is selected when the next argument
// does not name one of the others.
//
// For example, the command line:
//
//	emucore check -frames 600 -slot 1
//
// is parsed in two passes. The first pass registers the top level flags and
// the sub-modes RUN and CHECK. The second pass registers the flags for the
// selected sub-mode:
//
//	md := modalflag.Modes{Output: os.Stdout}
//	md.NewArgs(os.Args[1:])
//	md.AddSubModes("RUN", "CHECK")
//	if r, err := md.Parse(); r != modalflag.ParseContinue {
//		...
//	}
//
//	md.NewMode()
//	frames := md.AddInt("frames", 600, "number of frames to run")
//	...
//
// Sub-mode names are compared without regard to case. The Path() function
// returns every mode selected so far, separated by a forward slash.
package modalflag

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

// Package curated is a helper package for the plain Go language error type.
// Curated errors implement the error interface but keep hold of the format
// pattern they were created with. The pattern can later be used to identify
// the kind of error without resorting to string comparison of the formatted
// message.
//
// The patterns used by the rest of the module are exported by the packages
// that generate them. For example, the checkpoint package exports the
// CheckpointIOFailure and CheckpointFormatFailure patterns.
//
//	err := curated.Errorf(checkpoint.CheckpointIOFailure, slot, ioErr)
//	if curated.Is(err, checkpoint.CheckpointIOFailure) {
//		...
//	}
//
// The Has() function will search down the list of values given to the
// pattern for a matching pattern. This is useful when a curated error is
// wrapped by another curated error.
//
// Curated errors also implement Unwrap() so the standard errors package can
// see through to the first error value given to Errorf().
package curated

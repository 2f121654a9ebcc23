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

package govern

import "strings"

// Mode is a set of run mode flags. More than one flag can be set at once, in
// which case the Effective() mode is the one that takes priority.
type Mode int

// List of run modes. Normal is the absence of any other flag.
const (
	Normal            Mode = 0
	FastForwardHeld   Mode = 1 << 0
	FastForwardForced Mode = 1 << 1
	Rewinding         Mode = 1 << 2
)

// FastForward is either of the fast forward flags.
const FastForward = FastForwardHeld | FastForwardForced

// Effective returns the mode that takes priority. Rewinding takes priority
// over fast forward, which takes priority over Normal. When both fast
// forward flags are set, the held flag is returned.
func (m Mode) Effective() Mode {
	switch {
	case m&Rewinding == Rewinding:
		return Rewinding
	case m&FastForwardHeld == FastForwardHeld:
		return FastForwardHeld
	case m&FastForwardForced == FastForwardForced:
		return FastForwardForced
	}
	return Normal
}

// Is returns true if all flags in the argument are set.
func (m Mode) Is(f Mode) bool {
	return m&f == f
}

// IsFastForward returns true if either fast forward flag is set.
func (m Mode) IsFastForward() bool {
	return m&FastForward != 0
}

func (m Mode) String() string {
	if m == Normal {
		return "Normal"
	}

	s := make([]string, 0, 3)
	if m&Rewinding == Rewinding {
		s = append(s, "Rewinding")
	}
	if m&FastForwardHeld == FastForwardHeld {
		s = append(s, "FastForwardHeld")
	}
	if m&FastForwardForced == FastForwardForced {
		s = append(s, "FastForwardForced")
	}
	return strings.Join(s, "|")
}

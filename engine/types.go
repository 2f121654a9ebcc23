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

package engine

import (
	"fmt"
	"strings"
)

// StateFlags control which optional sections are included in a serialised
// engine state.
type StateFlags uint32

// List of valid StateFlags.
const (
	StateScreenshot StateFlags = 1 << iota
	StateSaveData
	StateCheats
	StateRTC
	StateMetadata
)

// AllStateFlags is the union of every state flag.
const AllStateFlags = StateScreenshot | StateSaveData | StateCheats | StateRTC | StateMetadata

// Has returns true if every flag in the argument is set.
func (f StateFlags) Has(g StateFlags) bool {
	return f&g == g
}

func (f StateFlags) String() string {
	if f == 0 {
		return "none"
	}

	s := make([]string, 0, 5)
	if f.Has(StateScreenshot) {
		s = append(s, "screenshot")
	}
	if f.Has(StateSaveData) {
		s = append(s, "savedata")
	}
	if f.Has(StateCheats) {
		s = append(s, "cheats")
	}
	if f.Has(StateRTC) {
		s = append(s, "rtc")
	}
	if f.Has(StateMetadata) {
		s = append(s, "metadata")
	}
	if f&^AllStateFlags != 0 {
		s = append(s, fmt.Sprintf("unknown(%#x)", uint32(f&^AllStateFlags)))
	}
	return strings.Join(s, "|")
}

// Peripheral identifies the kind of peripheral attached with SetPeripheral().
type Peripheral int

// List of peripheral kinds.
const (
	PeripheralRotation Peripheral = iota
	PeripheralRumble
	PeripheralImageSource
	PeripheralLuminance
	PeripheralLink
)

func (p Peripheral) String() string {
	switch p {
	case PeripheralRotation:
		return "rotation"
	case PeripheralRumble:
		return "rumble"
	case PeripheralImageSource:
		return "image source"
	case PeripheralLuminance:
		return "luminance"
	case PeripheralLink:
		return "link"
	}
	return fmt.Sprintf("peripheral(%d)", int(p))
}

// LogLevel of an engine log message.
type LogLevel int

// List of log levels. A LogFatal message indicates that the engine can not
// continue.
const (
	LogFatal LogLevel = iota
	LogError
	LogWarn
	LogInfo
	LogDebug
	LogStub
)

func (l LogLevel) String() string {
	switch l {
	case LogFatal:
		return "fatal"
	case LogError:
		return "error"
	case LogWarn:
		return "warn"
	case LogInfo:
		return "info"
	case LogDebug:
		return "debug"
	case LogStub:
		return "stub"
	}
	return ""
}

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
	"io"
)

// Engine is the simulation engine driven by the emulation worker.
type Engine interface {
	// Init prepares the engine. Called once by the worker before the first
	// call to Step()
	Init() error

	// Deinit releases any resources held by the engine
	Deinit()

	// Reset the engine to its power on state
	Reset()

	// Step executes the smallest schedulable unit of emulation. Returns true
	// if a frame was completed by the unit
	Step() (bool, error)

	// VideoSize returns the width and height of the video output in pixels
	VideoSize() (int, int)

	// SetVideoBuffer binds the buffer the engine renders in to. The stride
	// is the number of pixels in each row of the buffer
	SetVideoBuffer(buffer []byte, stride int)

	// Checksum of the current engine state. Two engines in the same state
	// return the same checksum
	Checksum() uint32

	// Serialize writes the engine state to the writer. The flags control
	// which optional sections are included
	Serialize(w io.Writer, flags StateFlags) error

	// Deserialize reads engine state from the reader. Only the optional
	// sections that are both in the data and in the flags are applied. The
	// engine must validate the entire stream before committing any change
	Deserialize(r io.Reader, flags StateFlags) error

	// Keys returns the current key state
	Keys() uint32

	// SetKeys sets the current key state
	SetKeys(keys uint32)

	// SetPeripheral attaches the peripheral to the engine. A nil value
	// detaches the peripheral
	SetPeripheral(kind Peripheral, p any)

	// ReloadConfig informs the engine of a configuration change
	ReloadConfig(key string, value any)
}

// AudioSyncer is implemented by engines that can block until the audio
// output is ready for more samples.
type AudioSyncer interface {
	// WaitAudio blocks until the audio output is ready or until the wake
	// channel receives. Returns false if the wait was interrupted
	WaitAudio(wake <-chan struct{}) bool
}

// AVStream receives the engine's audio and video output as it is produced.
type AVStream interface {
	PostAudio(samples []int16, rate int, channels int) error
	PostVideoFrame(pixels []byte, width int, height int) error
}

// AudioSource is implemented by engines that can produce an AV stream.
type AudioSource interface {
	// SetAVStream attaches the stream. A nil stream detaches the current
	// stream
	SetAVStream(s AVStream)
}

// Loggable is implemented by engines that produce log output.
type Loggable interface {
	SetLogger(f LogFunc)
}

// LogFunc is the function an engine uses to produce log output.
type LogFunc func(level LogLevel, category string, text string)

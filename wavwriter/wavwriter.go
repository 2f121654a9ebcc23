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

// Package wavwriter records the audio output of an engine to a WAV file. The
// audio is buffered in memory in its entirety and written to disk when
// Close() is called. It is therefore only suitable for short recordings and
// for testing purposes.
package wavwriter

import (
	"os"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/jetsetilly/emucore/curated"
	"github.com/jetsetilly/emucore/logger"
)

// Error patterns.
const (
	WavWriterFailure = "wavwriter: %v"
	FormatChange     = "wavwriter: format changed from %dHz/%d to %dHz/%d"
)

const bitDepth = 16

// WavWriter implements the engine.AVStream interface. Video frames are
// counted but otherwise ignored.
type WavWriter struct {
	filename string

	crit     sync.Mutex
	rate     int
	channels int
	buffer   []int
	frames   int
	closed   bool
}

// New is the preferred method of initialisation for the WavWriter type.
func New(filename string) (*WavWriter, error) {
	if filename == "" {
		return nil, curated.Errorf(WavWriterFailure, "no filename")
	}
	return &WavWriter{filename: filename}, nil
}

// PostAudio implements the engine.AVStream interface. The sample rate and
// number of channels of the first call set the format of the file.
func (aw *WavWriter) PostAudio(samples []int16, rate int, channels int) error {
	aw.crit.Lock()
	defer aw.crit.Unlock()

	if aw.closed {
		return nil
	}

	if aw.rate == 0 {
		aw.rate = rate
		aw.channels = channels
	} else if aw.rate != rate || aw.channels != channels {
		return curated.Errorf(FormatChange, aw.rate, aw.channels, rate, channels)
	}

	for _, s := range samples {
		aw.buffer = append(aw.buffer, int(s))
	}

	return nil
}

// PostVideoFrame implements the engine.AVStream interface.
func (aw *WavWriter) PostVideoFrame(_ []byte, _ int, _ int) error {
	aw.crit.Lock()
	defer aw.crit.Unlock()
	aw.frames++
	return nil
}

// Samples returns the number of samples buffered so far, counting each
// channel separately.
func (aw *WavWriter) Samples() int {
	aw.crit.Lock()
	defer aw.crit.Unlock()
	return len(aw.buffer)
}

// Close writes the buffered audio to disk. Audio posted after Close() is
// discarded. Calling Close() more than once has no effect.
func (aw *WavWriter) Close() (rerr error) {
	aw.crit.Lock()
	defer aw.crit.Unlock()

	if aw.closed {
		return nil
	}
	aw.closed = true

	if aw.rate == 0 {
		logger.Logf(logger.Allow, "wavwriter", "no audio to write to %s", aw.filename)
		return nil
	}

	f, err := os.Create(aw.filename)
	if err != nil {
		return curated.Errorf(WavWriterFailure, err)
	}
	defer func() {
		err := f.Close()
		if err != nil && rerr == nil {
			rerr = curated.Errorf(WavWriterFailure, err)
		}
	}()

	// audio format 1 is uncompressed PCM
	enc := wav.NewEncoder(f, aw.rate, bitDepth, aw.channels, 1)

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: aw.channels,
			SampleRate:  aw.rate,
		},
		Data:           aw.buffer,
		SourceBitDepth: bitDepth,
	}

	logger.Logf(logger.Allow, "wavwriter", "writing %d frames of audio to %s", aw.frames, aw.filename)

	if err := enc.Write(buf); err != nil {
		return curated.Errorf(WavWriterFailure, err)
	}
	if err := enc.Close(); err != nil {
		return curated.Errorf(WavWriterFailure, err)
	}

	return nil
}

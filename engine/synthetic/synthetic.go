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

// Package synthetic is a deterministic simulation engine. It has no real
// hardware behind it but it behaves the way the execution controller
// expects a real engine to behave: it produces video a scanline at a time,
// it has battery backed save data, a real time clock and cheats, and it
// serialises and validates its state.
//
// Given the same sequence of key states, two instances of the engine will
// produce the same frames and the same checksums.
//
// Faults can be injected for testing with the Faults field.
package synthetic

import (
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/jetsetilly/emucore/engine"
)

// Default dimensions of the video output.
const (
	DefaultWidth  = 160
	DefaultHeight = 120
)

// SaveDataSize is the number of bytes of battery backed save data.
const SaveDataSize = 512

// the save data is written to once every saveDataInterval frames.
const saveDataInterval = 60

// audio output. the sample rate is chosen so that a whole number of samples
// is produced for every frame at sixty frames per second.
const (
	AudioRate       = 32760
	AudioChannels   = 2
	samplesPerFrame = AudioRate / 60
)

// Faults can be injected in to the engine for testing. A zero value
// disables the fault.
type Faults struct {
	// Init() returns this error
	Init error

	// Step() returns an error when the frame is reached
	ErrorAtFrame uint64

	// Step() panics when the frame is reached
	PanicAtFrame uint64

	// a LogFatal message is logged when the frame is reached
	FatalLogAtFrame uint64
}

// Engine is the synthetic simulation engine.
type Engine struct {
	Faults Faults

	width  int
	height int

	initialised bool
	bypass      bool

	video  []byte
	stride int

	log    engine.LogFunc
	stream engine.AVStream
	audio  []int16

	peripherals map[engine.Peripheral]any
	config      map[string]any

	state state
}

// NewEngine is the preferred method of initialisation for the Engine type.
func NewEngine() *Engine {
	return NewEngineWithSize(DefaultWidth, DefaultHeight)
}

// NewEngineWithSize creates an engine with the specified video output size.
func NewEngineWithSize(width, height int) *Engine {
	e := &Engine{
		width:       max(width, 1),
		height:      max(height, 1),
		peripherals: make(map[engine.Peripheral]any),
		config:      make(map[string]any),
		audio:       make([]int16, samplesPerFrame*AudioChannels),
	}
	e.state.reset()
	return e
}

func (e *Engine) String() string {
	return fmt.Sprintf("synthetic %dx%d frame %d", e.width, e.height, e.state.frame)
}

// Init implements the engine.Engine interface.
func (e *Engine) Init() error {
	if e.Faults.Init != nil {
		return e.Faults.Init
	}
	e.initialised = true
	e.logf(engine.LogInfo, "synthetic", "initialised (%dx%d)", e.width, e.height)
	return nil
}

// Deinit implements the engine.Engine interface.
func (e *Engine) Deinit() {
	e.initialised = false
	e.video = nil
	e.stream = nil
}

// Reset implements the engine.Engine interface. The save data, the real time
// clock and the cheats survive a reset.
func (e *Engine) Reset() {
	e.state.frame = 0
	e.state.scanline = 0
	e.state.rng = rngSeed
	e.state.keys = 0
}

// Step implements the engine.Engine interface. Each step renders a single
// scanline.
func (e *Engine) Step() (bool, error) {
	if !e.initialised {
		return false, errors.New("synthetic: engine not initialised")
	}

	if e.state.scanline == 0 {
		f := e.state.frame
		if e.Faults.ErrorAtFrame > 0 && f == e.Faults.ErrorAtFrame {
			return false, fmt.Errorf("synthetic: illegal instruction at frame %d", f)
		}
		if e.Faults.PanicAtFrame > 0 && f == e.Faults.PanicAtFrame {
			panic(fmt.Sprintf("synthetic: corrupted state at frame %d", f))
		}
		if e.Faults.FatalLogAtFrame > 0 && f == e.Faults.FatalLogAtFrame {
			e.logf(engine.LogFatal, "synthetic", "jammed at frame %d", f)
		}
	}

	e.state.rng = next(e.state.rng ^ e.state.keys)

	if !e.bypass {
		e.renderScanline()
	}

	e.state.scanline++
	if int(e.state.scanline) < e.height {
		return false, nil
	}

	e.state.scanline = 0
	e.state.frame++

	if e.state.frame%saveDataInterval == 0 {
		e.state.saveData[(e.state.frame/saveDataInterval)%SaveDataSize] = byte(e.state.rng)
	}

	e.postAV()

	return true, nil
}

func (e *Engine) renderScanline() {
	y := int(e.state.scanline)
	if e.video == nil || e.stride <= 0 {
		return
	}

	w := min(e.width, e.stride)
	idx := y * e.stride * 4
	if idx+w*4 > len(e.video) {
		return
	}

	row := e.video[idx : idx+w*4]
	seed := byte(e.state.rng >> 8)
	for x := 0; x < w; x++ {
		row[x*4] = seed + byte(x)
		row[x*4+1] = byte(y) ^ byte(e.state.keys)
		row[x*4+2] = byte(e.state.frame)
		row[x*4+3] = 0xff
	}
}

// the audio is a square wave with a period that depends on the key state.
func (e *Engine) postAV() {
	if e.stream == nil {
		return
	}

	period := 64 + int(e.state.keys&0xff)
	for i := 0; i < samplesPerFrame; i++ {
		var v int16 = 0x0800
		if ((int(e.state.frame)*samplesPerFrame+i)/period)%2 == 0 {
			v = -v
		}
		for c := range AudioChannels {
			e.audio[i*AudioChannels+c] = v
		}
	}

	if err := e.stream.PostAudio(e.audio, AudioRate, AudioChannels); err != nil {
		e.logf(engine.LogWarn, "synthetic", "audio stream: %v", err)
	}

	if e.video != nil && !e.bypass {
		if err := e.stream.PostVideoFrame(e.video, e.stride, e.height); err != nil {
			e.logf(engine.LogWarn, "synthetic", "video stream: %v", err)
		}
	}
}

// VideoSize implements the engine.Engine interface.
func (e *Engine) VideoSize() (int, int) {
	return e.width, e.height
}

// SetVideoBuffer implements the engine.Engine interface.
func (e *Engine) SetVideoBuffer(buffer []byte, stride int) {
	e.video = buffer
	e.stride = stride
}

// Checksum implements the engine.Engine interface.
func (e *Engine) Checksum() uint32 {
	h := crc32.NewIEEE()
	e.state.writeCore(h)
	h.Write(e.state.saveData[:])
	writeValue(h, e.state.rtc)
	writeValue(h, uint32(len(e.state.cheats)))
	for _, c := range e.state.cheats {
		writeValue(h, c)
	}
	return h.Sum32()
}

// Keys implements the engine.Engine interface.
func (e *Engine) Keys() uint32 {
	return e.state.keys
}

// SetKeys implements the engine.Engine interface.
func (e *Engine) SetKeys(keys uint32) {
	e.state.keys = keys
}

// SetPeripheral implements the engine.Engine interface.
func (e *Engine) SetPeripheral(kind engine.Peripheral, p any) {
	if p == nil {
		delete(e.peripherals, kind)
		return
	}
	e.peripherals[kind] = p
}

// Peripheral returns the peripheral attached for the kind or nil.
func (e *Engine) Peripheral(kind engine.Peripheral) any {
	return e.peripherals[kind]
}

// ReloadConfig implements the engine.Engine interface. The "hwaccelVideo"
// key stops the engine rendering to the video buffer.
func (e *Engine) ReloadConfig(key string, value any) {
	e.config[key] = value
	if key == "hwaccelVideo" {
		if b, ok := value.(bool); ok {
			e.bypass = b
		}
	}
}

// Config returns the most recent value given to ReloadConfig() for the key.
func (e *Engine) Config(key string) (any, bool) {
	v, ok := e.config[key]
	return v, ok
}

// SetAVStream implements the engine.AudioSource interface.
func (e *Engine) SetAVStream(s engine.AVStream) {
	e.stream = s
}

// SetLogger implements the engine.Loggable interface.
func (e *Engine) SetLogger(f engine.LogFunc) {
	e.log = f
}

func (e *Engine) logf(level engine.LogLevel, category string, format string, args ...any) {
	if e.log != nil {
		e.log(level, category, fmt.Sprintf(format, args...))
	}
}

// Frame returns the number of frames completed since the last reset.
func (e *Engine) Frame() uint64 {
	return e.state.frame
}

// SaveData returns a copy of the battery backed save data.
func (e *Engine) SaveData() []byte {
	c := make([]byte, SaveDataSize)
	copy(c, e.state.saveData[:])
	return c
}

// SetRTC sets the real time clock value.
func (e *Engine) SetRTC(v int64) {
	e.state.rtc = v
}

// RTC returns the real time clock value.
func (e *Engine) RTC() int64 {
	return e.state.rtc
}

// AddCheat adds a cheat code.
func (e *Engine) AddCheat(code uint32) {
	e.state.cheats = append(e.state.cheats, code)
}

// Cheats returns a copy of the list of cheat codes.
func (e *Engine) Cheats() []uint32 {
	return append([]uint32(nil), e.state.cheats...)
}

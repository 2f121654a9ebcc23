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

package synthetic

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/jetsetilly/emucore/engine"
)

const (
	stateMagic   = "SYNE"
	stateVersion = uint16(1)

	// an unreasonable number of cheats indicates a corrupted state
	maxCheats = 1024

	rngSeed = uint32(0x2545f491)
)

// the serialisable state of the engine.
type state struct {
	frame    uint64
	scanline uint32
	rng      uint32
	keys     uint32

	saveData [SaveDataSize]byte
	rtc      int64
	cheats   []uint32
	metadata string
}

func (s *state) reset() {
	*s = state{rng: rngSeed}
}

// linear congruential generator.
func next(v uint32) uint32 {
	return v*1664525 + 1013904223
}

func writeValue(w io.Writer, v any) {
	_ = binary.Write(w, binary.LittleEndian, v)
}

func (s *state) writeCore(w io.Writer) {
	writeValue(w, s.frame)
	writeValue(w, s.scanline)
	writeValue(w, s.rng)
	writeValue(w, s.keys)
}

// Serialize implements the engine.Engine interface.
func (e *Engine) Serialize(w io.Writer, flags engine.StateFlags) error {
	b := &bytes.Buffer{}

	b.WriteString(stateMagic)
	writeValue(b, stateVersion)
	writeValue(b, uint32(flags&engine.AllStateFlags))
	writeValue(b, uint16(e.width))
	writeValue(b, uint16(e.height))

	e.state.writeCore(b)

	if flags.Has(engine.StateSaveData) {
		b.Write(e.state.saveData[:])
	}
	if flags.Has(engine.StateRTC) {
		writeValue(b, e.state.rtc)
	}
	if flags.Has(engine.StateCheats) {
		writeValue(b, uint32(len(e.state.cheats)))
		for _, c := range e.state.cheats {
			writeValue(b, c)
		}
	}
	if flags.Has(engine.StateMetadata) {
		md := fmt.Sprintf("synthetic %dx%d frame %d", e.width, e.height, e.state.frame)
		writeValue(b, uint32(len(md)))
		b.WriteString(md)
	}

	_, err := w.Write(b.Bytes())
	if err != nil {
		return fmt.Errorf("synthetic: %w", err)
	}
	return nil
}

// Deserialize implements the engine.Engine interface. The entire stream is
// decoded and validated before the engine state is changed.
func (e *Engine) Deserialize(r io.Reader, flags engine.StateFlags) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("synthetic: %w", err)
	}

	n, included, err := e.decode(data)
	if err != nil {
		return fmt.Errorf("synthetic: %w", err)
	}

	// commit. the core state is always applied, optional sections only if
	// they were included in the data and requested by the flags
	saveData := e.state.saveData
	rtc := e.state.rtc
	cheats := e.state.cheats

	if included.Has(engine.StateSaveData) && flags.Has(engine.StateSaveData) {
		saveData = n.saveData
	}
	if included.Has(engine.StateRTC) && flags.Has(engine.StateRTC) {
		rtc = n.rtc
	}
	if included.Has(engine.StateCheats) && flags.Has(engine.StateCheats) {
		cheats = n.cheats
	}

	e.state.frame = n.frame
	e.state.scanline = n.scanline
	e.state.rng = n.rng
	e.state.keys = n.keys
	e.state.saveData = saveData
	e.state.rtc = rtc
	e.state.cheats = cheats
	e.state.metadata = n.metadata

	return nil
}

var errTruncated = errors.New("truncated state")

func (e *Engine) decode(data []byte) (state, engine.StateFlags, error) {
	var n state

	r := bytes.NewReader(data)
	read := func(v any) error {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return errTruncated
		}
		return nil
	}

	magic := make([]byte, len(stateMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return n, 0, errTruncated
	}
	if string(magic) != stateMagic {
		return n, 0, fmt.Errorf("unrecognised state (%q)", magic)
	}

	var version uint16
	if err := read(&version); err != nil {
		return n, 0, err
	}
	if version != stateVersion {
		return n, 0, fmt.Errorf("unsupported state version (%d)", version)
	}

	var included uint32
	if err := read(&included); err != nil {
		return n, 0, err
	}
	if engine.StateFlags(included)&^engine.AllStateFlags != 0 {
		return n, 0, fmt.Errorf("unknown state flags (%#x)", included)
	}

	var width, height uint16
	if err := read(&width); err != nil {
		return n, 0, err
	}
	if err := read(&height); err != nil {
		return n, 0, err
	}
	if int(width) != e.width || int(height) != e.height {
		return n, 0, fmt.Errorf("state is for a %dx%d engine", width, height)
	}

	for _, v := range []any{&n.frame, &n.scanline, &n.rng, &n.keys} {
		if err := read(v); err != nil {
			return n, 0, err
		}
	}
	if int(n.scanline) >= e.height {
		return n, 0, fmt.Errorf("scanline out of range (%d)", n.scanline)
	}

	flags := engine.StateFlags(included)

	if flags.Has(engine.StateSaveData) {
		if _, err := io.ReadFull(r, n.saveData[:]); err != nil {
			return n, 0, errTruncated
		}
	}
	if flags.Has(engine.StateRTC) {
		if err := read(&n.rtc); err != nil {
			return n, 0, err
		}
	}
	if flags.Has(engine.StateCheats) {
		var count uint32
		if err := read(&count); err != nil {
			return n, 0, err
		}
		if count > maxCheats {
			return n, 0, fmt.Errorf("too many cheats (%d)", count)
		}
		n.cheats = make([]uint32, count)
		for i := range n.cheats {
			if err := read(&n.cheats[i]); err != nil {
				return n, 0, err
			}
		}
	}
	if flags.Has(engine.StateMetadata) {
		var l uint32
		if err := read(&l); err != nil {
			return n, 0, err
		}
		if int64(l) > int64(r.Len()) {
			return n, 0, errTruncated
		}
		md := make([]byte, l)
		if _, err := io.ReadFull(r, md); err != nil {
			return n, 0, errTruncated
		}
		n.metadata = string(md)
	}

	if r.Len() != 0 {
		return n, 0, fmt.Errorf("%d bytes of trailing data", r.Len())
	}

	return n, flags, nil
}

// Metadata returns the metadata string of the most recently loaded state.
func (e *Engine) Metadata() string {
	return e.state.metadata
}

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

package checkpoint

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/jetsetilly/emucore/engine"
)

// a checkpoint is stored in a container:
//
//	magic         4 bytes
//	version       uint16
//	flags         uint32
//	screenshot    uint32 length
//	state         uint32 length
//	screenshot    PNG data
//	state         engine data
//	checksum      uint32 CRC-32 of everything before it
//
// all values are little endian.
const (
	containerMagic   = "ECCP"
	containerVersion = uint16(1)
	headerLen        = 4 + 2 + 4 + 4 + 4
	checksumLen      = 4
)

type container struct {
	flags      engine.StateFlags
	screenshot []byte
	state      []byte
}

func (c container) encode() []byte {
	b := bytes.NewBuffer(make([]byte, 0, headerLen+len(c.screenshot)+len(c.state)+checksumLen))

	b.WriteString(containerMagic)
	_ = binary.Write(b, binary.LittleEndian, containerVersion)
	_ = binary.Write(b, binary.LittleEndian, uint32(c.flags))
	_ = binary.Write(b, binary.LittleEndian, uint32(len(c.screenshot)))
	_ = binary.Write(b, binary.LittleEndian, uint32(len(c.state)))
	b.Write(c.screenshot)
	b.Write(c.state)
	_ = binary.Write(b, binary.LittleEndian, crc32.ChecksumIEEE(b.Bytes()))

	return b.Bytes()
}

var errShort = errors.New("container too short")

func decodeContainer(data []byte) (container, error) {
	var c container

	if len(data) < headerLen+checksumLen {
		return c, errShort
	}

	if string(data[:4]) != containerMagic {
		return c, fmt.Errorf("not a checkpoint (%q)", data[:4])
	}

	version := binary.LittleEndian.Uint16(data[4:])
	if version != containerVersion {
		return c, fmt.Errorf("unsupported checkpoint version (%d)", version)
	}

	c.flags = engine.StateFlags(binary.LittleEndian.Uint32(data[6:]))
	shotLen := int64(binary.LittleEndian.Uint32(data[10:]))
	stateLen := int64(binary.LittleEndian.Uint32(data[14:]))

	if int64(len(data)) != headerLen+shotLen+stateLen+checksumLen {
		return c, fmt.Errorf("checkpoint length mismatch (%d bytes)", len(data))
	}

	end := len(data) - checksumLen
	if crc32.ChecksumIEEE(data[:end]) != binary.LittleEndian.Uint32(data[end:]) {
		return c, errors.New("checkpoint checksum mismatch")
	}

	c.screenshot = data[headerLen : headerLen+shotLen]
	c.state = data[headerLen+shotLen : end]

	return c, nil
}

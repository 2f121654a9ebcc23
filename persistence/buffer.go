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

package persistence

import (
	"errors"
	"io"
)

// buffer implements the Handle interface over a byte slice. commit is called
// by Close() for write handles that have not failed.
type buffer struct {
	data     []byte
	pos      int64
	write    bool
	failed   bool
	closed   bool
	commit   func(data []byte) error
	failNext func() error
}

func (b *buffer) Read(p []byte) (int, error) {
	if b.closed {
		return 0, ErrClosed
	}
	if b.pos >= int64(len(b.data)) {
		return 0, io.EOF
	}
	n := copy(p, b.data[b.pos:])
	b.pos += int64(n)
	return n, nil
}

func (b *buffer) Write(p []byte) (int, error) {
	if b.closed {
		return 0, ErrClosed
	}
	if !b.write {
		return 0, ErrReadOnly
	}
	if b.failNext != nil {
		if err := b.failNext(); err != nil {
			b.failed = true
			return 0, err
		}
	}

	end := b.pos + int64(len(p))
	if end > int64(len(b.data)) {
		if end > int64(cap(b.data)) {
			d := make([]byte, end, end*2)
			copy(d, b.data)
			b.data = d
		} else {
			b.data = b.data[:end]
		}
	}
	copy(b.data[b.pos:], p)
	b.pos = end
	return len(p), nil
}

func (b *buffer) Seek(offset int64, whence int) (int64, error) {
	if b.closed {
		return 0, ErrClosed
	}

	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = b.pos + offset
	case io.SeekEnd:
		pos = int64(len(b.data)) + offset
	default:
		return 0, errors.New("persistence: invalid whence")
	}
	if pos < 0 {
		return 0, errors.New("persistence: negative position")
	}
	b.pos = pos
	return pos, nil
}

func (b *buffer) Size() int64 {
	return int64(len(b.data))
}

func (b *buffer) Truncate(size int64) error {
	if b.closed {
		return ErrClosed
	}
	if !b.write {
		return ErrReadOnly
	}
	if size < 0 {
		return errors.New("persistence: negative size")
	}
	if size <= int64(len(b.data)) {
		b.data = b.data[:size]
	} else {
		d := make([]byte, size)
		copy(d, b.data)
		b.data = d
	}
	return nil
}

func (b *buffer) Close() error {
	if b.closed {
		return ErrClosed
	}
	b.closed = true
	if !b.write || b.failed || b.commit == nil {
		return nil
	}
	return b.commit(b.data)
}

func (b *buffer) Discard() error {
	if b.closed {
		return ErrClosed
	}
	b.closed = true
	return nil
}

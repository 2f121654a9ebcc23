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

package test

import (
	"fmt"
	"strings"
	"sync"
)

// RingWriter is an implementation of the io.Writer interface that keeps only
// the most recent bytes written to it. It is safe to write to from more than
// one goroutine.
type RingWriter struct {
	crit    sync.Mutex
	buffer  []byte
	size    int
	cursor  int
	wrapped bool
}

// NewRingWriter is the preferred method of initialisation for the RingWriter
// type.
func NewRingWriter(size int) (*RingWriter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid size for RingWriter (%d)", size)
	}
	return &RingWriter{
		size:   size,
		buffer: make([]byte, size),
	}, nil
}

func (r *RingWriter) String() string {
	r.crit.Lock()
	defer r.crit.Unlock()

	var s strings.Builder
	if r.wrapped {
		s.Write(r.buffer[r.cursor:])
	}
	s.Write(r.buffer[:r.cursor])
	return s.String()
}

// Reset empties the buffer.
func (r *RingWriter) Reset() {
	r.crit.Lock()
	defer r.crit.Unlock()
	r.cursor = 0
	r.wrapped = false
}

// Write implements the io.Writer interface.
func (r *RingWriter) Write(p []byte) (n int, err error) {
	r.crit.Lock()
	defer r.crit.Unlock()

	// only the tail of an oversized write will survive
	q := p
	if len(q) > r.size {
		q = q[len(q)-r.size:]
	}

	l := r.size - r.cursor
	copy(r.buffer[r.cursor:], q)
	if len(q) >= l {
		r.wrapped = true
		copy(r.buffer, q[l:])
	}
	r.cursor = (r.cursor + len(q)) % r.size

	return len(p), nil
}

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

// Package easyterm is a wrapper for "github.com/pkg/term/termios". It puts an
// interactive terminal into cbreak mode so that single key presses can be
// read without waiting for the return key, and restores the original mode
// afterwards.
package easyterm

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// IsTerminal returns true if the file is connected to a terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// Terminal is an input/output pair of which the input is a terminal.
type Terminal struct {
	input  *os.File
	output *os.File

	canAttr    unix.Termios
	cbreakAttr unix.Termios

	crit   sync.Mutex
	cbreak bool
}

// NewTerminal is the preferred method of initialisation for the Terminal
// type. The input file must be a terminal.
func NewTerminal(input *os.File, output *os.File) (*Terminal, error) {
	if input == nil || output == nil {
		return nil, fmt.Errorf("easyterm: terminal requires an input and an output file")
	}
	if !IsTerminal(input) {
		return nil, fmt.Errorf("easyterm: input is not a terminal")
	}

	pt := &Terminal{
		input:  input,
		output: output,
	}

	if err := termios.Tcgetattr(pt.input.Fd(), &pt.canAttr); err != nil {
		return nil, fmt.Errorf("easyterm: %w", err)
	}
	pt.cbreakAttr = pt.canAttr
	termios.Cfmakecbreak(&pt.cbreakAttr)

	return pt, nil
}

// CBreakMode puts the terminal into cbreak mode.
func (pt *Terminal) CBreakMode() error {
	pt.crit.Lock()
	defer pt.crit.Unlock()
	if err := termios.Tcsetattr(pt.input.Fd(), termios.TCIFLUSH, &pt.cbreakAttr); err != nil {
		return fmt.Errorf("easyterm: %w", err)
	}
	pt.cbreak = true
	return nil
}

// CanonicalMode returns the terminal to the mode it was in when NewTerminal()
// was called.
func (pt *Terminal) CanonicalMode() error {
	pt.crit.Lock()
	defer pt.crit.Unlock()
	if !pt.cbreak {
		return nil
	}
	if err := termios.Tcsetattr(pt.input.Fd(), termios.TCIFLUSH, &pt.canAttr); err != nil {
		return fmt.Errorf("easyterm: %w", err)
	}
	pt.cbreak = false
	return nil
}

// Geometry returns the number of columns and rows of the output terminal.
func (pt *Terminal) Geometry() (int, int, error) {
	return term.GetSize(int(pt.output.Fd()))
}

// Print writes the formatted string to the output file. A carriage return is
// added to every new line because the terminal may not be in canonical
// mode.
func (pt *Terminal) Print(format string, args ...any) {
	s := fmt.Sprintf(format, args...)
	b := make([]byte, 0, len(s)+8)
	for i := range len(s) {
		if s[i] == '\n' {
			b = append(b, '\r')
		}
		b = append(b, s[i])
	}
	_, _ = pt.output.Write(b)
}

// Keys returns a channel on which every key read from the terminal is sent.
// The channel is closed when the input reaches the end or on error. Keys
// read after the context is cancelled are discarded.
//
// The goroutine reading the terminal blocks until the next key is pressed
// even if the context has been cancelled.
func (pt *Terminal) Keys(ctx context.Context) <-chan rune {
	ch := make(chan rune)
	go func() {
		defer close(ch)
		r := bufio.NewReader(pt.input)
		for {
			k, _, err := r.ReadRune()
			if err != nil {
				return
			}
			select {
			case ch <- k:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

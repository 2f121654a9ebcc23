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

package modalflag

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"
)

const pathSeparator = "/"

// ParseResult is returned by Parse().
type ParseResult int

// List of valid ParseResult values.
const (
	// parsing succeeded. if sub-modes were added then Mode() returns the
	// selected sub-mode
	ParseContinue ParseResult = iota

	// help was requested and has been written to the Output writer
	ParseHelp

	// the arguments could not be parsed. the error is returned alongside
	// this value
	ParseError
)

// Modes parses a command line one mode at a time. The zero value is ready to
// use once NewArgs() has been called.
type Modes struct {
	// destination for help messages. nil discards help
	Output io.Writer

	flags    *flag.FlagSet
	args     []string
	idx      int
	subModes []string
	help     string

	// every mode selected since NewArgs()
	path []string
}

func (md *Modes) String() string {
	return md.Path()
}

// NewArgs resets the parser with a new list of arguments and starts a new
// mode.
func (md *Modes) NewArgs(args []string) {
	md.args = args
	md.idx = 0
	md.path = md.path[:0]
	md.NewMode()
}

// NewMode clears the flags and sub-modes ready for the next call to Parse().
// Arguments consumed by earlier calls to Parse() are not seen again.
func (md *Modes) NewMode() {
	md.flags = flag.NewFlagSet("", flag.ContinueOnError)
	md.subModes = md.subModes[:0]
	md.help = ""
}

// AddSubModes adds to the list of sub-modes for the next call to Parse().
// The first sub-mode ever added is the default.
func (md *Modes) AddSubModes(subModes ...string) {
	for _, m := range subModes {
		md.subModes = append(md.subModes, strings.ToUpper(m))
	}
}

// AdditionalHelp sets text to be shown after the flag summary when help is
// requested.
func (md *Modes) AdditionalHelp(help string) {
	md.help = help
}

// Mode returns the most recently selected mode. Empty if no mode has been
// selected.
func (md *Modes) Mode() string {
	if len(md.path) == 0 {
		return ""
	}
	return md.path[len(md.path)-1]
}

// Path returns every mode selected so far.
func (md *Modes) Path() string {
	return strings.Join(md.path, pathSeparator)
}

// Parse the arguments that have not yet been consumed by a previous Parse().
func (md *Modes) Parse() (ParseResult, error) {
	usage := &strings.Builder{}
	md.flags.SetOutput(usage)

	err := md.flags.Parse(md.args[md.idx:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			md.writeHelp()
			return ParseHelp, nil
		}
		return ParseError, fmt.Errorf("%s: %w", md.describe(), err)
	}

	md.idx = len(md.args) - md.flags.NArg()

	if len(md.subModes) == 0 {
		return ParseContinue, nil
	}

	// flags for this mode have been consumed. the next argument may name a
	// sub-mode

	mode := md.subModes[0]
	if arg := strings.ToUpper(md.flags.Arg(0)); arg != "" {
		for _, m := range md.subModes {
			if m == arg {
				mode = m
				md.idx++
				break
			}
		}
	}
	md.path = append(md.path, mode)

	return ParseContinue, nil
}

func (md *Modes) describe() string {
	if len(md.path) == 0 {
		return "arguments"
	}
	return fmt.Sprintf("%s mode", md.Path())
}

func (md *Modes) writeHelp() {
	if md.Output == nil {
		return
	}

	var hasFlags bool
	md.flags.VisitAll(func(_ *flag.Flag) { hasFlags = true })

	if !hasFlags && len(md.subModes) == 0 && md.help == "" {
		if len(md.path) > 0 {
			fmt.Fprintf(md.Output, "No help available for %s mode\n", md.Path())
		} else {
			fmt.Fprintln(md.Output, "No help available")
		}
		return
	}

	if len(md.path) > 0 {
		fmt.Fprintf(md.Output, "Usage for %s mode:\n", md.Path())
	} else {
		fmt.Fprintln(md.Output, "Usage:")
	}

	if hasFlags {
		md.flags.SetOutput(md.Output)
		md.flags.PrintDefaults()
	}

	if len(md.subModes) > 0 {
		fmt.Fprintf(md.Output, "  available sub-modes: %s\n", strings.Join(md.subModes, ", "))
		fmt.Fprintf(md.Output, "    default: %s\n", md.subModes[0])
	}

	if md.help != "" {
		fmt.Fprintf(md.Output, "\n%s\n", md.help)
	}
}

// RemainingArgs returns the arguments that are not flags and were not
// consumed as a sub-mode.
func (md *Modes) RemainingArgs() []string {
	return md.args[md.idx:]
}

// GetArg returns the numbered remaining argument. Empty if there is no such
// argument.
func (md *Modes) GetArg(i int) string {
	args := md.RemainingArgs()
	if i < 0 || i >= len(args) {
		return ""
	}
	return args[i]
}

// AddBool flag for the next call to Parse().
func (md *Modes) AddBool(name string, value bool, usage string) *bool {
	return md.flags.Bool(name, value, usage)
}

// AddDuration flag for the next call to Parse().
func (md *Modes) AddDuration(name string, value time.Duration, usage string) *time.Duration {
	return md.flags.Duration(name, value, usage)
}

// AddFloat64 flag for the next call to Parse().
func (md *Modes) AddFloat64(name string, value float64, usage string) *float64 {
	return md.flags.Float64(name, value, usage)
}

// AddInt flag for the next call to Parse().
func (md *Modes) AddInt(name string, value int, usage string) *int {
	return md.flags.Int(name, value, usage)
}

// AddString flag for the next call to Parse().
func (md *Modes) AddString(name string, value string, usage string) *string {
	return md.flags.String(name, value, usage)
}

// Visit calls fn with the name of every flag that was set on the command
// line, in lexicographical order.
func (md *Modes) Visit(fn func(name string)) {
	md.flags.Visit(func(f *flag.Flag) {
		fn(f.Name)
	})
}

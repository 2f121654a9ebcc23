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

package modalflag_test

import (
	"strings"
	"testing"

	"github.com/jetsetilly/emucore/modalflag"
	"github.com/jetsetilly/emucore/test"
)

func TestNoModesNoFlags(t *testing.T) {
	md := modalflag.Modes{}
	md.NewArgs([]string{})

	r, err := md.Parse()
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, r, modalflag.ParseContinue)
	test.ExpectEquality(t, md.Mode(), "")
	test.ExpectEquality(t, md.Path(), "")
	test.ExpectEquality(t, len(md.RemainingArgs()), 0)
}

func TestFlagsAndArgs(t *testing.T) {
	md := modalflag.Modes{}
	md.NewArgs([]string{"-frames", "20", "-mute", "game.rom", "extra"})
	frames := md.AddInt("frames", 0, "")
	mute := md.AddBool("mute", false, "")

	r, err := md.Parse()
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, r, modalflag.ParseContinue)
	test.ExpectEquality(t, *frames, 20)
	test.ExpectSuccess(t, *mute)
	test.ExpectEquality(t, md.GetArg(0), "game.rom")
	test.ExpectEquality(t, md.GetArg(1), "extra")
	test.ExpectEquality(t, md.GetArg(2), "")

	var set []string
	md.Visit(func(name string) { set = append(set, name) })
	test.ExpectEquality(t, strings.Join(set, ","), "frames,mute")
}

func TestSubModes(t *testing.T) {
	md := modalflag.Modes{}
	md.NewArgs([]string{"-log", "check", "-frames", "5", "game.rom"})
	log := md.AddBool("log", false, "")
	md.AddSubModes("run", "check")

	r, err := md.Parse()
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, r, modalflag.ParseContinue)
	test.ExpectSuccess(t, *log)
	test.ExpectEquality(t, md.Mode(), "CHECK")

	md.NewMode()
	frames := md.AddInt("frames", 0, "")
	r, err = md.Parse()
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, r, modalflag.ParseContinue)
	test.ExpectEquality(t, *frames, 5)
	test.ExpectEquality(t, md.GetArg(0), "game.rom")
	test.ExpectEquality(t, md.Path(), "CHECK")
}

func TestDefaultSubMode(t *testing.T) {
	md := modalflag.Modes{}
	md.NewArgs([]string{"game.rom"})
	md.AddSubModes("RUN", "CHECK")

	_, err := md.Parse()
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, md.Mode(), "RUN")
	test.ExpectEquality(t, md.GetArg(0), "game.rom")
}

func TestHelp(t *testing.T) {
	out := &strings.Builder{}
	md := modalflag.Modes{Output: out}
	md.NewArgs([]string{"-help"})
	md.AddInt("frames", 0, "number of frames")
	md.AddSubModes("RUN", "CHECK")
	md.AdditionalHelp("extra help")

	r, err := md.Parse()
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, r, modalflag.ParseHelp)
	test.ExpectSuccess(t, strings.Contains(out.String(), "number of frames"))
	test.ExpectSuccess(t, strings.Contains(out.String(), "available sub-modes: RUN, CHECK"))
	test.ExpectSuccess(t, strings.Contains(out.String(), "extra help"))

	out.Reset()
	md.NewArgs([]string{"-h"})
	r, _ = md.Parse()
	test.ExpectEquality(t, r, modalflag.ParseHelp)
	test.ExpectEquality(t, out.String(), "No help available\n")
}

func TestBadFlag(t *testing.T) {
	md := modalflag.Modes{}
	md.NewArgs([]string{"-nosuchflag"})
	r, err := md.Parse()
	test.ExpectFailure(t, err)
	test.ExpectEquality(t, r, modalflag.ParseError)
}

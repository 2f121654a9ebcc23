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

package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jetsetilly/emucore/test"
)

func TestVersionMode(t *testing.T) {
	out := &strings.Builder{}
	test.ExpectEquality(t, launch(context.Background(), []string{"version"}, out), exitOK)
	test.ExpectSuccess(t, strings.HasPrefix(out.String(), "Emucore "))
}

func TestParseErrors(t *testing.T) {
	out := &strings.Builder{}
	test.ExpectEquality(t, launch(context.Background(), []string{"-nosuchflag"}, out), exitParseError)

	out.Reset()
	test.ExpectEquality(t, launch(context.Background(), []string{"-help"}, out), exitOK)
	test.ExpectSuccess(t, strings.Contains(out.String(), "RUN, CHECK, VERSION"))

	out.Reset()
	test.ExpectEquality(t, launch(context.Background(), []string{"check", "-frames", "0"}, out), exitModeError)
}

func TestCheckMode(t *testing.T) {
	dir := t.TempDir()
	shot := filepath.Join(dir, "final.png")
	dot := filepath.Join(dir, "engine.dot")

	out := &strings.Builder{}
	exit := launch(context.Background(), []string{
		"check",
		"-prefsfile", filepath.Join(dir, "preferences.toml"),
		"-prefs", "rewindEnable::true",
		"-width", "32", "-height", "16",
		"-frames", "30",
		"-dir", filepath.Join(dir, "states"),
		"-screenshot", shot,
		"-memviz", dot,
	}, out)

	test.ExpectEquality(t, exit, exitOK, out.String())
	test.ExpectSuccess(t, strings.Contains(out.String(), "check passed"))

	_, err := os.Stat(shot)
	test.ExpectSuccess(t, err)
	_, err = os.Stat(dot)
	test.ExpectSuccess(t, err)
	_, err = os.Stat(filepath.Join(dir, "states"))
	test.ExpectSuccess(t, err)
}

func TestCheckModeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := &strings.Builder{}
	exit := launch(ctx, []string{
		"check",
		"-prefsfile", filepath.Join(t.TempDir(), "preferences.toml"),
		"-width", "16", "-height", "8",
	}, out)
	test.ExpectEquality(t, exit, exitModeError)
}

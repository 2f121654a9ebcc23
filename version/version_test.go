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

package version

import (
	"runtime/debug"
	"testing"

	"github.com/jetsetilly/emucore/test"
)

func TestNoBuildInfo(t *testing.T) {
	parse(nil, false)
	v, r, release := Version()
	test.ExpectEquality(t, v, "local")
	test.ExpectEquality(t, r, "no revision information")
	test.ExpectFailure(t, release)
	test.ExpectEquality(t, Revision(), "0")
}

func TestVCS(t *testing.T) {
	info := &debug.BuildInfo{
		Settings: []debug.BuildSetting{
			{Key: "vcs", Value: "git"},
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.modified", Value: "true"},
		},
	}
	parse(info, true)
	v, r, _ := Version()
	test.ExpectEquality(t, v, "unreleased")
	test.ExpectEquality(t, r, "0123456789abcdef+dirty")
	test.ExpectEquality(t, Revision(), "01234567")
}

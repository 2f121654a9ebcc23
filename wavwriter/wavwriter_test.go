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

package wavwriter_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
	"github.com/jetsetilly/emucore/curated"
	"github.com/jetsetilly/emucore/engine"
	"github.com/jetsetilly/emucore/test"
	"github.com/jetsetilly/emucore/wavwriter"
)

// compile time check that WavWriter can be attached to an engine
var _ engine.AVStream = (*wavwriter.WavWriter)(nil)

func TestWrite(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "out.wav")
	aw, err := wavwriter.New(fn)
	test.DemandSuccess(t, err)

	samples := make([]int16, 800)
	for i := range samples {
		samples[i] = int16(i * 40)
	}

	for range 10 {
		test.ExpectSuccess(t, aw.PostAudio(samples, 48000, 2))
		test.ExpectSuccess(t, aw.PostVideoFrame(nil, 16, 8))
	}
	test.ExpectEquality(t, aw.Samples(), 8000)

	// a change of format is an error
	err = aw.PostAudio(samples, 44100, 2)
	test.ExpectSuccess(t, curated.Is(err, wavwriter.FormatChange))

	test.DemandSuccess(t, aw.Close())
	test.ExpectSuccess(t, aw.Close())

	f, err := os.Open(fn)
	test.DemandSuccess(t, err)
	defer f.Close()

	dec := wav.NewDecoder(f)
	test.DemandSuccess(t, dec.IsValidFile())
	test.ExpectEquality(t, dec.SampleRate, uint32(48000))
	test.ExpectEquality(t, dec.NumChans, uint16(2))
	test.ExpectEquality(t, dec.BitDepth, uint16(16))

	buf, err := dec.FullPCMBuffer()
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, len(buf.Data), 8000)
	test.ExpectEquality(t, buf.Data[1], 40)
	test.ExpectEquality(t, buf.Data[799], 799*40)
}

func TestNoAudio(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "out.wav")
	aw, err := wavwriter.New(fn)
	test.DemandSuccess(t, err)
	test.ExpectSuccess(t, aw.Close())

	_, err = os.Stat(fn)
	test.ExpectFailure(t, err)

	_, err = wavwriter.New("")
	test.ExpectFailure(t, err)
}

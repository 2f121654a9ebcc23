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

package checkpoint_test

import (
	"bytes"
	"testing"

	"github.com/jetsetilly/emucore/checkpoint"
	"github.com/jetsetilly/emucore/curated"
	"github.com/jetsetilly/emucore/engine"
	"github.com/jetsetilly/emucore/engine/synthetic"
	"github.com/jetsetilly/emucore/framebuffer"
	"github.com/jetsetilly/emucore/notifications"
	"github.com/jetsetilly/emucore/persistence"
	"github.com/jetsetilly/emucore/test"
)

type fixture struct {
	eng    *synthetic.Engine
	store  *persistence.Memory
	frames *framebuffer.Manager
	rec    *notifications.Recorder
	cp     *checkpoint.Checkpointer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		eng:    synthetic.NewEngineWithSize(16, 8),
		store:  persistence.NewMemory(),
		frames: framebuffer.NewManager(16, 8),
		rec:    &notifications.Recorder{},
	}
	test.DemandSuccess(t, f.eng.Init())
	active, stride := f.frames.Active()
	f.eng.SetVideoBuffer(active, stride)

	var err error
	f.cp, err = checkpoint.NewCheckpointer(checkpoint.Config{
		Engine: f.eng,
		Store:  f.store,
		Frames: f.frames,
		Notify: f.rec,
	})
	test.DemandSuccess(t, err)

	return f
}

func (f *fixture) run(t *testing.T, frames int) {
	t.Helper()
	for frames > 0 {
		done, err := f.eng.Step()
		test.DemandSuccess(t, err)
		if done {
			f.frames.Swap()
			f.cp.TickRewind()
			frames--
		}
	}
}

func (f *fixture) lastStatus() string {
	ev, _ := f.rec.Last(notifications.NotifyStatusPosted)
	return ev.Text
}

func TestConfig(t *testing.T) {
	_, err := checkpoint.NewCheckpointer(checkpoint.Config{})
	test.ExpectFailure(t, err)
	_, err = checkpoint.NewCheckpointer(checkpoint.Config{Engine: synthetic.NewEngine()})
	test.ExpectFailure(t, err)
}

func TestSaveLoad(t *testing.T) {
	flags := []engine.StateFlags{
		engine.StateSaveData,
		engine.StateSaveData | engine.StateRTC,
		engine.StateSaveData | engine.StateScreenshot,
		engine.AllStateFlags,
	}

	for _, fl := range flags {
		f := newFixture(t)
		f.run(t, 65)

		want := f.eng.Checksum()
		test.DemandSuccess(t, f.cp.Save(1, fl), fl)
		test.ExpectEquality(t, f.lastStatus(), "State 1 saved", fl)

		f.run(t, 70)
		test.ExpectInequality(t, f.eng.Checksum(), want, fl)

		test.DemandSuccess(t, f.cp.Load(1, fl), fl)
		test.ExpectEquality(t, f.eng.Checksum(), want, fl)
		test.ExpectEquality(t, f.lastStatus(), "State 1 loaded", fl)
		test.ExpectEquality(t, f.rec.Count(notifications.NotifyStateLoaded), 1, fl)
		test.ExpectEquality(t, f.rec.Count(notifications.NotifyFrameAvailable), 1, fl)
	}
}

func TestSuspendSlotMessages(t *testing.T) {
	f := newFixture(t)
	f.run(t, 1)

	test.DemandSuccess(t, f.cp.Save(checkpoint.SuspendSlot, engine.AllStateFlags))
	test.ExpectEquality(t, f.rec.Count(notifications.NotifyStatusPosted), 0)

	test.DemandSuccess(t, f.cp.Load(checkpoint.SuspendSlot, engine.AllStateFlags))
	test.ExpectEquality(t, f.lastStatus(), "Loaded suspend state")

	// suspend slot is never a user slot
	test.DemandSuccess(t, f.cp.Save(3, 0))
	slots, err := f.cp.Slots()
	test.DemandSuccess(t, err)
	test.DemandEquality(t, len(slots), 1)
	test.ExpectEquality(t, slots[0], 3)
}

func TestUndoLoad(t *testing.T) {
	f := newFixture(t)
	f.run(t, 10)
	test.DemandSuccess(t, f.cp.Save(1, engine.AllStateFlags))

	f.run(t, 10)
	before := f.eng.Checksum()

	test.DemandSuccess(t, f.cp.Load(1, engine.AllStateFlags))
	test.ExpectInequality(t, f.eng.Checksum(), before)
	test.ExpectSuccess(t, f.cp.CanUndoLoad())

	test.DemandSuccess(t, f.cp.UndoLoad())
	test.ExpectEquality(t, f.eng.Checksum(), before)
	test.ExpectEquality(t, f.lastStatus(), "Undid state load")
	test.ExpectFailure(t, f.cp.CanUndoLoad())

	// second undo does nothing
	f.run(t, 1)
	after := f.eng.Checksum()
	statuses := f.rec.Count(notifications.NotifyStatusPosted)
	test.DemandSuccess(t, f.cp.UndoLoad())
	test.ExpectEquality(t, f.eng.Checksum(), after)
	test.ExpectEquality(t, f.rec.Count(notifications.NotifyStatusPosted), statuses)
}

func TestUndoSave(t *testing.T) {
	f := newFixture(t)
	f.run(t, 10)
	test.DemandSuccess(t, f.cp.Save(1, engine.AllStateFlags))
	original, err := persistence.ReadAll(f.store, 1)
	test.DemandSuccess(t, err)

	f.run(t, 10)
	test.DemandSuccess(t, f.cp.Save(1, engine.AllStateFlags))
	replaced, err := persistence.ReadAll(f.store, 1)
	test.DemandSuccess(t, err)
	test.ExpectFailure(t, bytes.Equal(original, replaced))

	test.DemandSuccess(t, f.cp.UndoSave())
	restored, err := persistence.ReadAll(f.store, 1)
	test.DemandSuccess(t, err)
	test.ExpectSuccess(t, bytes.Equal(original, restored))
	test.ExpectEquality(t, f.lastStatus(), "Undid state save")

	// undo buffer is now empty
	test.ExpectFailure(t, f.cp.CanUndoSave())
	test.DemandSuccess(t, f.cp.UndoSave())

	// undoing a save to a new slot removes the slot
	test.DemandSuccess(t, f.cp.Save(5, 0))
	test.DemandSuccess(t, f.cp.UndoSave())
	slots, err := f.cp.Slots()
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, len(slots), 1)
}

func TestLoadOtherSlotClearsSaveUndo(t *testing.T) {
	f := newFixture(t)
	test.DemandSuccess(t, f.cp.Save(1, 0))
	test.DemandSuccess(t, f.cp.Save(2, 0))
	test.DemandSuccess(t, f.cp.Load(2, 0))
	test.ExpectFailure(t, f.cp.CanUndoSave())

	// loading the same slot again does not clear it
	test.DemandSuccess(t, f.cp.Save(2, 0))
	test.DemandSuccess(t, f.cp.Load(2, 0))
	test.ExpectSuccess(t, f.cp.CanUndoSave())
}

func TestSaveIOFailure(t *testing.T) {
	f := newFixture(t)
	f.run(t, 10)
	test.DemandSuccess(t, f.cp.Save(1, engine.AllStateFlags))
	original, err := persistence.ReadAll(f.store, 1)
	test.DemandSuccess(t, err)

	f.run(t, 10)
	f.store.FailWrites(true)
	err = f.cp.Save(1, engine.AllStateFlags)
	test.ExpectSuccess(t, curated.Is(err, checkpoint.CheckpointIOFailure))
	test.ExpectEquality(t, f.lastStatus(), "State 1 failed to save")
	f.store.FailWrites(false)

	// slot is unchanged and the undo buffer is still valid
	current, err := persistence.ReadAll(f.store, 1)
	test.DemandSuccess(t, err)
	test.ExpectSuccess(t, bytes.Equal(original, current))
	test.ExpectSuccess(t, f.cp.CanUndoSave())

	// failing to read the slot before saving
	f.store.FailOpens(true)
	err = f.cp.Save(1, engine.AllStateFlags)
	test.ExpectSuccess(t, curated.Is(err, checkpoint.CheckpointIOFailure))
	f.store.FailOpens(false)
}

func TestLoadFailures(t *testing.T) {
	f := newFixture(t)
	f.run(t, 10)
	test.DemandSuccess(t, f.cp.Save(1, engine.AllStateFlags))
	f.run(t, 10)
	want := f.eng.Checksum()

	// missing slot
	err := f.cp.Load(7, engine.AllStateFlags)
	test.ExpectSuccess(t, curated.Is(err, checkpoint.CheckpointIOFailure))
	test.ExpectEquality(t, f.lastStatus(), "State 7 failed to load")
	test.ExpectEquality(t, f.eng.Checksum(), want)

	corruptions := []func([]byte) []byte{
		// bad magic
		func(d []byte) []byte { d[0] = 'X'; return d },
		// flipped bit in the payload
		func(d []byte) []byte { d[len(d)/2] ^= 0x01; return d },
		// truncated
		func(d []byte) []byte { return d[:len(d)-3] },
		// too short for a header
		func(d []byte) []byte { return d[:5] },
	}

	for i, c := range corruptions {
		test.DemandSuccess(t, f.cp.Save(2, engine.AllStateFlags), i)
		f.run(t, 3)
		want := f.eng.Checksum()
		undo := f.cp.CanUndoLoad()

		f.store.Corrupt(2, c)
		err := f.cp.Load(2, engine.AllStateFlags)
		test.ExpectSuccess(t, curated.Is(err, checkpoint.CheckpointFormatFailure), i)
		test.ExpectEquality(t, f.eng.Checksum(), want, i)
		test.ExpectEquality(t, f.cp.CanUndoLoad(), undo, i)
	}

	test.ExpectEquality(t, f.rec.Count(notifications.NotifyStateLoaded), 0)
}

func TestEngineRejectsState(t *testing.T) {
	f := newFixture(t)
	f.run(t, 5)

	// a state from an engine with a different video size passes the
	// container checks but is rejected by the engine
	other := newFixture(t)
	other.eng = synthetic.NewEngineWithSize(8, 8)
	test.DemandSuccess(t, other.eng.Init())
	var err error
	other.cp, err = checkpoint.NewCheckpointer(checkpoint.Config{Engine: other.eng, Store: f.store})
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, other.cp.Save(4, 0))

	want := f.eng.Checksum()
	err = f.cp.Load(4, 0)
	test.ExpectSuccess(t, curated.Is(err, checkpoint.CheckpointFormatFailure))
	test.ExpectEquality(t, f.eng.Checksum(), want)
}

func TestNamed(t *testing.T) {
	f := newFixture(t)
	f.run(t, 5)
	want := f.eng.Checksum()

	test.DemandSuccess(t, f.cp.SaveNamed("quick.state", engine.AllStateFlags))
	f.run(t, 5)
	test.DemandSuccess(t, f.cp.LoadNamed("quick.state", engine.AllStateFlags))
	test.ExpectEquality(t, f.eng.Checksum(), want)

	err := f.cp.LoadNamed("missing.state", engine.AllStateFlags)
	test.ExpectSuccess(t, curated.Is(err, checkpoint.CheckpointIOFailure))

	// undo of a named save
	test.DemandSuccess(t, f.cp.SaveNamed("fresh.state", 0))
	test.DemandSuccess(t, f.cp.UndoSave())
	_, err = persistence.ReadAllNamed(f.store, "fresh.state")
	test.ExpectFailure(t, err)
}

func TestAutosave(t *testing.T) {
	f := newFixture(t)
	test.DemandSuccess(t, f.cp.Save(1, 0))
	f.run(t, 5)

	test.DemandSuccess(t, f.cp.Autosave(engine.AllStateFlags))
	test.ExpectEquality(t, f.rec.Count(notifications.NotifyStatusPosted), 1)

	// autosave did not replace the save undo buffer. undoing affects slot 1
	// and not the suspend slot
	suspend, err := persistence.ReadAll(f.store, checkpoint.SuspendSlot)
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, f.cp.UndoSave())
	after, err := persistence.ReadAll(f.store, checkpoint.SuspendSlot)
	test.DemandSuccess(t, err)
	test.ExpectSuccess(t, bytes.Equal(suspend, after))
}

func TestScreenshot(t *testing.T) {
	f := newFixture(t)
	f.run(t, 3)
	frame, err := f.frames.Read()
	test.DemandSuccess(t, err)

	test.DemandSuccess(t, f.cp.Save(1, engine.StateScreenshot))
	img, err := f.cp.Screenshot(1)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, img.Bounds().Dx(), 16)
	test.ExpectEquality(t, img.Bounds().Dy(), 8)

	// loading restores the screenshot to the frame buffer
	f.run(t, 3)
	test.DemandSuccess(t, f.cp.Load(1, engine.StateScreenshot))
	restored, err := f.frames.Read()
	test.DemandSuccess(t, err)
	test.ExpectSuccess(t, bytes.Equal(frame, restored))

	// no screenshot in the slot
	test.DemandSuccess(t, f.cp.Save(2, 0))
	_, err = f.cp.Screenshot(2)
	test.ExpectSuccess(t, curated.Is(err, checkpoint.CheckpointFormatFailure))

	// screenshot is dropped in bypass mode
	f.frames.SetBypass(true)
	test.DemandSuccess(t, f.cp.Save(3, engine.StateScreenshot))
	_, err = f.cp.Screenshot(3)
	test.ExpectFailure(t, err)
}

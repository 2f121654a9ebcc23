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
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io/fs"

	"github.com/jetsetilly/emucore/curated"
	"github.com/jetsetilly/emucore/engine"
	"github.com/jetsetilly/emucore/framebuffer"
	"github.com/jetsetilly/emucore/logger"
	"github.com/jetsetilly/emucore/notifications"
	"github.com/jetsetilly/emucore/persistence"
	"github.com/jetsetilly/emucore/rewind"
)

// Sentinal error patterns.
const (
	CheckpointIOFailure     = "checkpoint i/o: %v"
	CheckpointFormatFailure = "checkpoint format: %v"
)

// SuspendSlot is the slot reserved for autosave.
const SuspendSlot = 0

// Config for a new Checkpointer.
type Config struct {
	Engine engine.Engine
	Store  persistence.Store

	// used for screenshots. can be nil
	Frames *framebuffer.Manager

	// can be nil
	Notify notifications.Notify

	// logging tag. defaults to "checkpoint"
	Tag string
}

// target is a slot or a named checkpoint.
type target struct {
	slot  int
	name  string
	named bool
}

func (t target) String() string {
	if t.named {
		return t.name
	}
	return fmt.Sprintf("slot %d", t.slot)
}

func (t target) read(s persistence.Store) ([]byte, error) {
	if t.named {
		return persistence.ReadAllNamed(s, t.name)
	}
	return persistence.ReadAll(s, t.slot)
}

func (t target) write(s persistence.Store, data []byte) error {
	if t.named {
		return persistence.WriteAllNamed(s, t.name, data)
	}
	return persistence.WriteAll(s, t.slot, data)
}

func (t target) remove(s persistence.Store) error {
	if t.named {
		return s.Remove(t.name)
	}
	return s.RemoveSlot(t.slot)
}

// bytes displaced by the most recent save.
type saveUndo struct {
	valid   bool
	target  target
	existed bool
	data    []byte
}

// Checkpointer saves, loads and rewinds engine state.
type Checkpointer struct {
	eng    engine.Engine
	store  persistence.Store
	frames *framebuffer.Manager
	notify notifications.Notify
	tag    string

	saveUndo saveUndo

	// live engine state replaced by the most recent load. nil if there is
	// nothing to undo
	loadUndo []byte

	// the most recently loaded user slot
	stateSlot int

	ring           *rewind.Ring
	rewindEnabled  bool
	rewindInterval int
	rewindCounter  int
	rewindTicks    int
}

// NewCheckpointer is the preferred method of initialisation for the
// Checkpointer type. The rewind ring is disabled until SetRewind() is called.
func NewCheckpointer(cfg Config) (*Checkpointer, error) {
	if cfg.Engine == nil {
		return nil, errors.New("checkpoint: engine is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("checkpoint: store is required")
	}

	cp := &Checkpointer{
		eng:            cfg.Engine,
		store:          cfg.Store,
		frames:         cfg.Frames,
		notify:         cfg.Notify,
		tag:            cfg.Tag,
		ring:           rewind.NewRing(1),
		rewindInterval: 1,
	}
	if cp.notify == nil {
		cp.notify = notifications.Null{}
	}
	if cp.tag == "" {
		cp.tag = "checkpoint"
	}

	return cp, nil
}

// serialise the engine state and wrap it in a container.
func (cp *Checkpointer) encode(flags engine.StateFlags) ([]byte, error) {
	c := container{flags: flags}

	state := &bytes.Buffer{}
	if err := cp.eng.Serialize(state, flags); err != nil {
		return nil, curated.Errorf(CheckpointFormatFailure, err)
	}
	c.state = state.Bytes()

	if flags.Has(engine.StateScreenshot) {
		shot, err := cp.screenshot()
		if err != nil {
			logger.Logf(logger.Allow, cp.tag, "screenshot not saved: %v", err)
			c.flags &^= engine.StateScreenshot
		} else {
			c.screenshot = shot
		}
	}

	return c.encode(), nil
}

func (cp *Checkpointer) screenshot() ([]byte, error) {
	if cp.frames == nil {
		return nil, errors.New("no frame buffer")
	}
	img, err := cp.frames.Image()
	if err != nil {
		return nil, err
	}
	b := &bytes.Buffer{}
	if err := png.Encode(b, img); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// copy the screenshot to the frame buffers so that the loaded state is
// visible immediately.
func (cp *Checkpointer) restoreScreenshot(shot []byte) {
	if cp.frames == nil || cp.frames.Bypass() {
		return
	}

	img, err := png.Decode(bytes.NewReader(shot))
	if err != nil {
		logger.Logf(logger.Allow, cp.tag, "screenshot not restored: %v", err)
		return
	}

	w, h := cp.frames.Dimensions()
	if img.Bounds().Dx() != w || img.Bounds().Dy() != h {
		return
	}

	active, _ := cp.frames.Active()
	rgba := &image.RGBA{Pix: active, Stride: w * framebuffer.PixelSize, Rect: image.Rect(0, 0, w, h)}
	draw.Draw(rgba, rgba.Rect, img, img.Bounds().Min, draw.Src)
	cp.frames.Swap()
}

func (cp *Checkpointer) save(t target, flags engine.StateFlags) error {
	data, err := cp.encode(flags)
	if err != nil {
		return err
	}

	prev, err := t.read(cp.store)
	existed := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return curated.Errorf(CheckpointIOFailure, err)
	}

	cp.saveUndo = saveUndo{
		valid:   true,
		target:  t,
		existed: existed,
		data:    prev,
	}

	if err := t.write(cp.store, data); err != nil {
		return curated.Errorf(CheckpointIOFailure, err)
	}

	logger.Logf(logger.Allow, cp.tag, "saved %s (%s)", t, flags)

	return nil
}

// Save the engine state to the slot. The bytes previously in the slot can be
// restored with UndoSave().
func (cp *Checkpointer) Save(slot int, flags engine.StateFlags) error {
	err := cp.save(target{slot: slot}, flags)
	if slot != SuspendSlot {
		if err != nil {
			notifications.Status(cp.notify, "State %d failed to save", slot)
		} else {
			notifications.Status(cp.notify, "State %d saved", slot)
		}
	}
	return err
}

// SaveNamed saves the engine state to the named checkpoint.
func (cp *Checkpointer) SaveNamed(name string, flags engine.StateFlags) error {
	return cp.save(target{name: name, named: true}, flags)
}

// Autosave saves the engine state to the suspend slot. Unlike Save() the
// undo buffer is not touched and no status message is posted.
func (cp *Checkpointer) Autosave(flags engine.StateFlags) error {
	data, err := cp.encode(flags)
	if err != nil {
		return err
	}
	if err := persistence.WriteAll(cp.store, SuspendSlot, data); err != nil {
		return curated.Errorf(CheckpointIOFailure, err)
	}
	return nil
}

func (cp *Checkpointer) load(t target, flags engine.StateFlags) error {
	data, err := t.read(cp.store)
	if err != nil {
		return curated.Errorf(CheckpointIOFailure, err)
	}

	c, err := decodeContainer(data)
	if err != nil {
		return curated.Errorf(CheckpointFormatFailure, err)
	}

	backup := &bytes.Buffer{}
	if err := cp.eng.Serialize(backup, engine.AllStateFlags); err != nil {
		return curated.Errorf(CheckpointFormatFailure, err)
	}

	if err := cp.eng.Deserialize(bytes.NewReader(c.state), flags); err != nil {
		// the engine should not have committed anything but make sure the
		// live state is unchanged
		if rerr := cp.eng.Deserialize(bytes.NewReader(backup.Bytes()), engine.AllStateFlags); rerr != nil {
			logger.Logf(logger.Allow, cp.tag, "could not restore state after failed load: %v", rerr)
		}
		return curated.Errorf(CheckpointFormatFailure, err)
	}

	cp.loadUndo = backup.Bytes()

	if c.flags.Has(engine.StateScreenshot) && flags.Has(engine.StateScreenshot) {
		cp.restoreScreenshot(c.screenshot)
	}

	logger.Logf(logger.Allow, cp.tag, "loaded %s (%s)", t, flags)

	notifications.Simple(cp.notify, notifications.NotifyFrameAvailable)
	notifications.Simple(cp.notify, notifications.NotifyStateLoaded)

	return nil
}

// Load the engine state from the slot. The live state that is replaced can
// be restored with UndoLoad(). If the checkpoint can not be read or is not
// valid the live state is unchanged.
//
// Loading a user slot other than the most recently loaded one clears the
// save undo buffer.
func (cp *Checkpointer) Load(slot int, flags engine.StateFlags) error {
	err := cp.load(target{slot: slot}, flags)
	if err != nil {
		notifications.Status(cp.notify, "State %d failed to load", slot)
		return err
	}

	if slot != SuspendSlot && slot != cp.stateSlot {
		cp.stateSlot = slot
		cp.saveUndo = saveUndo{}
	}

	if slot == SuspendSlot {
		notifications.Status(cp.notify, "Loaded suspend state")
	} else {
		notifications.Status(cp.notify, "State %d loaded", slot)
	}

	return nil
}

// LoadNamed loads the engine state from the named checkpoint.
func (cp *Checkpointer) LoadNamed(name string, flags engine.StateFlags) error {
	return cp.load(target{name: name, named: true}, flags)
}

// UndoSave restores the bytes displaced by the most recent save. Does
// nothing if there is nothing to undo.
func (cp *Checkpointer) UndoSave() error {
	if !cp.saveUndo.valid {
		return nil
	}

	u := cp.saveUndo

	var err error
	if u.existed {
		err = u.target.write(cp.store, u.data)
	} else {
		err = u.target.remove(cp.store)
	}
	if err != nil {
		return curated.Errorf(CheckpointIOFailure, err)
	}

	cp.saveUndo = saveUndo{}
	notifications.Status(cp.notify, "Undid state save")

	return nil
}

// UndoLoad restores the live state replaced by the most recent load. Does
// nothing if there is nothing to undo.
func (cp *Checkpointer) UndoLoad() error {
	if cp.loadUndo == nil {
		return nil
	}

	if err := cp.eng.Deserialize(bytes.NewReader(cp.loadUndo), engine.AllStateFlags); err != nil {
		return curated.Errorf(CheckpointFormatFailure, err)
	}

	cp.loadUndo = nil

	notifications.Simple(cp.notify, notifications.NotifyFrameAvailable)
	notifications.Simple(cp.notify, notifications.NotifyStateLoaded)
	notifications.Status(cp.notify, "Undid state load")

	return nil
}

// CanUndoSave returns true if there is a save to undo.
func (cp *Checkpointer) CanUndoSave() bool {
	return cp.saveUndo.valid
}

// CanUndoLoad returns true if there is a load to undo.
func (cp *Checkpointer) CanUndoLoad() bool {
	return cp.loadUndo != nil
}

// Screenshot returns the screenshot stored in the slot.
func (cp *Checkpointer) Screenshot(slot int) (image.Image, error) {
	data, err := persistence.ReadAll(cp.store, slot)
	if err != nil {
		return nil, curated.Errorf(CheckpointIOFailure, err)
	}

	c, err := decodeContainer(data)
	if err != nil {
		return nil, curated.Errorf(CheckpointFormatFailure, err)
	}

	if !c.flags.Has(engine.StateScreenshot) {
		return nil, curated.Errorf(CheckpointFormatFailure, "no screenshot")
	}

	img, err := png.Decode(bytes.NewReader(c.screenshot))
	if err != nil {
		return nil, curated.Errorf(CheckpointFormatFailure, err)
	}

	return img, nil
}

// Slots returns the list of user slots that contain a checkpoint. The
// suspend slot is never included.
func (cp *Checkpointer) Slots() ([]int, error) {
	slots, err := cp.store.Slots()
	if err != nil {
		return nil, curated.Errorf(CheckpointIOFailure, err)
	}

	user := slots[:0]
	for _, s := range slots {
		if s != SuspendSlot {
			user = append(user, s)
		}
	}
	return user, nil
}

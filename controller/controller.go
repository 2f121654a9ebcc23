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

// Package controller is the top level of the execution controller. The
// Controller type owns the emulation worker and every component the worker
// uses. Other packages should only hold a *Controller and use its methods.
//
// Every method is safe to call from any goroutine, including the worker
// goroutine itself (for example, from a frame action). Methods that change
// emulation state interrupt the worker for the duration of the change.
//
// Once the engine has crashed every control method does nothing (returning
// ErrCrashed where there is an error result) until Reset() is called. Stop()
// and AddResetAction() are still accepted.
package controller

import (
	"errors"
	"image"
	"sync"
	"sync/atomic"

	"github.com/jetsetilly/emucore/actions"
	"github.com/jetsetilly/emucore/checkpoint"
	"github.com/jetsetilly/emucore/engine"
	"github.com/jetsetilly/emucore/framebuffer"
	"github.com/jetsetilly/emucore/govern"
	"github.com/jetsetilly/emucore/interrupt"
	"github.com/jetsetilly/emucore/limiter"
	"github.com/jetsetilly/emucore/logger"
	"github.com/jetsetilly/emucore/notifications"
	"github.com/jetsetilly/emucore/persistence"
	"github.com/jetsetilly/emucore/prefs"
	"github.com/jetsetilly/emucore/worker"
)

// ErrCrashed is returned by control methods while the engine is crashed.
var ErrCrashed = errors.New("controller: engine has crashed")

// Poller is a source of input polled once per frame.
type Poller interface {
	Poll() uint32
}

// DefaultEventBuffer is the size of the Notifications() channel.
const DefaultEventBuffer = 256

// Config for a new Controller. Engine and Store are required.
type Config struct {
	Engine engine.Engine
	Store  persistence.Store

	// nil preferences means the default values are used. the preferences
	// returned by Controller.Preferences() can still be changed but they
	// will not be saved
	Preferences *Preferences

	// can be nil
	Notify notifications.Notify
	Poller Poller

	// size of the Notifications() channel. zero means DefaultEventBuffer
	EventBuffer int

	// engine log messages in this category are posted as status messages
	StatusCategory string

	// frames between autosaves. zero means worker.DefaultAutosaveInterval
	AutosaveInterval int
}

// Controller owns the emulation worker and its collaborators.
type Controller struct {
	eng    engine.Engine
	store  persistence.Store
	frames *framebuffer.Manager
	queue  *actions.Queue
	coord  *interrupt.Coordinator
	lmtr   *limiter.Limiter
	cp     *checkpoint.Checkpointer
	wrk    *worker.Worker
	poller Poller

	prefs atomic.Pointer[Preferences]

	events *notifications.Channel
	notify notifications.Notify

	input input

	// serialises state changes made by external goroutines. always acquired
	// after the interrupt
	crit sync.Mutex

	// the following fields are protected by crit
	modes        govern.Mode
	muteOverride bool
}

// NewController is the preferred method of initialisation for the Controller
// type.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Engine == nil {
		return nil, errors.New("controller: engine is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("controller: store is required")
	}

	ctrl := &Controller{
		eng:    cfg.Engine,
		store:  cfg.Store,
		queue:  &actions.Queue{},
		coord:  interrupt.NewCoordinator(),
		lmtr:   limiter.NewLimiter(),
		poller: cfg.Poller,
	}

	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = DefaultEventBuffer
	}
	ctrl.events = notifications.NewChannel(cfg.EventBuffer)
	ctrl.notify = notifications.Multi{cfg.Notify, ctrl.events}

	ctrl.frames = framebuffer.NewManager(ctrl.eng.VideoSize())

	var err error
	ctrl.cp, err = checkpoint.NewCheckpointer(checkpoint.Config{
		Engine: ctrl.eng,
		Store:  ctrl.store,
		Frames: ctrl.frames,
		Notify: ctrl.notify,
	})
	if err != nil {
		return nil, err
	}

	ctrl.wrk, err = worker.NewWorker(worker.Config{
		Engine:           ctrl.eng,
		Frames:           ctrl.frames,
		Actions:          ctrl.queue,
		Coordinator:      ctrl.coord,
		Limiter:          ctrl.lmtr,
		Checkpoints:      ctrl.cp,
		Notify:           ctrl.notify,
		Listener:         &listener{ctrl: ctrl},
		AutosaveInterval: cfg.AutosaveInterval,
		StatusCategory:   cfg.StatusCategory,
	})
	if err != nil {
		return nil, err
	}

	p := cfg.Preferences
	if p == nil {
		p = newPreferences()
	}
	ctrl.prefs.Store(p)
	ctrl.applyPreferences()
	p.setOnChange(ctrl.preferenceChanged)

	return ctrl, nil
}

// interrupted runs the function with the worker interrupted.
func (ctrl *Controller) interrupted(f func()) {
	g := interrupt.NewGuard(ctrl.coord)
	defer g.Resume()
	ctrl.crit.Lock()
	defer ctrl.crit.Unlock()
	f()
}

func (ctrl *Controller) crashed() bool {
	crashed, _ := ctrl.wrk.Crashed()
	return crashed
}

// applyPreferences must be called with the worker interrupted (or before the
// worker has started).
func (ctrl *Controller) applyPreferences() {
	p := ctrl.prefs.Load()
	ctrl.wrk.SetAutosave(p.Autosave.Get().(bool))
	ctrl.wrk.SetSaveFlags(p.saveFlags())
	ctrl.input.setThreshold(p.AutofireThreshold.Get().(int))
	ctrl.cp.SetRewind(p.RewindEnable.Get().(bool),
		p.RewindBufferCapacity.Get().(int),
		p.RewindBufferInterval.Get().(int))
	ctrl.updatePolicy()
}

// updatePolicy must be called with the worker interrupted.
func (ctrl *Controller) updatePolicy() {
	policy := limiter.Compute(ctrl.prefs.Load().syncConfig(), ctrl.modes, ctrl.muteOverride)
	ctrl.lmtr.SetPolicy(policy)
	ctrl.eng.ReloadConfig("volume", policy.Volume)
	ctrl.eng.ReloadConfig("mute", policy.Mute)
}

// preferenceChanged is called whenever a preference value is set.
func (ctrl *Controller) preferenceChanged(key string, value prefs.Value) {
	ctrl.interrupted(func() {
		ctrl.applyPreferences()
		ctrl.eng.ReloadConfig(key, value)
	})
}

// LoadConfig replaces the preferences used by the controller and applies
// every value to the controller and to the engine.
func (ctrl *Controller) LoadConfig(p *Preferences) {
	if p == nil {
		return
	}

	ctrl.prefs.Load().setOnChange(nil)

	ctrl.interrupted(func() {
		ctrl.prefs.Store(p)
		ctrl.applyPreferences()
		for key, value := range p.values() {
			ctrl.eng.ReloadConfig(key, value)
		}
	})

	p.setOnChange(ctrl.preferenceChanged)
}

// Preferences returns the preferences currently used by the controller.
func (ctrl *Controller) Preferences() *Preferences {
	return ctrl.prefs.Load()
}

// Notifications returns a channel of every event produced by the controller.
// Events are dropped if the channel is full.
func (ctrl *Controller) Notifications() <-chan notifications.Event {
	return ctrl.events.C()
}

// Interrupt returns a Guard holding an interrupt of the worker. The caller
// must call Resume() on the guard.
func (ctrl *Controller) Interrupt() *interrupt.Guard {
	return interrupt.NewGuard(ctrl.coord)
}

// Start the worker. If the engine fails to initialise the error is a
// worker.StartupFailure.
func (ctrl *Controller) Start() error {
	if ctrl.crashed() {
		return ErrCrashed
	}
	return ctrl.wrk.Start()
}

// Stop the worker.
func (ctrl *Controller) Stop() {
	ctrl.wrk.Stop()
}

// Wait blocks until the worker has ended.
func (ctrl *Controller) Wait() {
	ctrl.wrk.Wait()
}

// Reset the engine. Reset also clears a crash and restarts the worker.
func (ctrl *Controller) Reset() {
	ctrl.wrk.Reset()
}

// HasStarted returns true if the worker is running.
func (ctrl *Controller) HasStarted() bool {
	return ctrl.wrk.HasStarted()
}

// State returns the state of the worker.
func (ctrl *Controller) State() govern.State {
	return ctrl.wrk.State()
}

// Crashed returns true and the crash message if the engine has crashed.
func (ctrl *Controller) Crashed() (bool, string) {
	return ctrl.wrk.Crashed()
}

// FrameCounter returns the number of frames since the last reset.
func (ctrl *Controller) FrameCounter() int64 {
	return ctrl.wrk.FrameCounter()
}

// Measured returns the measured frame rate.
func (ctrl *Controller) Measured() float32 {
	return ctrl.lmtr.Measured()
}

// SetPaused pauses or unpauses the worker.
func (ctrl *Controller) SetPaused(paused bool) {
	if ctrl.crashed() {
		return
	}
	ctrl.wrk.SetPaused(paused)
}

// IsPaused returns true if the worker has been paused.
func (ctrl *Controller) IsPaused() bool {
	return ctrl.wrk.IsPaused()
}

// FrameAdvance runs a single frame and pauses.
func (ctrl *Controller) FrameAdvance() {
	if ctrl.crashed() {
		return
	}
	ctrl.wrk.FrameAdvance()
}

// ShowResetInfo enables a status message whenever the engine is reset.
func (ctrl *Controller) ShowResetInfo(show bool) {
	ctrl.wrk.ShowResetInfo(show)
}

// AddFrameAction queues a function to run on the worker at the end of the
// current frame.
func (ctrl *Controller) AddFrameAction(a actions.Action) {
	if ctrl.crashed() {
		return
	}
	ctrl.queue.Push(a)
}

// AddResetAction adds a function to run on the worker at the next reset.
func (ctrl *Controller) AddResetAction(a actions.Action) {
	ctrl.wrk.AddResetAction(a)
}

// SaveFlags returns the flags configured for saving state.
func (ctrl *Controller) SaveFlags() engine.StateFlags {
	return ctrl.prefs.Load().saveFlags()
}

// LoadFlags returns the flags configured for loading state.
func (ctrl *Controller) LoadFlags() engine.StateFlags {
	return ctrl.prefs.Load().loadFlags()
}

// SaveState saves the engine state to the slot.
func (ctrl *Controller) SaveState(slot int, flags engine.StateFlags) error {
	if ctrl.crashed() {
		return ErrCrashed
	}
	var err error
	ctrl.interrupted(func() {
		err = ctrl.cp.Save(slot, flags)
	})
	return err
}

// SaveStateNamed saves the engine state to the named checkpoint.
func (ctrl *Controller) SaveStateNamed(name string, flags engine.StateFlags) error {
	if ctrl.crashed() {
		return ErrCrashed
	}
	var err error
	ctrl.interrupted(func() {
		err = ctrl.cp.SaveNamed(name, flags)
	})
	return err
}

// LoadState loads the engine state from the slot.
func (ctrl *Controller) LoadState(slot int, flags engine.StateFlags) error {
	if ctrl.crashed() {
		return ErrCrashed
	}
	var err error
	ctrl.interrupted(func() {
		err = ctrl.cp.Load(slot, flags)
	})
	return err
}

// LoadStateNamed loads the engine state from the named checkpoint.
func (ctrl *Controller) LoadStateNamed(name string, flags engine.StateFlags) error {
	if ctrl.crashed() {
		return ErrCrashed
	}
	var err error
	ctrl.interrupted(func() {
		err = ctrl.cp.LoadNamed(name, flags)
	})
	return err
}

// UndoSaveState restores the slot contents replaced by the most recent save.
func (ctrl *Controller) UndoSaveState() error {
	if ctrl.crashed() {
		return ErrCrashed
	}
	var err error
	ctrl.interrupted(func() {
		err = ctrl.cp.UndoSave()
	})
	return err
}

// UndoLoadState restores the engine state replaced by the most recent load.
func (ctrl *Controller) UndoLoadState() error {
	if ctrl.crashed() {
		return ErrCrashed
	}
	var err error
	ctrl.interrupted(func() {
		err = ctrl.cp.UndoLoad()
	})
	return err
}

// Slots returns the user slots that contain a checkpoint.
func (ctrl *Controller) Slots() ([]int, error) {
	if ctrl.crashed() {
		return nil, ErrCrashed
	}

	var slots []int
	var err error
	ctrl.interrupted(func() {
		slots, err = ctrl.cp.Slots()
	})
	return slots, err
}

// Screenshot returns the screenshot stored in the slot.
func (ctrl *Controller) Screenshot(slot int) (image.Image, error) {
	if ctrl.crashed() {
		return nil, ErrCrashed
	}

	var img image.Image
	var err error
	ctrl.interrupted(func() {
		img, err = ctrl.cp.Screenshot(slot)
	})
	return img, err
}

// Rewind restores the engine state to n rewind snapshots ago. A value of zero
// or less rewinds as far as possible. Returns the number of snapshots
// popped.
func (ctrl *Controller) Rewind(n int) int {
	if ctrl.crashed() {
		return 0
	}

	var popped int
	ctrl.interrupted(func() {
		if !ctrl.cp.RewindEnabled() {
			notifications.Status(ctrl.notify, "Rewinding not currently enabled")
			return
		}
		popped = ctrl.cp.Restore(n)
	})

	if popped > 0 {
		notifications.Simple(ctrl.notify, notifications.NotifyFrameAvailable)
		ctrl.notify.Notify(notifications.Event{Notice: notifications.NotifyRewound, Count: popped})
	}

	return popped
}

// SetRewinding starts or stops continuous rewinding. Starting to rewind
// unpauses the worker.
func (ctrl *Controller) SetRewinding(rewinding bool) {
	if ctrl.crashed() {
		return
	}

	ctrl.interrupted(func() {
		if rewinding && !ctrl.cp.RewindEnabled() {
			notifications.Status(ctrl.notify, "Rewinding not currently enabled")
			return
		}
		if rewinding == ctrl.modes.Is(govern.Rewinding) {
			return
		}
		if rewinding {
			ctrl.modes |= govern.Rewinding
		} else {
			ctrl.modes &^= govern.Rewinding
		}
		ctrl.wrk.SetRewinding(rewinding)
		if rewinding && ctrl.wrk.IsPaused() {
			ctrl.wrk.SetPaused(false)
		}
		ctrl.updatePolicy()
		logger.Logf(logger.Allow, "controller", "rewinding: %v", rewinding)
	})
}

// setFastForwardMode sets or clears a fast forward mode flag.
func (ctrl *Controller) setFastForwardMode(mode govern.Mode, active bool) {
	if ctrl.crashed() {
		return
	}

	var changed bool
	var ff bool

	ctrl.interrupted(func() {
		if active == ctrl.modes.Is(mode) {
			return
		}
		before := ctrl.modes.IsFastForward()
		if active {
			ctrl.modes |= mode
		} else {
			ctrl.modes &^= mode
		}
		ff = ctrl.modes.IsFastForward()
		changed = ff != before
		ctrl.updatePolicy()
	})

	if changed {
		ctrl.notify.Notify(notifications.Event{Notice: notifications.NotifyFastForwardChanged, Active: ff})
	}
}

// SetFastForward sets the held fast forward mode. Held fast forward is
// intended for a key that is held down.
func (ctrl *Controller) SetFastForward(held bool) {
	ctrl.setFastForwardMode(govern.FastForwardHeld, held)
}

// ForceFastForward sets the forced fast forward mode. Forced fast forward is
// intended for a toggle.
func (ctrl *Controller) ForceFastForward(forced bool) {
	ctrl.setFastForwardMode(govern.FastForwardForced, forced)
}

// OverrideMute forces the audio to be muted.
func (ctrl *Controller) OverrideMute(mute bool) {
	if ctrl.crashed() {
		return
	}

	ctrl.interrupted(func() {
		ctrl.muteOverride = mute
		ctrl.updatePolicy()
	})
}

// Modes returns the current run modes. Returns Normal while the engine is
// crashed.
func (ctrl *Controller) Modes() govern.Mode {
	if ctrl.crashed() {
		return govern.Normal
	}

	var m govern.Mode
	ctrl.interrupted(func() {
		m = ctrl.modes
	})
	return m
}

// Policy returns the current sync policy.
func (ctrl *Controller) Policy() limiter.Policy {
	return ctrl.lmtr.Policy()
}

// SetFramebufferBypass enables or disables hardware accelerated video. While
// bypass is enabled the software frame buffers are not updated and
// ReadFrame() returns framebuffer.ErrBypass.
func (ctrl *Controller) SetFramebufferBypass(bypass bool) {
	if ctrl.crashed() {
		return
	}

	ctrl.interrupted(func() {
		ctrl.frames.SetBypass(bypass)
		ctrl.eng.ReloadConfig("hwaccelVideo", bypass)
	})
}

// Resize the frame buffers and bind the new active buffer to the engine.
func (ctrl *Controller) Resize(width int, height int) {
	if ctrl.crashed() {
		return
	}

	ctrl.interrupted(func() {
		ctrl.frames.Resize(width, height)
		buf, stride := ctrl.frames.Active()
		ctrl.eng.SetVideoBuffer(buf, stride)
	})
}

// Dimensions returns the size of the frame buffers.
func (ctrl *Controller) Dimensions() (int, int) {
	return ctrl.frames.Dimensions()
}

// ReadFrame returns a copy of the most recently completed frame.
func (ctrl *Controller) ReadFrame() ([]byte, error) {
	return ctrl.frames.Read()
}

// Image returns the most recently completed frame as an image.
func (ctrl *Controller) Image() (*image.RGBA, error) {
	return ctrl.frames.Image()
}

// Digest returns the running digest of every completed frame.
func (ctrl *Controller) Digest() string {
	return ctrl.frames.Digest()
}

// Checksum returns the engine's checksum of its current state. Returns zero
// while the engine is crashed.
func (ctrl *Controller) Checksum() uint32 {
	if ctrl.crashed() {
		return 0
	}

	var sum uint32
	ctrl.interrupted(func() {
		sum = ctrl.eng.Checksum()
	})
	return sum
}

// AttachPeripheral attaches the peripheral to the engine.
func (ctrl *Controller) AttachPeripheral(kind engine.Peripheral, p any) {
	if ctrl.crashed() {
		return
	}

	ctrl.interrupted(func() {
		ctrl.eng.SetPeripheral(kind, p)
	})
}

// DetachPeripheral detaches the peripheral of the kind from the engine.
func (ctrl *Controller) DetachPeripheral(kind engine.Peripheral) {
	if ctrl.crashed() {
		return
	}

	ctrl.interrupted(func() {
		ctrl.eng.SetPeripheral(kind, nil)
	})
}

// SetAVStream attaches an audio/video stream to the engine. Does nothing if
// the engine does not produce an AV stream.
func (ctrl *Controller) SetAVStream(s engine.AVStream) {
	if ctrl.crashed() {
		return
	}

	src, ok := ctrl.eng.(engine.AudioSource)
	if !ok {
		return
	}
	ctrl.interrupted(func() {
		src.SetAVStream(s)
	})
}

// ClearAVStream detaches the audio/video stream.
func (ctrl *Controller) ClearAVStream() {
	ctrl.SetAVStream(nil)
}

// AddKey presses the key. Keys are numbered from zero to 31.
func (ctrl *Controller) AddKey(key int) {
	if ctrl.crashed() {
		return
	}
	ctrl.input.addKey(key)
}

// ClearKey releases the key.
func (ctrl *Controller) ClearKey(key int) {
	if ctrl.crashed() {
		return
	}
	ctrl.input.clearKey(key)
}

// SetAutofire enables or disables autofire for the key.
func (ctrl *Controller) SetAutofire(key int, enable bool) {
	if ctrl.crashed() {
		return
	}
	ctrl.input.setAutofire(key, enable)
}

// RewindDepth returns the number of snapshots in the rewind ring.
func (ctrl *Controller) RewindDepth() int {
	if ctrl.crashed() {
		return 0
	}

	var depth int
	ctrl.interrupted(func() {
		depth = ctrl.cp.RewindDepth()
	})
	return depth
}

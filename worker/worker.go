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

package worker

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/jetsetilly/emucore/actions"
	"github.com/jetsetilly/emucore/checkpoint"
	"github.com/jetsetilly/emucore/curated"
	"github.com/jetsetilly/emucore/engine"
	"github.com/jetsetilly/emucore/framebuffer"
	"github.com/jetsetilly/emucore/govern"
	"github.com/jetsetilly/emucore/interrupt"
	"github.com/jetsetilly/emucore/limiter"
	"github.com/jetsetilly/emucore/logger"
	"github.com/jetsetilly/emucore/notifications"
)

// Sentinal error patterns.
const (
	StartupFailure   = "startup: %v"
	FatalEngineFault = "engine fault: %v"
)

// DefaultAutosaveInterval is the number of frames between autosaves.
const DefaultAutosaveInterval = 600

// Config for a new Worker. The Engine, Frames, Actions, Coordinator, Limiter
// and Checkpoints fields are required.
type Config struct {
	Engine      engine.Engine
	Frames      *framebuffer.Manager
	Actions     *actions.Queue
	Coordinator *interrupt.Coordinator
	Limiter     *limiter.Limiter
	Checkpoints *checkpoint.Checkpointer

	// can be nil
	Notify   notifications.Notify
	Listener Listener

	// frames between autosaves. zero means DefaultAutosaveInterval
	AutosaveInterval int

	// engine log messages in this category are posted as status messages
	StatusCategory string

	// logging tag. defaults to "worker"
	Tag string
}

// Worker runs the emulation loop.
type Worker struct {
	eng      engine.Engine
	frames   *framebuffer.Manager
	actions  *actions.Queue
	coord    *interrupt.Coordinator
	lmtr     *limiter.Limiter
	cp       *checkpoint.Checkpointer
	notify   notifications.Notify
	listener Listener

	autosaveInterval int
	statusCategory   string
	tag              string

	// serialises Start(), Reset() and the join in Stop()
	lifecycle sync.Mutex
	done      chan struct{}

	// a fatal log message produced by the engine during the current step.
	// worker only
	fatal string

	crashed  atomic.Bool
	crashMsg atomic.Value // string

	resetRequested atomic.Bool
	resetCrit      sync.Mutex
	resetActions   []actions.Action

	frameCounter atomic.Int64

	// frame advance credit. zero means no credit is in use
	credit atomic.Int64

	rewinding     atomic.Bool
	autosave      atomic.Bool
	saveFlags     atomic.Uint32
	showResetInfo atomic.Bool
}

// NewWorker is the preferred method of initialisation for the Worker type.
func NewWorker(cfg Config) (*Worker, error) {
	switch {
	case cfg.Engine == nil:
		return nil, errors.New("worker: engine is required")
	case cfg.Frames == nil:
		return nil, errors.New("worker: frame buffer is required")
	case cfg.Actions == nil:
		return nil, errors.New("worker: action queue is required")
	case cfg.Coordinator == nil:
		return nil, errors.New("worker: coordinator is required")
	case cfg.Limiter == nil:
		return nil, errors.New("worker: limiter is required")
	case cfg.Checkpoints == nil:
		return nil, errors.New("worker: checkpointer is required")
	}

	wrk := &Worker{
		eng:              cfg.Engine,
		frames:           cfg.Frames,
		actions:          cfg.Actions,
		coord:            cfg.Coordinator,
		lmtr:             cfg.Limiter,
		cp:               cfg.Checkpoints,
		notify:           cfg.Notify,
		listener:         cfg.Listener,
		autosaveInterval: cfg.AutosaveInterval,
		statusCategory:   cfg.StatusCategory,
		tag:              cfg.Tag,
	}

	if wrk.notify == nil {
		wrk.notify = notifications.Null{}
	}
	if wrk.listener == nil {
		wrk.listener = NullListener{}
	}
	if wrk.autosaveInterval <= 0 {
		wrk.autosaveInterval = DefaultAutosaveInterval
	}
	if wrk.tag == "" {
		wrk.tag = "worker"
	}
	wrk.crashMsg.Store("")
	wrk.saveFlags.Store(uint32(engine.AllStateFlags))

	if l, ok := wrk.eng.(engine.Loggable); ok {
		l.SetLogger(wrk.engineLog)
	}
	if a, ok := wrk.eng.(engine.AudioSyncer); ok {
		wrk.lmtr.SetAudioSyncer(a)
	}

	return wrk, nil
}

// engineLog is given to the engine as its LogFunc.
func (wrk *Worker) engineLog(level engine.LogLevel, category string, text string) {
	logger.Logf(logger.Allow, category, "%s: %s", level, text)

	if level == engine.LogFatal {
		wrk.fatal = text
	}

	if wrk.statusCategory != "" && category == wrk.statusCategory && level != engine.LogFatal {
		notifications.Status(wrk.notify, "%s", text)
		return
	}

	wrk.notify.Notify(notifications.Event{
		Notice:   notifications.NotifyLogPosted,
		Level:    level,
		Category: category,
		Text:     text,
	})
}

// State returns the state of the worker.
func (wrk *Worker) State() govern.State {
	return wrk.coord.State()
}

// HasStarted returns true if the worker goroutine is running.
func (wrk *Worker) HasStarted() bool {
	return wrk.coord.State().Alive()
}

// IsPaused returns true if the user has paused the worker.
func (wrk *Worker) IsPaused() bool {
	return wrk.coord.IsPaused()
}

// Crashed returns true and the crash message if the crash latch is set.
func (wrk *Worker) Crashed() (bool, string) {
	return wrk.crashed.Load(), wrk.crashMsg.Load().(string)
}

// FrameCounter returns the number of frames completed since the last reset.
func (wrk *Worker) FrameCounter() int64 {
	return wrk.frameCounter.Load()
}

// SetAutosave enables or disables the periodic autosave to the suspend slot.
func (wrk *Worker) SetAutosave(enabled bool) {
	wrk.autosave.Store(enabled)
}

// SetSaveFlags sets the flags used by autosave.
func (wrk *Worker) SetSaveFlags(flags engine.StateFlags) {
	wrk.saveFlags.Store(uint32(flags))
}

// SetRewinding changes whether the worker restores a rewind snapshot every
// frame rather than taking one.
func (wrk *Worker) SetRewinding(rewinding bool) {
	wrk.rewinding.Store(rewinding)
}

// Rewinding returns true if the worker is rewinding.
func (wrk *Worker) Rewinding() bool {
	return wrk.rewinding.Load()
}

// ShowResetInfo enables a status message when the engine is reset.
func (wrk *Worker) ShowResetInfo(show bool) {
	wrk.showResetInfo.Store(show)
}

// AddResetAction adds a function to be run on the worker goroutine the next
// time the engine is reset. The list of reset actions is cleared after it has
// been run.
func (wrk *Worker) AddResetAction(a actions.Action) {
	if a == nil {
		return
	}
	wrk.resetCrit.Lock()
	defer wrk.resetCrit.Unlock()
	wrk.resetActions = append(wrk.resetActions, a)
}

// bindVideo resizes the frame buffer to the engine's video size and binds the
// active buffer to the engine. Must be called when the worker is not running
// or from the worker goroutine.
func (wrk *Worker) bindVideo() {
	w, h := wrk.eng.VideoSize()
	if fw, fh := wrk.frames.Dimensions(); fw != w || fh != h {
		wrk.frames.Resize(w, h)
	}
	buf, stride := wrk.frames.Active()
	wrk.eng.SetVideoBuffer(buf, stride)
}

// Start initialises the engine and launches the worker goroutine. If the
// engine fails to initialise no goroutine is created and the returned error
// is a StartupFailure. Starting a running or crashed worker does nothing.
func (wrk *Worker) Start() error {
	wrk.lifecycle.Lock()
	defer wrk.lifecycle.Unlock()

	if wrk.crashed.Load() || wrk.coord.State().Alive() {
		return nil
	}

	if err := wrk.eng.Init(); err != nil {
		err = curated.Errorf(StartupFailure, err)
		logger.Log(logger.Allow, wrk.tag, err)
		wrk.notify.Notify(notifications.Event{Notice: notifications.NotifyFailed, Text: err.Error()})
		notifications.Simple(wrk.notify, notifications.NotifyStopping)
		return err
	}

	wrk.bindVideo()
	wrk.frameCounter.Store(0)
	wrk.credit.Store(0)
	wrk.launch(false)

	return nil
}

// launch the worker goroutine and wait for it to attach to the coordinator.
// Must be called with the lifecycle lock held.
func (wrk *Worker) launch(restart bool) {
	attached := make(chan struct{})
	wrk.done = make(chan struct{})
	go wrk.run(restart, attached, wrk.done)
	<-attached
}

// Stop the worker goroutine. A paused worker and a worker waiting for the
// pacing deadline are released immediately.
//
// Stop() returns once the goroutine has ended except when it is called from
// the worker goroutine itself or from a goroutine holding an interrupt, in
// which case the worker ends once the interrupt has been released.
func (wrk *Worker) Stop() {
	if !wrk.coord.RequestStop() {
		return
	}
	wrk.lmtr.Cancel()

	if wrk.coord.OnWorker() || wrk.coord.HeldByCaller() {
		return
	}

	wrk.lifecycle.Lock()
	done := wrk.done
	wrk.lifecycle.Unlock()

	if done != nil {
		<-done
	}
}

// Reset the engine. If the worker is running the reset happens on the worker
// goroutine at the next frame boundary. A paused worker is reset without
// being unpaused. Resetting a crashed worker clears
// the crash latch and restarts the worker goroutine.
func (wrk *Worker) Reset() {
	wrk.lifecycle.Lock()
	defer wrk.lifecycle.Unlock()

	if wrk.crashed.Load() {
		// the old goroutine has detached by the time the crash latch is
		// visible but it may not have closed its done channel yet
		if wrk.done != nil {
			<-wrk.done
		}
		wrk.crashed.Store(false)
		wrk.crashMsg.Store("")
		wrk.credit.Store(0)
		wrk.launch(true)
		return
	}

	if wrk.coord.State().Alive() {
		wrk.resetRequested.Store(true)
		wrk.coord.Wake()
	}
}

// SetPaused pauses or unpauses the worker. Unpausing cancels any frame
// advance credit.
func (wrk *Worker) SetPaused(paused bool) {
	if paused {
		wrk.coord.RequestPause()
		return
	}
	wrk.credit.Store(0)
	wrk.coord.Unpause()
}

// FrameAdvance runs the worker for a single frame and then pauses it.
func (wrk *Worker) FrameAdvance() {
	wrk.credit.Store(1)
	wrk.coord.Unpause()
}

// Wait blocks until the worker goroutine has ended.
func (wrk *Worker) Wait() {
	wrk.lifecycle.Lock()
	done := wrk.done
	wrk.lifecycle.Unlock()
	if done != nil {
		<-done
	}
}

func (wrk *Worker) String() string {
	s := fmt.Sprintf("%s frame %d", wrk.State(), wrk.FrameCounter())
	if crashed, msg := wrk.Crashed(); crashed {
		s = fmt.Sprintf("%s (crashed: %s)", s, msg)
	}
	return s
}

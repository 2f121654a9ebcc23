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
	"github.com/jetsetilly/emucore/curated"
	"github.com/jetsetilly/emucore/engine"
	"github.com/jetsetilly/emucore/logger"
	"github.com/jetsetilly/emucore/notifications"
	"github.com/jetsetilly/emucore/version"
)

// run is the body of the worker goroutine. If restart is true the engine is
// reset before the first frame rather than the Start() listener being called.
func (wrk *Worker) run(restart bool, attached chan struct{}, done chan struct{}) {
	defer close(done)

	if err := wrk.coord.Attach(); err != nil {
		logger.Log(logger.Allow, wrk.tag, err)
		close(attached)
		return
	}
	wrk.lmtr.Reset()
	close(attached)

	if restart {
		wrk.reset()
	} else {
		logger.Log(logger.Allow, wrk.tag, "started")
		wrk.listener.Start()
		notifications.Simple(wrk.notify, notifications.NotifyStarted)
	}

	var err error
	for {
		if wrk.resetRequested.CompareAndSwap(true, false) {
			wrk.reset()
		}

		var cont bool
		if cont, err = wrk.frame(); !cont {
			break
		}
	}

	// no external goroutine can acquire the coordinator after Close()
	wrk.coord.Close()

	if err != nil {
		wrk.crash(err)
		wrk.coord.Detach()
		return
	}

	wrk.clean()
	wrk.coord.Detach()
}

// frame runs the engine until a frame is completed and then performs the
// frame-end bookkeeping. Returns false if the loop should end.
func (wrk *Worker) frame() (bool, error) {
	for {
		complete, err := wrk.step()
		if err != nil {
			return false, err
		}
		if complete {
			break
		}
	}

	n := wrk.frameCounter.Add(1)

	if wrk.autosave.Load() && n%int64(wrk.autosaveInterval) == 0 {
		if err := wrk.cp.Autosave(engine.StateFlags(wrk.saveFlags.Load())); err != nil {
			logger.Logf(logger.Allow, wrk.tag, "autosave: %v", err)
		}
	}

	if wrk.rewinding.Load() {
		if wrk.cp.Restore(1) > 0 {
			wrk.notify.Notify(notifications.Event{Notice: notifications.NotifyRewound, Count: 1})
		}
	} else {
		wrk.cp.TickRewind()
	}

	wrk.frames.Swap()
	wrk.listener.Frame()
	wrk.actions.Drain()

	if wrk.credit.Load() > 0 && wrk.credit.Add(-1) == 0 {
		wrk.coord.RequestPause()
	}

	notifications.Simple(wrk.notify, notifications.NotifyFrameAvailable)

	wrk.lmtr.Wait()

	return wrk.coord.Boundary(wrk.pause, wrk.unpause, wrk.wake), nil
}

// step the engine once. Panics, errors and fatal log messages are returned as
// a FatalEngineFault.
func (wrk *Worker) step() (complete bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			complete = false
			err = curated.Errorf(FatalEngineFault, r)
		}
	}()

	complete, err = wrk.eng.Step()
	if err != nil {
		return false, curated.Errorf(FatalEngineFault, err)
	}

	if wrk.fatal != "" {
		msg := wrk.fatal
		wrk.fatal = ""
		return false, curated.Errorf(FatalEngineFault, msg)
	}

	return complete, nil
}

func (wrk *Worker) pause() {
	wrk.listener.Pause()
	notifications.Simple(wrk.notify, notifications.NotifyPaused)
}

func (wrk *Worker) unpause() {
	wrk.listener.Unpause()
	notifications.Simple(wrk.notify, notifications.NotifyUnpaused)
}

// a reset requested while the worker is parked is performed without waiting
// for the next frame
func (wrk *Worker) wake() {
	if wrk.resetRequested.CompareAndSwap(true, false) {
		wrk.reset()
	}
}

// reset is called on the worker goroutine.
func (wrk *Worker) reset() {
	wrk.resetCrit.Lock()
	acts := wrk.resetActions
	wrk.resetActions = nil
	wrk.resetCrit.Unlock()

	for _, a := range acts {
		a()
	}

	wrk.eng.Reset()
	wrk.frameCounter.Store(0)
	wrk.bindVideo()

	logger.Log(logger.Allow, wrk.tag, "reset")
	wrk.listener.Reset()
	notifications.Simple(wrk.notify, notifications.NotifyDidReset)

	if wrk.showResetInfo.Load() {
		notifications.Status(wrk.notify, "Reset r%s %08x", version.Revision(), wrk.eng.Checksum())
	}
}

// crash latches the crash. The NotifyCrashed event is sent only if the latch
// was not already set.
func (wrk *Worker) crash(err error) {
	msg := err.Error()
	logger.Log(logger.Allow, wrk.tag, msg)
	wrk.crashMsg.Store(msg)
	if wrk.crashed.CompareAndSwap(false, true) {
		wrk.notify.Notify(notifications.Event{Notice: notifications.NotifyCrashed, Text: msg})
	}
}

// clean is called when the loop ends normally.
func (wrk *Worker) clean() {
	if wrk.autosave.Load() {
		if err := wrk.cp.Autosave(engine.StateFlags(wrk.saveFlags.Load())); err != nil {
			logger.Logf(logger.Allow, wrk.tag, "autosave: %v", err)
		}
	}

	wrk.listener.Clean()
	wrk.actions.Clear()
	wrk.eng.Deinit()

	logger.Logf(logger.Allow, wrk.tag, "stopped after %d frames", wrk.frameCounter.Load())
	notifications.Simple(wrk.notify, notifications.NotifyStopping)
}

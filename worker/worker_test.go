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

package worker_test

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jetsetilly/emucore/actions"
	"github.com/jetsetilly/emucore/checkpoint"
	"github.com/jetsetilly/emucore/curated"
	"github.com/jetsetilly/emucore/engine"
	"github.com/jetsetilly/emucore/engine/synthetic"
	"github.com/jetsetilly/emucore/framebuffer"
	"github.com/jetsetilly/emucore/govern"
	"github.com/jetsetilly/emucore/interrupt"
	"github.com/jetsetilly/emucore/limiter"
	"github.com/jetsetilly/emucore/notifications"
	"github.com/jetsetilly/emucore/persistence"
	"github.com/jetsetilly/emucore/test"
	"github.com/jetsetilly/emucore/worker"
)

const timeout = 2 * time.Second

type listener struct {
	start   atomic.Int64
	reset   atomic.Int64
	frame   atomic.Int64
	clean   atomic.Int64
	pause   atomic.Int64
	unpause atomic.Int64
}

func (l *listener) Start()   { l.start.Add(1) }
func (l *listener) Reset()   { l.reset.Add(1) }
func (l *listener) Frame()   { l.frame.Add(1) }
func (l *listener) Clean()   { l.clean.Add(1) }
func (l *listener) Pause()   { l.pause.Add(1) }
func (l *listener) Unpause() { l.unpause.Add(1) }

type fixture struct {
	eng      *synthetic.Engine
	store    *persistence.Memory
	frames   *framebuffer.Manager
	queue    *actions.Queue
	coord    *interrupt.Coordinator
	lmtr     *limiter.Limiter
	cp       *checkpoint.Checkpointer
	rec      *notifications.Recorder
	listener *listener
	wrk      *worker.Worker
}

func newFixture(t *testing.T, cfg worker.Config) *fixture {
	t.Helper()

	f := &fixture{
		eng:      synthetic.NewEngineWithSize(16, 8),
		store:    persistence.NewMemory(),
		frames:   framebuffer.NewManager(1, 1),
		queue:    &actions.Queue{},
		coord:    interrupt.NewCoordinator(),
		lmtr:     limiter.NewLimiter(),
		rec:      &notifications.Recorder{},
		listener: &listener{},
	}

	// unthrottled
	f.lmtr.SetPolicy(limiter.Policy{})

	var err error
	f.cp, err = checkpoint.NewCheckpointer(checkpoint.Config{
		Engine: f.eng,
		Store:  f.store,
		Frames: f.frames,
		Notify: f.rec,
	})
	test.DemandSuccess(t, err)

	cfg.Engine = f.eng
	cfg.Frames = f.frames
	cfg.Actions = f.queue
	cfg.Coordinator = f.coord
	cfg.Limiter = f.lmtr
	cfg.Checkpoints = f.cp
	cfg.Notify = f.rec
	cfg.Listener = f.listener

	f.wrk, err = worker.NewWorker(cfg)
	test.DemandSuccess(t, err)

	t.Cleanup(f.wrk.Stop)

	return f
}

func (f *fixture) start(t *testing.T) {
	t.Helper()
	test.DemandSuccess(t, f.wrk.Start())
	test.DemandSuccess(t, f.rec.Wait(notifications.NotifyFrameAvailable, 1, timeout))
}

func (f *fixture) waitFrames(t *testing.T, n int64) {
	t.Helper()
	target := f.wrk.FrameCounter() + n
	test.DemandWithin(t, timeout, func() bool { return f.wrk.FrameCounter() >= target })
}

func TestConfig(t *testing.T) {
	_, err := worker.NewWorker(worker.Config{})
	test.ExpectFailure(t, err)
}

func TestStartStop(t *testing.T) {
	f := newFixture(t, worker.Config{})
	test.ExpectEquality(t, f.wrk.State(), govern.Uninitialized)

	f.start(t)
	test.ExpectSuccess(t, f.wrk.HasStarted())
	f.waitFrames(t, 10)

	// started is sent before the first frame
	started := f.rec.Index(notifications.NotifyStarted)
	test.ExpectInequality(t, started, -1)
	test.ExpectSuccess(t, started < f.rec.Index(notifications.NotifyFrameAvailable))
	test.ExpectEquality(t, f.listener.start.Load(), int64(1))

	// starting a running worker does nothing
	test.ExpectSuccess(t, f.wrk.Start())
	test.ExpectEquality(t, f.rec.Count(notifications.NotifyStarted), 1)

	// the frame buffer was sized to the engine
	w, h := f.frames.Dimensions()
	test.ExpectEquality(t, w, 16)
	test.ExpectEquality(t, h, 8)

	f.wrk.Stop()
	test.ExpectEquality(t, f.wrk.State(), govern.Stopped)
	test.ExpectFailure(t, f.wrk.HasStarted())
	test.ExpectEquality(t, f.rec.Count(notifications.NotifyStopping), 1)
	test.ExpectEquality(t, f.listener.clean.Load(), int64(1))
	test.ExpectSuccess(t, f.listener.frame.Load() >= 10)

	// stopping a stopped worker does nothing
	f.wrk.Stop()
	test.ExpectEquality(t, f.rec.Count(notifications.NotifyStopping), 1)

	// the worker can be started again
	test.DemandSuccess(t, f.wrk.Start())
	test.DemandSuccess(t, f.rec.Wait(notifications.NotifyStarted, 2, timeout))
	f.waitFrames(t, 5)
}

func TestStartupFailure(t *testing.T) {
	f := newFixture(t, worker.Config{})
	f.eng.Faults.Init = errors.New("no cartridge")

	err := f.wrk.Start()
	test.ExpectFailure(t, err)
	test.ExpectSuccess(t, curated.Is(err, worker.StartupFailure))
	test.ExpectSuccess(t, strings.Contains(err.Error(), "no cartridge"))

	test.ExpectEquality(t, f.wrk.State(), govern.Uninitialized)
	test.ExpectEquality(t, f.rec.Count(notifications.NotifyFailed), 1)
	test.ExpectEquality(t, f.rec.Count(notifications.NotifyStopping), 1)
	test.ExpectEquality(t, f.rec.Count(notifications.NotifyStarted), 0)
}

func TestPauseAndFrameAdvance(t *testing.T) {
	f := newFixture(t, worker.Config{})
	f.start(t)

	f.wrk.SetPaused(true)
	test.DemandSuccess(t, f.rec.Wait(notifications.NotifyPaused, 1, timeout))
	test.DemandWithin(t, timeout, f.coord.Parked)
	test.ExpectSuccess(t, f.wrk.IsPaused())
	test.ExpectEquality(t, f.wrk.State(), govern.Paused)

	n := f.wrk.FrameCounter()
	time.Sleep(20 * time.Millisecond)
	test.ExpectEquality(t, f.wrk.FrameCounter(), n)

	f.wrk.FrameAdvance()
	test.DemandSuccess(t, f.rec.Wait(notifications.NotifyPaused, 2, timeout))
	test.DemandWithin(t, timeout, f.coord.Parked)
	test.ExpectEquality(t, f.wrk.FrameCounter(), n+1)
	test.ExpectEquality(t, f.listener.pause.Load(), int64(2))
	test.ExpectEquality(t, f.listener.unpause.Load(), int64(1))

	f.wrk.SetPaused(false)
	test.DemandSuccess(t, f.rec.Wait(notifications.NotifyUnpaused, 2, timeout))
	f.waitFrames(t, 5)
	test.ExpectFailure(t, f.wrk.IsPaused())
}

func TestStopWhilePaused(t *testing.T) {
	f := newFixture(t, worker.Config{})
	f.start(t)

	f.wrk.SetPaused(true)
	test.DemandWithin(t, timeout, f.coord.Parked)

	start := time.Now()
	f.wrk.Stop()
	test.ExpectSuccess(t, time.Since(start) < 500*time.Millisecond)
	test.ExpectEquality(t, f.wrk.State(), govern.Stopped)
}

func TestStopWhilePacing(t *testing.T) {
	f := newFixture(t, worker.Config{})
	f.start(t)

	// one frame every ten seconds
	f.lmtr.SetPolicy(limiter.Policy{FPSTarget: 0.1, VideoWait: true})
	time.Sleep(20 * time.Millisecond)

	start := time.Now()
	f.wrk.Stop()
	test.ExpectSuccess(t, time.Since(start) < 500*time.Millisecond)
}

func TestActions(t *testing.T) {
	f := newFixture(t, worker.Config{})

	var crit sync.Mutex
	var order []int
	var frames []int64

	record := func(i int) actions.Action {
		return func() {
			crit.Lock()
			defer crit.Unlock()
			order = append(order, i)
			frames = append(frames, f.wrk.FrameCounter())
		}
	}

	f.queue.Push(record(0))
	f.queue.Push(record(1))
	f.queue.Push(func() {
		// pushed during a drain: runs on the next drain
		f.queue.Push(record(3))
	})
	f.queue.Push(record(2))

	f.start(t)
	f.waitFrames(t, 5)

	crit.Lock()
	defer crit.Unlock()
	test.ExpectEquality(t, len(order), 4)
	for i, v := range order {
		test.ExpectEquality(t, v, i)
	}
	test.ExpectEquality(t, frames[0], frames[2])
	test.ExpectEquality(t, frames[3], frames[2]+1)
}

func TestStopFromWorker(t *testing.T) {
	f := newFixture(t, worker.Config{})
	f.start(t)

	f.queue.Push(f.wrk.Stop)

	done := make(chan struct{})
	go func() {
		f.wrk.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatalf("stop from worker goroutine did not end the worker")
	}
	test.ExpectEquality(t, f.wrk.State(), govern.Stopped)
}

func TestInterrupt(t *testing.T) {
	f := newFixture(t, worker.Config{})
	f.start(t)

	g := interrupt.NewGuard(f.coord)
	test.ExpectSuccess(t, g.Held())

	n := f.wrk.FrameCounter()
	frame := f.eng.Frame()
	test.ExpectSuccess(t, f.cp.Save(1, engine.AllStateFlags))
	time.Sleep(20 * time.Millisecond)
	test.ExpectEquality(t, f.wrk.FrameCounter(), n)
	test.ExpectEquality(t, f.eng.Frame(), frame)

	// stop while holding an interrupt does not wait
	f.wrk.Stop()
	test.ExpectEquality(t, f.wrk.State(), govern.Stopping)

	g.Resume()
	f.wrk.Wait()
	test.ExpectEquality(t, f.wrk.State(), govern.Stopped)
}

func testCrash(t *testing.T, faults synthetic.Faults, message string) {
	t.Helper()

	f := newFixture(t, worker.Config{})
	f.eng.Faults = faults
	f.start(t)

	test.DemandSuccess(t, f.rec.Wait(notifications.NotifyCrashed, 1, timeout))
	f.wrk.Wait()

	crashed, msg := f.wrk.Crashed()
	test.ExpectSuccess(t, crashed)
	test.ExpectSuccess(t, strings.Contains(msg, message), msg)
	test.ExpectEquality(t, f.wrk.State(), govern.Stopped)

	ev, _ := f.rec.Last(notifications.NotifyCrashed)
	test.ExpectEquality(t, ev.Text, msg)

	// control operations do nothing while crashed
	test.ExpectSuccess(t, f.wrk.Start())
	f.wrk.Stop()
	f.wrk.SetPaused(true)
	test.ExpectEquality(t, f.wrk.State(), govern.Stopped)
	test.ExpectEquality(t, f.rec.Count(notifications.NotifyCrashed), 1)
	test.ExpectEquality(t, f.rec.Count(notifications.NotifyStarted), 1)
	test.ExpectEquality(t, f.listener.clean.Load(), int64(0))

	// reset clears the latch and restarts the worker
	f.eng.Faults = synthetic.Faults{}
	f.wrk.Reset()
	test.DemandSuccess(t, f.rec.Wait(notifications.NotifyDidReset, 1, timeout))
	crashed, _ = f.wrk.Crashed()
	test.ExpectFailure(t, crashed)
	test.ExpectSuccess(t, f.wrk.HasStarted())
	f.waitFrames(t, 5)
	test.ExpectEquality(t, f.rec.Count(notifications.NotifyCrashed), 1)
}

func TestCrashError(t *testing.T) {
	testCrash(t, synthetic.Faults{ErrorAtFrame: 5}, "illegal instruction")
}

func TestCrashPanic(t *testing.T) {
	testCrash(t, synthetic.Faults{PanicAtFrame: 5}, "corrupted state")
}

func TestCrashFatalLog(t *testing.T) {
	testCrash(t, synthetic.Faults{FatalLogAtFrame: 5}, "jammed")
}

func TestReset(t *testing.T) {
	f := newFixture(t, worker.Config{})
	f.start(t)
	f.waitFrames(t, 20)

	var ran atomic.Int64
	f.wrk.AddResetAction(func() { ran.Add(1) })
	f.wrk.AddResetAction(func() { ran.Add(10) })
	f.wrk.AddResetAction(nil)
	f.wrk.ShowResetInfo(true)

	f.wrk.Reset()
	test.DemandSuccess(t, f.rec.Wait(notifications.NotifyDidReset, 1, timeout))
	test.ExpectEquality(t, ran.Load(), int64(11))
	test.ExpectEquality(t, f.listener.reset.Load(), int64(1))

	ev, ok := f.rec.Last(notifications.NotifyStatusPosted)
	test.ExpectSuccess(t, ok)
	test.ExpectSuccess(t, strings.HasPrefix(ev.Text, "Reset r"), ev.Text)

	// the reset actions are run once only
	f.wrk.ShowResetInfo(false)
	f.wrk.Reset()
	test.DemandSuccess(t, f.rec.Wait(notifications.NotifyDidReset, 2, timeout))
	test.ExpectEquality(t, ran.Load(), int64(11))

	// the goroutine survives a reset
	test.ExpectEquality(t, f.rec.Count(notifications.NotifyStarted), 1)
	f.waitFrames(t, 5)
}

func TestResetWhilePaused(t *testing.T) {
	f := newFixture(t, worker.Config{})
	f.start(t)
	f.waitFrames(t, 10)

	f.wrk.SetPaused(true)
	test.DemandSuccess(t, f.rec.Wait(notifications.NotifyPaused, 1, timeout))
	test.DemandWithin(t, timeout, f.coord.Parked)

	var ran atomic.Int64
	f.wrk.AddResetAction(func() { ran.Add(1) })

	// the reset happens without unpausing the worker
	f.wrk.Reset()
	test.DemandSuccess(t, f.rec.Wait(notifications.NotifyDidReset, 1, timeout))
	test.ExpectEquality(t, ran.Load(), int64(1))
	test.ExpectEquality(t, f.wrk.FrameCounter(), int64(0))
	test.DemandWithin(t, timeout, f.coord.Parked)
	test.ExpectSuccess(t, f.wrk.IsPaused())
	test.ExpectEquality(t, f.listener.unpause.Load(), int64(0))
	test.ExpectEquality(t, f.rec.Count(notifications.NotifyUnpaused), 0)

	time.Sleep(20 * time.Millisecond)
	test.ExpectEquality(t, f.wrk.FrameCounter(), int64(0))

	f.wrk.SetPaused(false)
	f.waitFrames(t, 5)
}

func TestAutosave(t *testing.T) {
	f := newFixture(t, worker.Config{AutosaveInterval: 10})
	f.wrk.SetAutosave(true)
	f.wrk.SetSaveFlags(engine.StateSaveData)
	f.start(t)
	f.waitFrames(t, 15)

	g := interrupt.NewGuard(f.coord)
	_, err := persistence.ReadAll(f.store, checkpoint.SuspendSlot)
	test.ExpectSuccess(t, err)

	// autosave does not touch the undo buffer and posts no status
	test.ExpectFailure(t, f.cp.CanUndoSave())
	test.ExpectEquality(t, f.rec.Count(notifications.NotifyStatusPosted), 0)
	g.Resume()
}

func TestAutosaveOnStop(t *testing.T) {
	f := newFixture(t, worker.Config{})
	f.wrk.SetAutosave(true)
	f.start(t)
	f.wrk.Stop()

	_, err := persistence.ReadAll(f.store, checkpoint.SuspendSlot)
	test.ExpectSuccess(t, err)
}

func TestRewinding(t *testing.T) {
	f := newFixture(t, worker.Config{})
	f.cp.SetRewind(true, 100, 1)
	f.start(t)
	f.waitFrames(t, 30)

	g := interrupt.NewGuard(f.coord)
	depth := f.cp.RewindDepth()
	frame := f.eng.Frame()
	f.wrk.SetRewinding(true)
	g.Resume()

	test.DemandSuccess(t, f.rec.Wait(notifications.NotifyRewound, 5, timeout))

	g = interrupt.NewGuard(f.coord)
	f.wrk.SetRewinding(false)
	test.ExpectSuccess(t, f.cp.RewindDepth() < depth)
	test.ExpectSuccess(t, f.eng.Frame() < frame)
	g.Resume()

	f.waitFrames(t, 5)
}

func TestEngineLog(t *testing.T) {
	f := newFixture(t, worker.Config{})
	f.start(t)

	ev, ok := f.rec.Last(notifications.NotifyLogPosted)
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, ev.Category, "synthetic")
	test.ExpectEquality(t, ev.Level, engine.LogInfo)
}

func TestEngineLogStatusCategory(t *testing.T) {
	f := newFixture(t, worker.Config{StatusCategory: "synthetic"})
	f.start(t)

	test.ExpectEquality(t, f.rec.Count(notifications.NotifyLogPosted), 0)
	ev, ok := f.rec.Last(notifications.NotifyStatusPosted)
	test.ExpectSuccess(t, ok)
	test.ExpectSuccess(t, strings.Contains(ev.Text, "initialised"))
}

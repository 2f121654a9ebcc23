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

package limiter

import (
	"sync/atomic"
	"time"

	"github.com/jetsetilly/emucore/engine"
)

// if the worker falls more than this many frames behind the deadline is
// reset rather than trying to catch up.
const maxLagFrames = 4

// Limiter paces the worker according to the current Policy.
type Limiter struct {
	policy atomic.Pointer[Policy]

	// wake is pinged whenever the policy changes or the limiter is cancelled
	wake      chan struct{}
	cancelled atomic.Bool

	// the following fields are only accessed by the worker
	audio       engine.AudioSyncer
	next        time.Time
	measureTime time.Time
	measureCt   int

	// the measured number of frames per second
	measured atomic.Value // float32
}

// NewLimiter is the preferred method of initialisation for the Limiter type.
func NewLimiter() *Limiter {
	lmtr := &Limiter{
		wake: make(chan struct{}, 1),
	}
	lmtr.measured.Store(float32(0))
	lmtr.SetPolicy(Compute(DefaultConfig(), 0, false))
	return lmtr
}

// SetAudioSyncer sets the AudioSyncer used when the policy asks for audio
// sync. Must be called by the worker or while the worker is interrupted.
func (lmtr *Limiter) SetAudioSyncer(audio engine.AudioSyncer) {
	lmtr.audio = audio
}

// SetPolicy publishes a new policy. Safe to call from any goroutine.
func (lmtr *Limiter) SetPolicy(p Policy) {
	lmtr.policy.Store(&p)
	lmtr.ping()
}

// Policy returns the current policy.
func (lmtr *Limiter) Policy() Policy {
	return *lmtr.policy.Load()
}

func (lmtr *Limiter) ping() {
	select {
	case lmtr.wake <- struct{}{}:
	default:
	}
}

// Cancel releases the worker from any current or future Wait() until Reset()
// is called.
func (lmtr *Limiter) Cancel() {
	lmtr.cancelled.Store(true)
	lmtr.ping()
}

// Reset undoes the effect of Cancel(). Worker only.
func (lmtr *Limiter) Reset() {
	lmtr.cancelled.Store(false)
	select {
	case <-lmtr.wake:
	default:
	}
	lmtr.next = time.Time{}
	lmtr.measureTime = time.Time{}
	lmtr.measureCt = 0
}

// Measured returns the measured number of frames per second.
func (lmtr *Limiter) Measured() float32 {
	return lmtr.measured.Load().(float32)
}

func (lmtr *Limiter) measure() {
	now := time.Now()
	if lmtr.measureTime.IsZero() {
		lmtr.measureTime = now
		lmtr.measureCt = 0
		return
	}

	lmtr.measureCt++
	if d := now.Sub(lmtr.measureTime); d >= time.Second {
		lmtr.measured.Store(float32(float64(lmtr.measureCt) / d.Seconds()))
		lmtr.measureTime = now
		lmtr.measureCt = 0
	}
}

// Wait blocks until the next frame deadline if the policy requires it.
// Worker only.
func (lmtr *Limiter) Wait() {
	lmtr.measure()

	p := lmtr.Policy()
	if lmtr.cancelled.Load() || !p.Waits() {
		lmtr.next = time.Time{}
		return
	}

	now := time.Now()
	if lmtr.next.IsZero() || now.Sub(lmtr.next) > maxLagFrames*p.Period() {
		lmtr.next = now
	}
	lmtr.next = lmtr.next.Add(p.Period())

	for {
		d := time.Until(lmtr.next)
		if d <= 0 {
			break
		}

		t := time.NewTimer(d)
		select {
		case <-t.C:
			continue
		case <-lmtr.wake:
			t.Stop()
		}

		if lmtr.cancelled.Load() {
			lmtr.next = time.Time{}
			return
		}

		np := lmtr.Policy()
		if !np.Waits() {
			lmtr.next = time.Time{}
			return
		}
		if np.FPSTarget != p.FPSTarget {
			lmtr.next = time.Now().Add(np.Period())
		}
		p = np
	}

	if p.AudioWait && lmtr.audio != nil && !lmtr.cancelled.Load() {
		lmtr.audio.WaitAudio(lmtr.wake)
	}
}

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

// Package limiter paces the emulation worker. The pace is described by a
// Policy, which is computed from the configuration and the current run mode.
//
// The worker calls Wait() once per frame. Wait() blocks until the next frame
// deadline when the policy asks for video or audio sync. Any goroutine can
// publish a new policy with SetPolicy(); if the new policy does not wait, a
// worker blocked in Wait() returns immediately. Cancel() releases the worker
// unconditionally and is used when the worker is stopping.
package limiter

import (
	"fmt"
	"time"

	"github.com/jetsetilly/emucore/govern"
)

// Config is the pacing configuration. The fast forward volume and mute
// values of -1 mean that the normal volume and mute values are used during
// fast forward.
type Config struct {
	FPSTarget float64
	AudioSync bool
	VideoSync bool
	Volume    int
	Mute      bool

	// a ratio of zero or less means fast forward is unbounded
	FastForwardRatio     float64
	FastForwardHeldRatio float64

	FastForwardVolume int
	FastForwardMute   int
}

// DefaultVolume is full volume.
const DefaultVolume = 0x100

// DefaultConfig returns the default pacing configuration.
func DefaultConfig() Config {
	return Config{
		FPSTarget:            60.0,
		VideoSync:            true,
		Volume:               DefaultVolume,
		FastForwardRatio:     -1,
		FastForwardHeldRatio: -1,
		FastForwardVolume:    -1,
		FastForwardMute:      -1,
	}
}

// Policy is the pace the worker runs at. Policy values are immutable once
// published with SetPolicy().
type Policy struct {
	// the effective run mode the policy was computed for
	Mode govern.Mode

	FPSTarget float64
	AudioWait bool
	VideoWait bool
	Volume    int
	Mute      bool
}

func (p Policy) String() string {
	return fmt.Sprintf("%s: %.2ffps audio=%v video=%v volume=%d mute=%v",
		p.Mode, p.FPSTarget, p.AudioWait, p.VideoWait, p.Volume, p.Mute)
}

// Waits returns true if the policy requires the worker to wait at the end of
// a frame.
func (p Policy) Waits() bool {
	return (p.AudioWait || p.VideoWait) && p.FPSTarget > 0
}

// Period returns the duration of a single frame.
func (p Policy) Period() time.Duration {
	if p.FPSTarget <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / p.FPSTarget)
}

// Compute the policy for the configuration and run mode. The muteOverride
// argument forces the audio to be muted in every mode.
//
// Rewinding takes priority over fast forward, which takes priority over
// Normal. When fast forward is both held and forced the held ratio is used.
func Compute(cfg Config, mode govern.Mode, muteOverride bool) Policy {
	p := Policy{
		Mode:      mode.Effective(),
		FPSTarget: cfg.FPSTarget,
		Volume:    cfg.Volume,
		Mute:      cfg.Mute || muteOverride,
	}

	switch p.Mode {
	case govern.Rewinding:
		p.VideoWait = true
		p.Mute = true

	case govern.FastForwardHeld, govern.FastForwardForced:
		ratio := cfg.FastForwardRatio
		if p.Mode == govern.FastForwardHeld {
			ratio = cfg.FastForwardHeldRatio
		}
		if ratio > 0 {
			p.FPSTarget = cfg.FPSTarget * ratio
			p.AudioWait = true
		}
		if cfg.FastForwardVolume >= 0 {
			p.Volume = cfg.FastForwardVolume
		}
		if cfg.FastForwardMute >= 0 {
			p.Mute = cfg.FastForwardMute != 0 || muteOverride
		}

	default:
		p.AudioWait = cfg.AudioSync
		p.VideoWait = cfg.VideoSync
	}

	return p
}

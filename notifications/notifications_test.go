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

package notifications_test

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jetsetilly/emucore/engine"
	"github.com/jetsetilly/emucore/notifications"
	"github.com/jetsetilly/emucore/test"
)

func TestMulti(t *testing.T) {
	var a, b notifications.Recorder
	var count int

	m := notifications.Multi{&a, nil, &b, notifications.Func(func(notifications.Event) {
		count++
	})}
	notifications.Simple(m, notifications.NotifyStarted)
	notifications.Status(m, "State %d saved", 3)

	test.ExpectEquality(t, a.Count(notifications.NotifyStarted), 1)
	test.ExpectEquality(t, b.Count(notifications.NotifyStatusPosted), 1)
	test.ExpectEquality(t, count, 2)

	ev, ok := a.Last(notifications.NotifyStatusPosted)
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, ev.Text, "State 3 saved")
	test.ExpectEquality(t, ev.String(), "NotifyStatusPosted: State 3 saved")
}

func TestRecorder(t *testing.T) {
	var r notifications.Recorder
	test.ExpectEquality(t, r.Index(notifications.NotifyStarted), -1)

	go func() {
		notifications.Simple(&r, notifications.NotifyStarted)
		notifications.Simple(&r, notifications.NotifyFrameAvailable)
	}()

	test.ExpectSuccess(t, r.Wait(notifications.NotifyFrameAvailable, 1, time.Second))
	test.ExpectEquality(t, r.Index(notifications.NotifyStarted), 0)
	test.ExpectEquality(t, r.Index(notifications.NotifyFrameAvailable), 1)
	test.ExpectFailure(t, r.Wait(notifications.NotifyCrashed, 1, 10*time.Millisecond))

	r.Clear()
	test.ExpectEquality(t, len(r.Events()), 0)
}

func TestChannel(t *testing.T) {
	c := notifications.NewChannel(2)
	notifications.Simple(c, notifications.NotifyStarted)
	notifications.Simple(c, notifications.NotifyPaused)

	// channel is full so the event is dropped rather than blocking
	notifications.Simple(c, notifications.NotifyUnpaused)
	test.ExpectEquality(t, c.Dropped(), 1)

	ev := <-c.C()
	test.ExpectEquality(t, ev.Notice, notifications.NotifyStarted)
	ev = <-c.C()
	test.ExpectEquality(t, ev.Notice, notifications.NotifyPaused)
}

func TestZap(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	z := notifications.NewZap(zap.New(core))

	z.Notify(notifications.Event{Notice: notifications.NotifyCrashed, Text: "jammed"})
	z.Notify(notifications.Event{Notice: notifications.NotifyLogPosted, Level: engine.LogWarn, Category: "synthetic", Text: "odd"})
	z.Notify(notifications.Event{Notice: notifications.NotifyFastForwardChanged, Active: true})

	entries := logs.All()
	test.DemandEquality(t, len(entries), 3)
	test.ExpectEquality(t, entries[0].Message, "jammed")
	test.ExpectEquality(t, entries[0].Level, zap.ErrorLevel)
	test.ExpectEquality(t, entries[1].Level, zap.WarnLevel)
	test.ExpectEquality(t, entries[1].ContextMap()["category"], any("synthetic"))
	test.ExpectEquality(t, entries[2].ContextMap()["active"], any(true))

	// nil logger is allowed
	notifications.NewZap(nil).Notify(notifications.Event{Notice: notifications.NotifyStarted})
}

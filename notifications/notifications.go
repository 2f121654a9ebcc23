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

package notifications

import (
	"fmt"

	"github.com/jetsetilly/emucore/engine"
)

// Notice describes the kind of event.
type Notice string

// List of notices.
const (
	// the worker has started and is about to run the first frame
	NotifyStarted Notice = "NotifyStarted"

	// the worker is about to end
	NotifyStopping Notice = "NotifyStopping"

	// the worker has been paused or unpaused by a user request
	NotifyPaused   Notice = "NotifyPaused"
	NotifyUnpaused Notice = "NotifyUnpaused"

	// a new complete frame is available
	NotifyFrameAvailable Notice = "NotifyFrameAvailable"

	// a checkpoint (or undo buffer) was loaded into the engine
	NotifyStateLoaded Notice = "NotifyStateLoaded"

	// the engine suffered an unrecoverable fault. Text contains the message
	NotifyCrashed Notice = "NotifyCrashed"

	// a user facing status message. Text contains the message
	NotifyStatusPosted Notice = "NotifyStatusPosted"

	// a log line from the engine. Level, Category and Text are set
	NotifyLogPosted Notice = "NotifyLogPosted"

	// the worker failed to start. Text contains the reason
	NotifyFailed Notice = "NotifyFailed"

	// the worker has completed a reset
	NotifyDidReset Notice = "NotifyDidReset"

	// the engine state was rewound. Count is the number of rewind steps
	NotifyRewound Notice = "NotifyRewound"

	// fast forward was started or stopped. Active is the new state
	NotifyFastForwardChanged Notice = "NotifyFastForwardChanged"
)

// Event is a single notification.
type Event struct {
	Notice   Notice
	Text     string
	Level    engine.LogLevel
	Category string
	Active   bool
	Count    int
}

func (ev Event) String() string {
	switch ev.Notice {
	case NotifyCrashed, NotifyStatusPosted, NotifyFailed:
		return fmt.Sprintf("%s: %s", ev.Notice, ev.Text)
	case NotifyLogPosted:
		return fmt.Sprintf("%s: [%s] %s: %s", ev.Notice, ev.Level, ev.Category, ev.Text)
	case NotifyRewound:
		return fmt.Sprintf("%s: %d", ev.Notice, ev.Count)
	case NotifyFastForwardChanged:
		return fmt.Sprintf("%s: %v", ev.Notice, ev.Active)
	}
	return string(ev.Notice)
}

// Notify is implemented by any type that receives events.
type Notify interface {
	Notify(ev Event)
}

// Func is an adaptor that allows an ordinary function to be used as an
// implementation of Notify.
type Func func(ev Event)

// Notify implements the Notify interface.
func (f Func) Notify(ev Event) {
	f(ev)
}

// Null discards all events.
type Null struct{}

// Notify implements the Notify interface.
func (Null) Notify(Event) {}

// Multi sends every event to each Notify implementation in turn.
type Multi []Notify

// Notify implements the Notify interface.
func (m Multi) Notify(ev Event) {
	for _, n := range m {
		if n != nil {
			n.Notify(ev)
		}
	}
}

// Helper functions for the most common events.

// Status sends a NotifyStatusPosted event.
func Status(n Notify, format string, args ...any) {
	n.Notify(Event{Notice: NotifyStatusPosted, Text: fmt.Sprintf(format, args...)})
}

// Simple sends an event with no data.
func Simple(n Notify, notice Notice) {
	n.Notify(Event{Notice: notice})
}

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

package controller

import (
	"errors"
	"io/fs"

	"github.com/jetsetilly/emucore/checkpoint"
	"github.com/jetsetilly/emucore/logger"
	"github.com/jetsetilly/emucore/persistence"
)

// listener implements the worker.Listener interface for the controller.
type listener struct {
	ctrl *Controller
}

func (l *listener) Start() {
	ctrl := l.ctrl

	ctrl.crit.Lock()
	defer ctrl.crit.Unlock()

	p := ctrl.prefs.Load()
	if !p.Autoload.Get().(bool) {
		return
	}

	_, err := persistence.ReadAll(ctrl.store, checkpoint.SuspendSlot)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Logf(logger.Allow, "controller", "autoload: %v", err)
		}
		return
	}

	if err := ctrl.cp.Load(checkpoint.SuspendSlot, p.loadFlags()); err != nil {
		logger.Logf(logger.Allow, "controller", "autoload: %v", err)
	}
}

func (l *listener) Reset() {
	l.ctrl.input.reset()
}

func (l *listener) Frame() {
	ctrl := l.ctrl

	var polled uint32
	if ctrl.poller != nil {
		polled = ctrl.poller.Poll()
	}
	ctrl.eng.SetKeys(ctrl.input.merge(ctrl.eng.Keys(), polled))
}

func (l *listener) Clean() {
	logger.Log(logger.Allow, "controller", "worker finished")
}

func (l *listener) Pause() {
	logger.Log(logger.Allow, "controller", "paused")
}

func (l *listener) Unpause() {
	logger.Log(logger.Allow, "controller", "unpaused")
}
